package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMemoryAllocatesFixedRegions(t *testing.T) {
	m := NewMemory()
	require.Len(t, m.SVCRAM, SVCRAMSize)
	require.Len(t, m.TXRAM, TXRAMSize)
	require.Len(t, m.RXRAM, RXRAMSize)
}

func TestSoftResetZeroesRAMAndRestoresRegisterDefaults(t *testing.T) {
	m := NewMemory()
	m.TXRAM[10] = 0xAB
	m.SVCRAM[0] = 0xCD
	m.RXRAM[100] = 0xEF
	m.Registers.TGSR1 = 0xFFFF
	m.Registers.PHASECR = 7
	m.Registers.WDCSR = WDCSRAlarm

	mac := [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	m.SoftReset(mac)

	require.Equal(t, byte(0), m.TXRAM[10])
	require.Equal(t, byte(0), m.SVCRAM[0])
	require.Equal(t, byte(0), m.RXRAM[100])
	require.Equal(t, uint32(0), m.Registers.TGSR1)
	require.Equal(t, uint32(0), m.Registers.PHASECR)
	require.Equal(t, uint32(0), m.Registers.WDCSR)
	require.Equal(t, mac, m.Registers.MAC1)
}
