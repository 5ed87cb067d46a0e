package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func word(kind Kind, bufsys BufSys, length, offset uint16) uint32 {
	return uint32(kind)&0xF | (uint32(bufsys)&0x1)<<4 | (uint32(length)&0x7FF)<<5 | uint32(offset)<<16
}

func TestDecodeRoundTrips(t *testing.T) {
	w := word(RtOpen, BufA, 100, 2000)
	d, err := Decode(w)
	require.NoError(t, err)
	require.Equal(t, RtOpen, d.Kind)
	require.Equal(t, BufA, d.BufSys)
	require.Equal(t, uint16(100), d.Length)
	require.Equal(t, uint16(2000), d.BufferOffset)
}

func TestDecodeRejectsBufferSystemB(t *testing.T) {
	w := word(RtOpen, BufB, 10, 0)
	_, err := Decode(w)
	require.Error(t, err)
}

func TestDecodeAllStopsAtTerminator(t *testing.T) {
	words := []uint32{
		word(RtOpen, BufA, 4, 0),
		word(RtClose, BufA, 0, 0),
		word(Terminator, BufA, 0, 0),
		word(RtOpen, BufA, 4, 8), // must never be reached
	}
	descs, err := DecodeAll(words)
	require.NoError(t, err)
	require.Len(t, descs, 3)
	require.Equal(t, Terminator, descs[2].Kind)
}

func TestDecodeAllRejectsMissingTerminator(t *testing.T) {
	words := []uint32{word(RtOpen, BufA, 4, 0), word(RtClose, BufA, 0, 0)}
	_, err := DecodeAll(words)
	require.Error(t, err)
}

func TestAssembleTXCopiesRegionsInOrder(t *testing.T) {
	txRAM := make([]byte, 64)
	copy(txRAM[0:4], []byte{1, 2, 3, 4})
	copy(txRAM[10:14], []byte{5, 6, 7, 8})

	descs := []Descriptor{
		{Kind: RtOpen, Length: 4, BufferOffset: 0},
		{Kind: RtClose},
		{Kind: RtOpen, Length: 4, BufferOffset: 10},
		{Kind: RtClose},
	}
	out := make([]byte, 8)
	n, err := AssembleTX(descs, txRAM, out)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out)
}

func TestScatterRXDistributesByKind(t *testing.T) {
	svcRAM := make([]byte, 16)
	rxRAM := make([]byte, 16)
	txRAM := make([]byte, 16)
	incoming := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	descs := []Descriptor{
		{Kind: RtOpen, Length: 2, BufferOffset: 0},
		{Kind: RtClose},
		{Kind: PortOpen, Length: 2, BufferOffset: 4},
		{Kind: PortClose},
		{Kind: RtCcOpen, Length: 2, BufferOffset: 8},
		{Kind: RtCcClose},
		{Kind: Terminator},
	}
	err := ScatterRX(descs, svcRAM, rxRAM, txRAM, incoming)
	require.NoError(t, err)

	require.Equal(t, []byte{0xAA, 0xBB}, rxRAM[0:2])
	require.Equal(t, []byte{0, 0}, txRAM[0:2])
	require.Equal(t, []byte{0xCC, 0xDD}, txRAM[4:6])
	require.Equal(t, []byte{0, 0}, rxRAM[4:6])
	require.Equal(t, []byte{0xEE, 0xFF}, rxRAM[8:10])
	require.Equal(t, []byte{0xEE, 0xFF}, txRAM[8:10])
}

func TestScatterRXRejectsRegionPastIncoming(t *testing.T) {
	descs := []Descriptor{
		{Kind: RtOpen, Length: 100, BufferOffset: 0},
		{Kind: RtClose},
		{Kind: Terminator},
	}
	err := ScatterRX(descs, nil, make([]byte, 200), nil, []byte{1, 2})
	require.Error(t, err)
}
