package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDelayTrackerDefaultsToStable(t *testing.T) {
	d := NewDelayTracker(500)
	require.Equal(t, RingDelayStable, d.Mode)
	require.Equal(t, int64(500), d.Current())
	d.Observe(10000)
	require.Equal(t, int64(500), d.Current(), "stable mode ignores observed samples")
}

func TestDelayTrackerMeasuredUsesMax(t *testing.T) {
	d := NewDelayTracker(500)
	d.Mode = RingDelayMeasured
	d.Observe(100)
	d.Observe(900)
	d.Observe(400)
	require.Equal(t, int64(900), d.Current())
}

func TestDelayTrackerMeasuredFallsBackWithNoSamples(t *testing.T) {
	d := NewDelayTracker(500)
	d.Mode = RingDelayMeasured
	require.Equal(t, int64(500), d.Current())
}

func TestAssignTopologyAddressesPreferredPort(t *testing.T) {
	order := []uint16{10, 20, 30}
	slaves := AssignTopologyAddresses(order, []uint16{10, 30}, []uint16{20})
	require.Len(t, slaves, 3)
	require.Equal(t, uint16(1), slaves[0].TopologyAddress)
	require.Equal(t, uint8(1), slaves[0].PreferredPort)
	require.Equal(t, uint8(2), slaves[1].PreferredPort)
	require.Equal(t, uint8(1), slaves[2].PreferredPort)
}

func TestDecodeLineCount(t *testing.T) {
	require.Equal(t, 5, decodeLineCount(10))
	require.Equal(t, 0, decodeLineCount(0))
}

func TestDecodeClosedRingCount(t *testing.T) {
	require.Equal(t, 6, decodeClosedRingCount(7))
}

func TestCountSlavesLine(t *testing.T) {
	sc, err := CountSlaves(Line, false, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 5, sc.Total)
	require.False(t, sc.ClosedRing)
	require.False(t, sc.BrokenRing)
}

func TestCountSlavesLineRejectsPort2Traffic(t *testing.T) {
	_, err := CountSlaves(Line, false, 10, 2)
	require.Error(t, err)
}

func TestCountSlavesClosedRing(t *testing.T) {
	sc, err := CountSlaves(Ring, true, 7, 7)
	require.NoError(t, err)
	require.Equal(t, 6, sc.Total)
	require.True(t, sc.ClosedRing)
}

func TestCountSlavesClosedRingRejectsDisagreement(t *testing.T) {
	_, err := CountSlaves(Ring, true, 7, 6)
	require.Error(t, err)
}

func TestCountSlavesBrokenRingSumsSegments(t *testing.T) {
	sc, err := CountSlaves(Ring, false, 8, 6)
	require.NoError(t, err)
	require.Equal(t, 5, sc.Total)
	require.True(t, sc.BrokenRing)
	require.False(t, sc.ClosedRing)
	require.Equal(t, 3, sc.Port1Count)
	require.Equal(t, 2, sc.Port2Count)
}
