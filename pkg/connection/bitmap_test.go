package connection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildBitmapSingleCycleIsAllOnes(t *testing.T) {
	cat := &Catalog{
		Connections: []Connection{
			{Index: 0, ProducerCycleNS: 0, PayloadLen: 4},
			{Index: 1, ProducerCycleNS: 0, PayloadLen: 4},
		},
	}
	bm, err := BuildBitmap(cat, 1_000_000)
	require.NoError(t, err)
	require.Len(t, bm.Cycles, 1)
	require.Equal(t, uint32(0), bm.TSrefMax)
	require.Equal(t, []uint32{0b1}, bm.TSrefList)
}

func TestBuildBitmapMultipleCyclesLCM(t *testing.T) {
	cat := &Catalog{
		Connections: []Connection{
			{Index: 0, ProducerCycleNS: 0, PayloadLen: 4},       // Tscyc bucket, multiple 1
			{Index: 1, ProducerCycleNS: 2_000_000, PayloadLen: 4}, // multiple 2
			{Index: 2, ProducerCycleNS: 3_000_000, PayloadLen: 4}, // multiple 3
		},
	}
	bm, err := BuildBitmap(cat, 1_000_000)
	require.NoError(t, err)
	require.Len(t, bm.Cycles, 3)
	// lcm(1,2,3) = 6
	require.Equal(t, uint32(5), bm.TSrefMax)
	require.Len(t, bm.TSrefList, 6)

	tscycBit, ok := bm.BitFor(0, 1_000_000)
	require.True(t, ok)
	twoBit, ok := bm.BitFor(2_000_000, 1_000_000)
	require.True(t, ok)
	threeBit, ok := bm.BitFor(3_000_000, 1_000_000)
	require.True(t, ok)

	for tsref := uint32(0); tsref < 6; tsref++ {
		require.True(t, bm.TSrefList[tsref]&(1<<tscycBit) != 0, "Tscyc bucket must produce every TSref")
	}
	require.True(t, bm.ProducesOn(2_000_000, 1_000_000, 0))
	require.False(t, bm.ProducesOn(2_000_000, 1_000_000, 1))
	require.True(t, bm.ProducesOn(2_000_000, 1_000_000, 2))
	require.True(t, bm.ProducesOn(3_000_000, 1_000_000, 3))
	require.False(t, bm.ProducesOn(3_000_000, 1_000_000, 1))

	_ = twoBit
	_ = threeBit
}

func TestBuildBitmapRejectsTooManyDistinctCycles(t *testing.T) {
	cat := &Catalog{}
	// i == 1 repeats Tscyc itself, so this yields MaxProducerCycles+1 distinct cycles.
	for i := int64(1); i <= MaxProducerCycles+1; i++ {
		cat.Connections = append(cat.Connections, Connection{ProducerCycleNS: i * 1_000_000})
	}
	_, err := BuildBitmap(cat, 1_000_000)
	require.Error(t, err)
}
