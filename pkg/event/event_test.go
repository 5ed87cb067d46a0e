package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortTimerOrdersByTime(t *testing.T) {
	in := []Event{
		{TimeNS: 500, Type: MDTStart},
		{TimeNS: 100, Type: ATStart},
		{TimeNS: 900, Type: Reload},
		{TimeNS: 950, Type: ReloadValue},
	}
	out, err := SortTimer(in)
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i := 1; i < len(out); i++ {
		require.LessOrEqual(t, out[i-1].TimeNS, out[i].TimeNS)
	}
	require.Equal(t, Reload, out[len(out)-2].Type)
	require.Equal(t, ReloadValue, out[len(out)-1].Type)
}

func TestSortTimerStableOnEqualTimes(t *testing.T) {
	in := []Event{
		{TimeNS: 100, Type: MDTStart},
		{TimeNS: 100, Type: ATStart},
		{TimeNS: 900, Type: Reload},
		{TimeNS: 900, Type: ReloadValue},
	}
	out, err := SortTimer(in)
	require.NoError(t, err)
	// Equal-time entries must retain their original relative order.
	require.Equal(t, MDTStart, out[0].Type)
	require.Equal(t, ATStart, out[1].Type)
}

func TestSortTimerRejectsBadTail(t *testing.T) {
	in := []Event{
		{TimeNS: 100, Type: MDTStart},
		{TimeNS: 200, Type: ATStart},
	}
	_, err := SortTimer(in)
	require.Error(t, err)
}

func TestSortPortRequiresMstWindowCloseThenReloadValue(t *testing.T) {
	in := []Event{
		{TimeNS: 10, Type: ATWindowOpen},
		{TimeNS: 20, Type: ATWindowClose},
		{TimeNS: 30, Type: MSTWindowClose},
		{TimeNS: 40, Type: ReloadValue},
	}
	out, err := SortPort(in)
	require.NoError(t, err)
	require.Equal(t, MSTWindowClose, out[len(out)-2].Type)
	require.Equal(t, ReloadValue, out[len(out)-1].Type)
}

func TestSortRejectsEmptyAndOversized(t *testing.T) {
	_, err := SortTimer(nil)
	require.Error(t, err)

	big := make([]Event, SlotCount+1)
	big[len(big)-2] = Event{Type: Reload}
	big[len(big)-1] = Event{Type: ReloadValue}
	_, err = SortTimer(big)
	require.Error(t, err)
}

func TestEmitToControllerPadsWithNoEvent(t *testing.T) {
	sorted := []Event{
		{TimeNS: 1, Type: MDTStart},
		{TimeNS: 2, Type: Reload},
		{TimeNS: 3, Type: ReloadValue},
	}
	dst := make([]Event, SlotCount)
	for i := range dst {
		dst[i] = Event{Type: ATStart, TimeNS: 999} // poison to prove overwrite
	}
	EmitToController(dst, sorted)

	require.Equal(t, sorted[0], dst[0])
	require.Equal(t, sorted[1], dst[1])
	require.Equal(t, sorted[2], dst[2])
	for i := 3; i < SlotCount; i++ {
		require.Equal(t, NoEvent, dst[i].Type)
	}
}
