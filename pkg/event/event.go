// Package event implements the Event Sorter: a stable, indirect sort of a
// small (<=16) set of hardware events, with a tail-shape contract the
// controller depends on to recognize "end of table" (spec §4.2).
package event

import (
	"sort"

	"sercos3.io/softmaster/pkg/sercoserr"
)

// Type enumerates both the timer-event and port-event families from
// spec §3. A single enum (rather than two disjoint ones) keeps Event
// itself family-agnostic; SortTimer/SortPort each enforce the tail shape
// appropriate to their own family.
type Type uint8

const (
	NoEvent Type = iota

	// Timer events
	MDTStart
	ATStart
	UCCOpen
	UCCLast
	UCCClose
	SyncPortSet
	SyncPortReset
	TimerInterrupt
	BufferRequest
	Reload
	ReloadValue

	// Port events
	ATWindowOpen
	ATWindowClose
	UCCRxOpen
	UCCRxClose
	MSTWindowOpen
	MSTWindowClose
	RXBufferRequest
	SVCStart
)

// SlotCount is the hardware's event register table size (EVENT_NUMBER /
// TIMER_EVENT_NUMBER / PORTS_EVENT_NUMBER are all the same constant in
// this core's register map).
const SlotCount = 16

// Event is one hardware event: a time within the cycle, its type, and the
// subcycle selector bits the controller latches alongside it.
type Event struct {
	TimeNS         int64
	Type           Type
	SubcycleCount  uint8
	SubcycleSelect uint8
}

// SortTimer stable-sorts events ascending by TimeNS using an indirect
// index sort (the input slice is left in original programming order for
// debug capture), then validates that the last two sorted entries are
// Reload, ReloadValue. Returns the events in sorted order.
func SortTimer(events []Event) ([]Event, error) {
	return sortFamily(events, Reload, ReloadValue)
}

// SortPort is SortTimer's port-event counterpart: the required tail is
// MstWindowClose, ReloadValue.
func SortPort(events []Event) ([]Event, error) {
	return sortFamily(events, MSTWindowClose, ReloadValue)
}

func sortFamily(events []Event, wantPenultimate, wantLast Type) ([]Event, error) {
	if len(events) == 0 {
		return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "empty event table")
	}
	if len(events) > SlotCount {
		return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "event table exceeds slot count")
	}

	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return events[idx[a]].TimeNS < events[idx[b]].TimeNS
	})

	sorted := make([]Event, len(events))
	for i, j := range idx {
		sorted[i] = events[j]
	}

	n := len(sorted)
	if sorted[n-2].Type != wantPenultimate || sorted[n-1].Type != wantLast {
		return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "event table tail shape violated")
	}
	return sorted, nil
}

// EmitToController copies sorted events into dst[0:len(sorted)] and fills
// the remaining slots up to SlotCount with NoEvent, matching the register
// array shape the controller expects every phase transition.
func EmitToController(dst []Event, sorted []Event) {
	if len(dst) < SlotCount {
		panic("event: destination register array smaller than SlotCount")
	}
	i := 0
	for ; i < len(sorted) && i < SlotCount; i++ {
		dst[i] = sorted[i]
	}
	for ; i < SlotCount; i++ {
		dst[i] = Event{Type: NoEvent}
	}
}
