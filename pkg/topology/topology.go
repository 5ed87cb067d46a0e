// Package topology tracks the physical ring: per-slave topology addresses
// and preferred ports, the ring-delay measurement used by the timing
// planner, and the CP0 slave-counting state machine (spec §4.1 ring_delay,
// §4.5 slave counting).
package topology

import "sercos3.io/softmaster/pkg/sercoserr"

// Mode is the physical cabling shape.
type Mode uint8

const (
	Line Mode = iota
	Ring
)

// RingDelayMode selects whether the planner uses the largest recently
// measured ring delay or a fixed conservative estimate. DESIGN.md Open Question #1:
// defaults to RingDelayStable.
type RingDelayMode uint8

const (
	RingDelayStable RingDelayMode = iota
	RingDelayMeasured
)

const delayHistoryLen = 8

// DelayTracker keeps a short rolling history of measured ring-delay
// samples (nanoseconds) and serves either the fixed stable estimate or
// the maximum of the recorded samples, depending on Mode.
type DelayTracker struct {
	Mode    RingDelayMode
	Stable  int64 // fixed worst-case estimate, set once at configuration time
	history [delayHistoryLen]int64
	count   int
	next    int
}

// NewDelayTracker builds a tracker defaulting to RingDelayStable, per
// DESIGN.md Open Question #1.
func NewDelayTracker(stableEstimateNS int64) *DelayTracker {
	return &DelayTracker{Mode: RingDelayStable, Stable: stableEstimateNS}
}

// Observe records one measured sample.
func (d *DelayTracker) Observe(delayNS int64) {
	d.history[d.next] = delayNS
	d.next = (d.next + 1) % delayHistoryLen
	if d.count < delayHistoryLen {
		d.count++
	}
}

// Current returns the delay the planner should use right now.
func (d *DelayTracker) Current() int64 {
	if d.Mode == RingDelayStable || d.count == 0 {
		return d.Stable
	}
	var max int64
	for i := 0; i < d.count; i++ {
		if d.history[i] > max {
			max = d.history[i]
		}
	}
	return max
}

// Slave is one device's position in the physical topology.
type Slave struct {
	SercosAddress   uint16
	TopologyAddress uint16
	PreferredPort   uint8
}

// AssignTopologyAddresses numbers slaves in projection order starting at
// 1 (0 is reserved for the master), and fills PreferredPort from the
// caller-supplied available-slaves-per-port lists. availablePort1/2 list
// SercosAddress values reachable on each port before ring closure is known;
// a slave present on both ports keeps port 1 as preferred.
func AssignTopologyAddresses(order []uint16, availablePort1, availablePort2 []uint16) []Slave {
	onPort1 := make(map[uint16]bool, len(availablePort1))
	for _, a := range availablePort1 {
		onPort1[a] = true
	}
	onPort2 := make(map[uint16]bool, len(availablePort2))
	for _, a := range availablePort2 {
		onPort2[a] = true
	}

	out := make([]Slave, len(order))
	for i, addr := range order {
		port := uint8(1)
		if !onPort1[addr] && onPort2[addr] {
			port = 2
		}
		out[i] = Slave{
			SercosAddress:   addr,
			TopologyAddress: uint16(i + 1),
			PreferredPort:   port,
		}
	}
	return out
}

// SlaveCount is the result of one CP0 counting pass, split by the branch
// that produced it (original_source/src/CSMD/CSMD_HAL_NRT.c).
type SlaveCount struct {
	Total       int
	ClosedRing  bool
	BrokenRing  bool // ring wiring detected but not closed: two line segments
	Port1Count  int
	Port2Count  int
}

// decodeLineCount applies the non-redundant-line SEQCNT formula: the
// self-counting sequence counter increments twice per slave (out and
// back), so the slave count is (seqcnt & 0xFFFF) / 2.
func decodeLineCount(seqcnt uint32) int {
	return int((seqcnt & 0xFFFF) / 2)
}

// decodeClosedRingCount applies the closed-ring SEQCNT formula: the
// counter runs once all the way around, counting the master itself, so
// the slave count is (seqcnt & 0x7FFF) - 1.
func decodeClosedRingCount(seqcnt uint32) int {
	return int(seqcnt&0x7FFF) - 1
}

// CountSlaves implements the three-branch CP0 slave-counting arithmetic,
// decoding each port's raw SEQCNT sample directly (spec §4.5): a closed
// ring counts once around and both ports must agree on the total; a
// broken ring (topology wired as a ring but the loop isn't closed) is
// seen as two independent line segments, each still counting the
// master's own contribution, which is subtracted per segment before
// summing; a non-redundant line only ever reports a count on port 1.
func CountSlaves(mode Mode, ringClosed bool, seqcnt1, seqcnt2 uint32) (SlaveCount, error) {
	switch {
	case mode == Line:
		port2Count := decodeLineCount(seqcnt2)
		if port2Count != 0 {
			return SlaveCount{}, sercoserr.New(sercoserr.State, sercoserr.SystemError,
				"non-redundant line topology reported slaves on port 2")
		}
		port1Count := decodeLineCount(seqcnt1)
		return SlaveCount{Total: port1Count, Port1Count: port1Count}, nil

	case mode == Ring && ringClosed:
		port1Count := decodeClosedRingCount(seqcnt1)
		port2Count := decodeClosedRingCount(seqcnt2)
		if port1Count != port2Count {
			return SlaveCount{}, sercoserr.New(sercoserr.State, sercoserr.SystemError,
				"closed ring port counts disagree")
		}
		return SlaveCount{Total: port1Count, ClosedRing: true, Port1Count: port1Count, Port2Count: port2Count}, nil

	default: // Ring && !ringClosed: broken ring, two line segments
		port1Count := decodeLineCount(seqcnt1) - 1
		port2Count := decodeLineCount(seqcnt2) - 1
		if port1Count < 0 {
			port1Count = 0
		}
		if port2Count < 0 {
			port2Count = 0
		}
		return SlaveCount{
			Total:      port1Count + port2Count,
			BrokenRing: true,
			Port1Count: port1Count,
			Port2Count: port2Count,
		}, nil
	}
}
