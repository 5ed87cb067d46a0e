// Package driver defines the downward interface between the SoftMaster
// core and the network device it drives: opening raw RX/TX sockets,
// sending/receiving real-time telegrams and UC channel packets, and
// (where the platform supports it) NIC-timed transmission (spec §6, §5
// suspension points).
package driver

import "time"

// Driver is the downward interface pkg/softmaster drives every cycle.
// Implementations never spawn goroutines of their own; every method is
// called synchronously from the cycle loop, matching the suspension
// points the spec calls out.
type Driver interface {
	OpenRX() error
	OpenTX() error

	// TXPacket sends one real-time telegram immediately.
	TXPacket(frame []byte) error
	// RXPacket reads one pending real-time telegram, non-blocking;
	// returns (nil, false, nil) if nothing is queued.
	RXPacket() (frame []byte, ok bool, err error)

	// TXPacketsNICTimed schedules a batch of telegrams for transmission
	// at specific future times, using NIC hardware timestamping where
	// available; falls back to immediate sequential TXPacket calls on
	// platforms/kernels without that capability.
	TXPacketsNICTimed(frames [][]byte, at []time.Time) error

	TXUCCPacket(frame []byte) error
	RXUCCPacket() (frame []byte, ok bool, err error)

	CloseRX() error
	CloseTX() error

	// SupportsNICTimedTX reports whether TXPacketsNICTimed will actually
	// schedule, or is silently falling back to immediate sends.
	SupportsNICTimedTX() bool
}
