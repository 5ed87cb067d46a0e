//go:build darwin

package driver

import (
	"fmt"
	"time"
)

// AFPacket is a non-functional stand-in on Darwin: raw AF_PACKET sockets
// don't exist on BSD-derived kernels (BPF would be the native
// equivalent), and this core has no BPF backend. Present so driver
// selection code can build on every platform in the pack.
type AFPacket struct{}

func NewAFPacket(ifaceName string) (*AFPacket, error) {
	return nil, fmt.Errorf("driver: AF_PACKET is not available on darwin; use a loopback or BPF-backed driver")
}

func (a *AFPacket) OpenRX() error                                       { return errUnsupported }
func (a *AFPacket) OpenTX() error                                       { return errUnsupported }
func (a *AFPacket) TXPacket(frame []byte) error                         { return errUnsupported }
func (a *AFPacket) RXPacket() ([]byte, bool, error)                     { return nil, false, errUnsupported }
func (a *AFPacket) TXPacketsNICTimed(frames [][]byte, at []time.Time) error { return errUnsupported }
func (a *AFPacket) TXUCCPacket(frame []byte) error                      { return errUnsupported }
func (a *AFPacket) RXUCCPacket() ([]byte, bool, error)                  { return nil, false, errUnsupported }
func (a *AFPacket) CloseRX() error                                      { return nil }
func (a *AFPacket) CloseTX() error                                      { return nil }
func (a *AFPacket) SupportsNICTimedTX() bool                            { return false }

var errUnsupported = fmt.Errorf("driver: not supported on this platform")
