//go:build !(linux || darwin || windows)

package driver

import (
	"fmt"
	"runtime"
	"time"
)

// AFPacket is a non-functional stand-in on every other GOOS.
type AFPacket struct{}

func NewAFPacket(ifaceName string) (*AFPacket, error) {
	return nil, fmt.Errorf("driver: raw Ethernet access is not implemented on %s", runtime.GOOS)
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
