package driver

import "time"

// Loopback is an in-process Driver used by tests and pkg/driver-agnostic
// simulation: TX writes go straight onto an RX queue, as if the frame had
// been transmitted and immediately received back.
type Loopback struct {
	rx    [][]byte
	ucRx  [][]byte
	txLog [][]byte
	ucTx  [][]byte
}

// NewLoopback builds an unopened Loopback driver.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) OpenRX() error { return nil }
func (l *Loopback) OpenTX() error { return nil }

func (l *Loopback) TXPacket(frame []byte) error {
	cp := append([]byte(nil), frame...)
	l.txLog = append(l.txLog, cp)
	l.rx = append(l.rx, cp)
	return nil
}

func (l *Loopback) RXPacket() ([]byte, bool, error) {
	if len(l.rx) == 0 {
		return nil, false, nil
	}
	f := l.rx[0]
	l.rx = l.rx[1:]
	return f, true, nil
}

func (l *Loopback) TXPacketsNICTimed(frames [][]byte, at []time.Time) error {
	for _, f := range frames {
		if err := l.TXPacket(f); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loopback) TXUCCPacket(frame []byte) error {
	cp := append([]byte(nil), frame...)
	l.ucTx = append(l.ucTx, cp)
	l.ucRx = append(l.ucRx, cp)
	return nil
}

func (l *Loopback) RXUCCPacket() ([]byte, bool, error) {
	if len(l.ucRx) == 0 {
		return nil, false, nil
	}
	f := l.ucRx[0]
	l.ucRx = l.ucRx[1:]
	return f, true, nil
}

func (l *Loopback) CloseRX() error { return nil }
func (l *Loopback) CloseTX() error { return nil }

func (l *Loopback) SupportsNICTimedTX() bool { return false }

// TXLog exposes every frame ever sent via TXPacket, for test assertions.
func (l *Loopback) TXLog() [][]byte { return l.txLog }

// UCCLog exposes every frame ever sent via TXUCCPacket, for test assertions.
func (l *Loopback) UCCLog() [][]byte { return l.ucTx }
