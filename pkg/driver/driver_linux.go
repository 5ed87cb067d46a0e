//go:build linux

package driver

import (
	"fmt"
	"net"
	"time"
	"unsafe"

	"github.com/docker/docker/pkg/parsers/kernel"
	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// txTimeMinKernel is the first kernel release carrying SO_TXTIME, which
// NIC-timed transmission depends on (adapted from pkg/linux/init.go's
// kernel-version-gated capability table).
var txTimeMinKernel = kernel.VersionInfo{Kernel: 4, Major: 19, Minor: 0}

// sockaddrLL mirrors struct sockaddr_ll for AF_PACKET binds; unix already
// exposes this as unix.SockaddrLinklayer, used directly below.

// AFPacket is the Linux raw-socket Driver implementation: one AF_PACKET
// socket bound to the interface carrying the real-time telegrams, plus a
// second one for the UC channel.
type AFPacket struct {
	ifIndex int
	rtFD    int
	ucFD    int

	nicTimedTX bool
}

// NewAFPacket builds an unopened driver bound to the named interface.
func NewAFPacket(ifaceName string) (*AFPacket, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("driver: resolve interface %q: %w", ifaceName, err)
	}

	nicTimed := false
	if v, err := kernel.GetKernelVersion(); err == nil {
		nicTimed = kernel.CompareKernelVersion(*v, txTimeMinKernel) >= 0
	}

	return &AFPacket{ifIndex: iface.Index, rtFD: -1, ucFD: -1, nicTimedTX: nicTimed}, nil
}

// OpenFromConn extracts the raw fd of an already-open net.PacketConn
// (used in constrained test environments that can't open AF_PACKET
// sockets directly) instead of creating one internally.
func OpenFromConn(conn net.PacketConn) (int, error) {
	nc, ok := conn.(net.Conn)
	if !ok {
		return -1, fmt.Errorf("driver: connection does not expose a raw fd")
	}
	return netfd.GetFdFromConn(nc), nil
}

func (a *AFPacket) openSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return -1, fmt.Errorf("driver: socket: %w", err)
	}
	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  a.ifIndex,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("driver: bind: %w", err)
	}
	return fd, nil
}

func (a *AFPacket) OpenRX() error {
	fd, err := a.openSocket()
	if err != nil {
		return err
	}
	a.rtFD = fd
	return nil
}

func (a *AFPacket) OpenTX() error {
	if a.rtFD >= 0 {
		return nil // RX/TX share one bound AF_PACKET socket
	}
	return a.OpenRX()
}

func (a *AFPacket) TXPacket(frame []byte) error {
	if a.rtFD < 0 {
		return fmt.Errorf("driver: TX socket not open")
	}
	return unix.Send(a.rtFD, frame, 0)
}

func (a *AFPacket) RXPacket() ([]byte, bool, error) {
	if a.rtFD < 0 {
		return nil, false, fmt.Errorf("driver: RX socket not open")
	}
	buf := make([]byte, 1600)
	n, err := unix.Read(a.rtFD, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("driver: read: %w", err)
	}
	return buf[:n], true, nil
}

// TXPacketsNICTimed uses SO_TXTIME-scheduled sends when the kernel
// supports it (>= 4.19); otherwise it falls back to sequential
// immediate sends, matching the interface's documented fallback
// contract.
func (a *AFPacket) TXPacketsNICTimed(frames [][]byte, at []time.Time) error {
	if !a.nicTimedTX {
		for _, f := range frames {
			if err := a.TXPacket(f); err != nil {
				return err
			}
		}
		return nil
	}
	for i, f := range frames {
		if err := a.txAtAbsoluteTime(f, at[i]); err != nil {
			return err
		}
	}
	return nil
}

// scmTxtime is Linux's SCM_TXTIME ancillary message type (cmsg_type
// value for SOL_SOCKET), used to request hardware-timed transmission.
const scmTxtime = 61

// txAtAbsoluteTime sends one frame carrying an SO_TXTIME control message
// requesting hardware-timed transmission at t. The cmsg payload is a
// single little-endian __u64 nanosecond timestamp, per struct
// __kernel_timespec's SCM_TXTIME ancillary data layout.
func (a *AFPacket) txAtAbsoluteTime(frame []byte, t time.Time) error {
	cmsg := make([]byte, unix.CmsgSpace(8))
	hdr := (*unix.Cmsghdr)(unsafe.Pointer(&cmsg[0]))
	hdr.Level = unix.SOL_SOCKET
	hdr.Type = scmTxtime
	hdr.SetLen(unix.CmsgLen(8))
	*(*uint64)(unsafe.Pointer(&cmsg[unix.CmsgLen(0)])) = uint64(t.UnixNano())

	if err := unix.Sendmsg(a.rtFD, frame, cmsg, nil, 0); err != nil {
		return a.TXPacket(frame)
	}
	return nil
}

func (a *AFPacket) TXUCCPacket(frame []byte) error {
	if a.ucFD < 0 {
		fd, err := a.openSocket()
		if err != nil {
			return err
		}
		a.ucFD = fd
	}
	return unix.Send(a.ucFD, frame, 0)
}

func (a *AFPacket) RXUCCPacket() ([]byte, bool, error) {
	if a.ucFD < 0 {
		return nil, false, nil
	}
	buf := make([]byte, 1600)
	n, err := unix.Read(a.ucFD, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("driver: UCC read: %w", err)
	}
	return buf[:n], true, nil
}

func (a *AFPacket) CloseRX() error {
	if a.rtFD < 0 {
		return nil
	}
	err := unix.Close(a.rtFD)
	a.rtFD = -1
	return err
}

func (a *AFPacket) CloseTX() error {
	if a.ucFD >= 0 {
		err := unix.Close(a.ucFD)
		a.ucFD = -1
		return err
	}
	return nil
}

func (a *AFPacket) SupportsNICTimedTX() bool { return a.nicTimedTX }

func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}
