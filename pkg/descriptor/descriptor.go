// Package descriptor implements the Descriptor Engine: decoding the
// controller's 32-bit TX/RX descriptor words into a typed open/close pair
// list, and walking that list to assemble outgoing telegrams or scatter
// an incoming one across SVC/RX/TX RAM (spec §4.4).
package descriptor

import "sercos3.io/softmaster/pkg/sercoserr"

// Kind is the descriptor word's region type. Open/Close always come in
// matched pairs; Terminator ends the list.
type Kind uint8

const (
	SvcOpen Kind = iota
	SvcClose
	RtOpen
	RtClose
	PortCcOpen
	PortCcClose
	RtCcOpen
	RtCcClose
	PortOpen
	PortClose
	Terminator
)

// BufSys selects which of the two buffer systems (A/B) a region refers
// to; the core always runs single-buffered (spec §4.4 design note), so
// only BufA is ever legal for RtOpen/RtClose/RtCcOpen/RtCcClose.
type BufSys uint8

const (
	BufA BufSys = iota
	BufB
)

// Descriptor is the decoded form of one 32-bit descriptor word. Bit
// layout: [0:4) Kind, [4] BufSys, [5:16) Length, [16:32) BufferOffset.
type Descriptor struct {
	Kind         Kind
	BufSys       BufSys
	Length       uint16
	BufferOffset uint16
}

// Decode unpacks one descriptor word, the same bit-shift-and-mask
// boundary pkg/controller's register layer uses elsewhere for packed
// hardware fields.
func Decode(word uint32) (Descriptor, error) {
	kind := Kind(word & 0xF)
	if kind > Terminator {
		return Descriptor{}, sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor word has unknown kind")
	}
	d := Descriptor{
		Kind:         kind,
		BufSys:       BufSys((word >> 4) & 0x1),
		Length:       uint16((word >> 5) & 0x7FF),
		BufferOffset: uint16((word >> 16) & 0xFFFF),
	}
	if d.BufSys == BufB {
		return Descriptor{}, sercoserr.New(sercoserr.Hardware, sercoserr.BufferError, "buffer system B is not supported; this core runs single-buffered")
	}
	return d, nil
}

// DecodeAll decodes a table of words, stopping at (and including) the
// first Terminator. Returns an error if no terminator is found within the
// table, since an unterminated list is a hardware programming error.
func DecodeAll(words []uint32) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(words))
	for _, w := range words {
		d, err := Decode(w)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		if d.Kind == Terminator {
			return out, nil
		}
	}
	return nil, sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor table has no terminator")
}

// openClosePairs walks descs and calls fn(open, close) for every matched
// Open/Close pair in the given kind, in list order. Unmatched or
// out-of-order Open/Close pairs are a hardware programming error.
func openClosePairs(descs []Descriptor, openKind, closeKind Kind, fn func(open, close Descriptor) error) error {
	var pending *Descriptor
	for i := range descs {
		d := descs[i]
		switch d.Kind {
		case openKind:
			if pending != nil {
				return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor open without matching close")
			}
			pending = &descs[i]
		case closeKind:
			if pending == nil {
				return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor close without matching open")
			}
			if err := fn(*pending, d); err != nil {
				return err
			}
			pending = nil
		}
	}
	if pending != nil {
		return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor open without matching close")
	}
	return nil
}

// AssembleTX builds one outgoing telegram by walking descs in order and
// copying each RtOpen/RtClose region out of txRAM into out, sequentially
// (the walk order IS the telegram byte order). Returns the number of
// bytes written.
func AssembleTX(descs []Descriptor, txRAM []byte, out []byte) (int, error) {
	cursor := 0
	err := openClosePairs(descs, RtOpen, RtClose, func(open, close Descriptor) error {
		n := int(open.Length)
		if int(open.BufferOffset)+n > len(txRAM) {
			return sercoserr.New(sercoserr.Hardware, sercoserr.BufferError, "TX descriptor region exceeds TX RAM")
		}
		if cursor+n > len(out) {
			return sercoserr.New(sercoserr.Hardware, sercoserr.BufferError, "assembled telegram exceeds destination buffer")
		}
		copy(out[cursor:cursor+n], txRAM[open.BufferOffset:int(open.BufferOffset)+n])
		cursor += n
		return nil
	})
	return cursor, err
}

// ScatterRX walks descs and distributes an incoming telegram's bytes
// across SVC/RX/TX RAM:
//   - RtOpen/RtClose: application data, written to rxRAM only.
//   - PortOpen/PortClose: ring-forwarding pass-through, written to txRAM
//     only, so the next port out retransmits it unchanged.
//   - RtCcOpen/RtCcClose: cross-communication data a slave both consumes
//     locally and forwards, mirrored into both rxRAM and txRAM.
//   - PortCcOpen/PortCcClose: cross-communication forwarding with no
//     local consumption, written to txRAM only.
//   - SvcOpen/SvcClose: service channel payload, written to svcRAM.
//
// Reaching a Terminator stops the walk; the caller is responsible for
// setting the "new data" flag once ScatterRX returns successfully.
func ScatterRX(descs []Descriptor, svcRAM, rxRAM, txRAM []byte, incoming []byte) error {
	cursor := 0
	take := func(d Descriptor) ([]byte, error) {
		n := int(d.Length)
		if cursor+n > len(incoming) {
			return nil, sercoserr.New(sercoserr.Hardware, sercoserr.BufferError, "RX descriptor region exceeds incoming telegram")
		}
		seg := incoming[cursor : cursor+n]
		cursor += n
		return seg, nil
	}
	writeAt := func(dst []byte, offset uint16, seg []byte) error {
		if int(offset)+len(seg) > len(dst) {
			return sercoserr.New(sercoserr.Hardware, sercoserr.BufferError, "RX descriptor destination region exceeds RAM")
		}
		copy(dst[offset:int(offset)+len(seg)], seg)
		return nil
	}

	for i := 0; i < len(descs); i++ {
		switch descs[i].Kind {
		case RtOpen, PortOpen, RtCcOpen, PortCcOpen, SvcOpen:
			open := descs[i]
			i++
			if i >= len(descs) {
				return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "descriptor open without matching close")
			}
			close := descs[i]
			seg, err := take(open)
			if err != nil {
				return err
			}
			switch open.Kind {
			case RtOpen:
				if close.Kind != RtClose {
					return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "RtOpen not followed by RtClose")
				}
				if err := writeAt(rxRAM, open.BufferOffset, seg); err != nil {
					return err
				}
			case PortOpen:
				if close.Kind != PortClose {
					return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "PortOpen not followed by PortClose")
				}
				if err := writeAt(txRAM, open.BufferOffset, seg); err != nil {
					return err
				}
			case RtCcOpen:
				if close.Kind != RtCcClose {
					return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "RtCcOpen not followed by RtCcClose")
				}
				if err := writeAt(rxRAM, open.BufferOffset, seg); err != nil {
					return err
				}
				if err := writeAt(txRAM, open.BufferOffset, seg); err != nil {
					return err
				}
			case PortCcOpen:
				if close.Kind != PortCcClose {
					return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "PortCcOpen not followed by PortCcClose")
				}
				if err := writeAt(txRAM, open.BufferOffset, seg); err != nil {
					return err
				}
			case SvcOpen:
				if close.Kind != SvcClose {
					return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "SvcOpen not followed by SvcClose")
				}
				if err := writeAt(svcRAM, open.BufferOffset, seg); err != nil {
					return err
				}
			}
		case Terminator:
			return nil
		}
	}
	return nil
}
