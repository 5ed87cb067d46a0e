// Package crc32c seals and verifies the 4-byte CRC32 that follows the
// 16-byte Ethernet+Sercos header of every frame (spec §6). Telegrams are
// resent every cycle with only 2 header bytes (Sercos type, phase)
// changing; the 14 static bytes (destination MAC, source MAC, EtherType)
// are CRC'd once per telegram slot and cached, so steady-state sealing is
// a single crc32.Update over 2 bytes instead of 16.
package crc32c

import "hash/crc32"

// table is the standard Ethernet (IEEE 802.3) CRC32 polynomial table,
// precomputed once at package init via the stdlib generator — there is no
// reason to hand-roll what hash/crc32 already builds correctly.
var table = crc32.MakeTable(crc32.IEEE)

// StaticHeaderLen is the portion of the 16-byte header that never changes
// across cycles for a given telegram slot: 6 (destination MAC) + 6
// (source MAC) + 2 (EtherType).
const StaticHeaderLen = 14

// DynamicHeaderLen is the remaining 2 bytes that vary cycle to cycle:
// Sercos type byte and phase byte.
const DynamicHeaderLen = 2

// HeaderLen is the full 16-byte span the CRC covers.
const HeaderLen = StaticHeaderLen + DynamicHeaderLen

// Sealer caches the base CRC of a telegram slot's static header so that
// sealing a frame at send time only has to fold in the 2 dynamic bytes.
type Sealer struct {
	base uint32
}

// NewSealer computes and caches the base CRC over the 14 static header
// bytes. staticHeader must be exactly StaticHeaderLen bytes.
func NewSealer(staticHeader []byte) *Sealer {
	s := &Sealer{}
	s.SetStaticHeader(staticHeader)
	return s
}

// SetStaticHeader recomputes the cached base CRC, e.g. after a
// reconfiguration that changes the destination or source MAC.
func (s *Sealer) SetStaticHeader(staticHeader []byte) {
	if len(staticHeader) != StaticHeaderLen {
		panic("crc32c: static header must be 14 bytes")
	}
	s.base = crc32.Checksum(staticHeader, table)
}

// Seal folds the 2 dynamic header bytes into the cached base CRC and
// returns the 4-byte little-endian CRC32 field as it goes on the wire.
func (s *Sealer) Seal(dynamic []byte) [4]byte {
	if len(dynamic) != DynamicHeaderLen {
		panic("crc32c: dynamic header must be 2 bytes")
	}
	full := crc32.Update(s.base, table, dynamic)
	return littleEndian(full)
}

// Verify computes the CRC32 of header (which must be HeaderLen bytes)
// from scratch and reports whether it matches the given on-wire CRC
// field. Used on the RX path, where the incoming frame's static header
// portion cannot be assumed to match any cached base.
func Verify(header []byte, crcField [4]byte) bool {
	if len(header) != HeaderLen {
		return false
	}
	want := crc32.Checksum(header, table)
	return littleEndian(want) == crcField
}

func littleEndian(v uint32) [4]byte {
	return [4]byte{
		byte(v),
		byte(v >> 8),
		byte(v >> 16),
		byte(v >> 24),
	}
}
