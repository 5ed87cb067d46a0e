package softmaster

import (
	"sort"

	"sercos3.io/softmaster/pkg/connection"
	"sercos3.io/softmaster/pkg/descriptor"
)

// txRegion is one TXRAM-backed span that lands somewhere in a telegram's
// RTD span: a per-slave C-DEV/S-DEV slot or a connection's payload.
type txRegion struct {
	telegramNo int
	byteOffset int
	bufOffset  int
	length     int
}

// buildTXDescriptorTables walks the packed catalog once (at New time,
// since the layout is fixed for the catalog's lifetime) and produces one
// descriptor.Descriptor list per MDT telegram and per AT telegram, each
// ready to hand to descriptor.AssembleTX. Region order within a telegram
// follows ByteOffset ascending, which is also the order the packer placed
// them in — the Descriptor Engine only works at all because of that
// invariant (spec §4.4: "the walk order IS the telegram byte order").
func buildTXDescriptorTables(cat *connection.Catalog, mdtTel, atTel int, cdevOffset, sdevOffset, txOffset map[uint16]int) ([][]descriptor.Descriptor, [][]descriptor.Descriptor) {
	var mdtRegions, atRegions []txRegion

	for i := range cat.Slaves {
		s := &cat.Slaves[i]
		mdtRegions = append(mdtRegions, txRegion{
			telegramNo: s.Offsets.CDEV.TelegramNo,
			byteOffset: s.Offsets.CDEV.ByteOffset,
			bufOffset:  cdevOffset[s.Index],
			length:     connection.CDEVLen,
		})
		atRegions = append(atRegions, txRegion{
			telegramNo: s.Offsets.SDEV.TelegramNo,
			byteOffset: s.Offsets.SDEV.ByteOffset,
			bufOffset:  sdevOffset[s.Index],
			length:     connection.SDEVLen,
		})
	}
	for ci := range cat.Connections {
		c := &cat.Connections[ci]
		r := txRegion{
			telegramNo: c.Assigned.TelegramNo,
			byteOffset: c.Assigned.ByteOffset,
			bufOffset:  txOffset[c.Index],
			length:     c.PayloadLen,
		}
		if c.Direction == connection.MDT {
			mdtRegions = append(mdtRegions, r)
		} else {
			atRegions = append(atRegions, r)
		}
	}

	return regionsToDescriptorTables(mdtRegions, mdtTel), regionsToDescriptorTables(atRegions, atTel)
}

// regionsToDescriptorTables groups regions by telegram number, sorts each
// group by ByteOffset, and converts every region into an RtOpen/RtClose
// descriptor pair.
func regionsToDescriptorTables(regions []txRegion, telCount int) [][]descriptor.Descriptor {
	byTel := make([][]txRegion, telCount)
	for _, r := range regions {
		byTel[r.telegramNo] = append(byTel[r.telegramNo], r)
	}

	tables := make([][]descriptor.Descriptor, telCount)
	for i, rs := range byTel {
		sort.Slice(rs, func(a, b int) bool { return rs[a].byteOffset < rs[b].byteOffset })
		descs := make([]descriptor.Descriptor, 0, len(rs)*2)
		for _, r := range rs {
			descs = append(descs,
				descriptor.Descriptor{Kind: descriptor.RtOpen, Length: uint16(r.length), BufferOffset: uint16(r.bufOffset)},
				descriptor.Descriptor{Kind: descriptor.RtClose},
			)
		}
		tables[i] = descs
	}
	return tables
}

// buildDeviceControl writes this cycle's C-DEV content for every slave
// directly into its TXRAM backing: phase in byte 0, the low two bytes of
// TSref in bytes 2:4. Only the fields the core itself needs to drive are
// modeled — the Sercos device-control word defines more bits than this
// emulation exercises.
func (s *SoftMaster) buildDeviceControl() {
	for i := range s.cat.Slaves {
		idx := s.cat.Slaves[i].Index
		off, ok := s.cdevOffset[idx]
		if !ok {
			continue
		}
		word := s.mem.TXRAM[off : off+connection.CDEVLen]
		word[0] = byte(s.Phase)
		word[1] = 0
		word[2] = byte(s.TSref >> 8)
		word[3] = byte(s.TSref)
	}
}

// efFragSecHi..efFragNsLo name the four quarters of the multiplex cycle:
// spec §4.5 step 9 sends one 16-bit half of the system-time registers
// per cycle, cycling sec.hi, sec.lo, ns.hi, ns.lo.
const (
	efFragSecHi = 0
	efFragSecLo = 1
	efFragNsHi  = 2
	efFragNsLo  = 3
)

// buildExtendedFunction returns MDT0's EF field content: the TSref
// counter, a toggle bit plus the fragment selector, and the four-cycle
// multiplexed 16-bit system-time fragment selected by CycleCount%4.
func (s *SoftMaster) buildExtendedFunction() [connection.EFLenDefault]byte {
	var ef [connection.EFLenDefault]byte
	ef[0] = byte(s.TSref)

	var toggle byte
	if s.CycleCount%2 == 1 {
		toggle = 1
	}
	frag := byte(s.CycleCount % 4)
	ef[1] = toggle | (frag << 1)

	sec := s.mem.Registers.STSEC
	ns := s.mem.Registers.STNS
	var half uint16
	switch frag {
	case efFragSecHi:
		half = uint16(sec >> 16)
	case efFragSecLo:
		half = uint16(sec)
	case efFragNsHi:
		half = uint16(ns >> 16)
	case efFragNsLo:
		half = uint16(ns)
	}
	ef[2] = byte(half >> 8)
	ef[3] = byte(half)
	return ef
}
