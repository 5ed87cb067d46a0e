// Package softmaster assembles every other package into the Frame Cycle
// Driver: one SoftMaster instance per controller, advanced one external
// call at a time by CyclePrepare/CycleStart, the same external-wrapper-
// drives-state discipline the teacher's Conn wrapper uses — no
// goroutines, the caller controls timing (spec §4.5, §5).
package softmaster

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"sercos3.io/softmaster/pkg/connection"
	"sercos3.io/softmaster/pkg/controller"
	"sercos3.io/softmaster/pkg/crc32c"
	"sercos3.io/softmaster/pkg/descriptor"
	"sercos3.io/softmaster/pkg/driver"
	"sercos3.io/softmaster/pkg/exporter"
	"sercos3.io/softmaster/pkg/sercoserr"
	"sercos3.io/softmaster/pkg/timing"
	"sercos3.io/softmaster/pkg/ucc"
	"sercos3.io/softmaster/pkg/watchdog"
)

// Phase is the Sercos III communication phase (spec §4.5).
type Phase uint8

const (
	CP0 Phase = iota
	CP1
	CP2
	CP3
	CP4
)

// sercosEtherTypeHi/Lo is the EtherType Sercos III telegrams carry: 0x88CD.
const (
	sercosEtherTypeHi = 0x88
	sercosEtherTypeLo = 0xCD
)

// sercosTelegramType distinguishes MDT from AT in the dynamic header's
// first byte; the second dynamic byte carries the current phase.
const (
	sercosTelegramTypeMDT byte = 0x00
	sercosTelegramTypeAT  byte = 0x01
)

// Config is everything needed to stand up one SoftMaster instance.
type Config struct {
	MACAddress  [6]byte
	Catalog     *connection.Catalog
	PackConfig  connection.PackConfig
	TscycNS     int64
	TimingPlan  timing.Config
	WatchdogReload uint32
	WatchdogMode   watchdog.AlarmMode
	UCCTXCapacity  int
	UCCRXCapacity  int
	Driver         driver.Driver
}

// SoftMaster is one emulated controller instance: memory, the packed
// telegram layout, the timing plan, and the stateful pieces (watchdog,
// UC channel rings) that advance one cycle at a time.
type SoftMaster struct {
	InstanceID xid.ID
	log        *logrus.Entry

	mem    *controller.Memory
	cat    *connection.Catalog
	bitmap *connection.Bitmap
	mdtLayout []connection.TelegramLayout
	atLayout  []connection.TelegramLayout

	// txOffset maps a connection's Index to its dedicated region in
	// TXRAM. Telegram-relative Assigned.ByteOffset values from different
	// telegrams routinely collide (each telegram's packer starts
	// counting from 0), so TXRAM storage needs its own disjoint
	// allocation, separate from the wire layout.
	txOffset map[uint16]int

	// cdevOffset/sdevOffset map a slave's Index to its dedicated C-DEV/
	// S-DEV region in TXRAM, same disjoint-allocation reasoning as
	// txOffset.
	cdevOffset map[uint16]int
	sdevOffset map[uint16]int

	// txScratch holds one cycle's zero-gated view of TXRAM: a full copy
	// with non-producing connections' payload regions blanked out, so
	// the Descriptor Engine's strictly sequential AssembleTX walk can
	// run over it without the gaps a "skip this one" approach would
	// leave in the destination telegram.
	txScratch []byte

	// mdtDescs/atDescs are the Descriptor Engine's TX tables, one list
	// per telegram, precomputed once at New time since the packed
	// layout never changes for the catalog's lifetime.
	mdtDescs [][]descriptor.Descriptor
	atDescs  [][]descriptor.Descriptor

	plan *timing.Plan

	sealers []*crc32c.Sealer // one per telegram, static headers cached at init

	wd      *watchdog.Watchdog
	ucTX    *ucc.Ring
	ucRX    *ucc.Ring

	drv driver.Driver

	Phase      Phase
	CycleCount uint64
	TSref      uint32
	TscycNS    int64
}

// New builds a SoftMaster: packs the connection catalog, builds the
// producer-cycle bitmap, plans cycle timing, and allocates controller
// memory. The returned instance starts in CP0.
func New(cfg Config) (*SoftMaster, error) {
	mdtLayout, err := connection.PackMDT(cfg.Catalog, cfg.PackConfig)
	if err != nil {
		return nil, err
	}
	atLayout, err := connection.PackAT(cfg.Catalog, cfg.PackConfig)
	if err != nil {
		return nil, err
	}
	if err := connection.Check(cfg.Catalog, connection.PlausibilityConfig{TscycNS: cfg.TscycNS}); err != nil {
		return nil, err
	}
	bitmap, err := connection.BuildBitmap(cfg.Catalog, cfg.TscycNS)
	if err != nil {
		return nil, err
	}

	timingCfg := cfg.TimingPlan
	timingCfg.MDTBytes = make([]int, len(mdtLayout))
	for i, l := range mdtLayout {
		timingCfg.MDTBytes[i] = l.Tel
	}
	timingCfg.ATBytes = make([]int, len(atLayout))
	for i, l := range atLayout {
		timingCfg.ATBytes[i] = l.Tel
	}
	plan, warn, err := timing.PlanCP34(timingCfg)
	if err != nil {
		return nil, err
	}

	mem := controller.NewMemory()
	mem.SoftReset(cfg.MACAddress)

	txOffset := make(map[uint16]int, len(cfg.Catalog.Connections))
	cursor := 0
	for _, c := range cfg.Catalog.Connections {
		if cursor+c.PayloadLen > len(mem.TXRAM) {
			return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "connection payloads exceed TXRAM capacity")
		}
		txOffset[c.Index] = cursor
		cursor += c.PayloadLen
	}

	cdevOffset := make(map[uint16]int, len(cfg.Catalog.Slaves))
	for _, s := range cfg.Catalog.Slaves {
		if cursor+connection.CDEVLen > len(mem.TXRAM) {
			return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "C-DEV slots exceed TXRAM capacity")
		}
		cdevOffset[s.Index] = cursor
		cursor += connection.CDEVLen
	}
	sdevOffset := make(map[uint16]int, len(cfg.Catalog.Slaves))
	for _, s := range cfg.Catalog.Slaves {
		if cursor+connection.SDEVLen > len(mem.TXRAM) {
			return nil, sercoserr.New(sercoserr.State, sercoserr.SystemError, "S-DEV slots exceed TXRAM capacity")
		}
		sdevOffset[s.Index] = cursor
		cursor += connection.SDEVLen
	}

	mdtDescs, atDescs := buildTXDescriptorTables(cfg.Catalog, len(mdtLayout), len(atLayout), cdevOffset, sdevOffset, txOffset)

	sealers := make([]*crc32c.Sealer, len(mdtLayout)+len(atLayout))
	for i := range sealers {
		header := make([]byte, crc32c.StaticHeaderLen)
		for j := 0; j < 6; j++ {
			header[j] = 0xFF // broadcast destination MAC
		}
		copy(header[6:12], cfg.MACAddress[:])
		header[12], header[13] = sercosEtherTypeHi, sercosEtherTypeLo
		sealers[i] = crc32c.NewSealer(header)
	}

	id := xid.New()
	sm := &SoftMaster{
		InstanceID: id,
		log:        logrus.WithField("instance", id.String()),
		mem:        mem,
		cat:        cfg.Catalog,
		bitmap:     bitmap,
		mdtLayout:  mdtLayout,
		atLayout:   atLayout,
		txOffset:   txOffset,
		cdevOffset: cdevOffset,
		sdevOffset: sdevOffset,
		txScratch:  make([]byte, len(mem.TXRAM)),
		mdtDescs:   mdtDescs,
		atDescs:    atDescs,
		plan:       plan,
		sealers:    sealers,
		wd:         watchdog.New(cfg.WatchdogReload, cfg.WatchdogMode),
		ucTX:       ucc.NewRing(cfg.UCCTXCapacity),
		ucRX:       ucc.NewRing(cfg.UCCRXCapacity),
		drv:        cfg.Driver,
		Phase:      CP0,
		TscycNS:    cfg.TscycNS,
	}
	if warn != nil {
		sm.log.WithField("warning", warn.String()).Warn("cycle timing plan issued a warning")
	}
	return sm, nil
}

// producesThisCycle reports whether conn should produce data this
// cycle, per the TSref/producer-cycle bitmap law.
func (s *SoftMaster) producesThisCycle(conn *connection.Connection) bool {
	return s.bitmap.ProducesOn(conn.ProducerCycleNS, s.TscycNS, s.TSref)
}

// CyclePrepare assembles this cycle's outgoing MDT and AT telegrams from
// TXRAM: refreshing C-DEV, zero-gating payloads for connections not
// scheduled to produce this TSref or while the watchdog is in send-empty
// mode, copying every region into place via the Descriptor Engine, writing
// MDT0's extended-function field, and sealing each telegram's CRC. It
// does not transmit — that's CycleStart's job (spec §4.5's prepare/start
// split, §5 concurrency model).
func (s *SoftMaster) CyclePrepare() ([][]byte, error) {
	s.prepareCycleRegisters()
	s.buildDeviceControl()

	copy(s.txScratch, s.mem.TXRAM)
	zeroOut := s.wd.ZeroPayloads()
	for ci := range s.cat.Connections {
		c := &s.cat.Connections[ci]
		if !zeroOut && s.producesThisCycle(c) {
			continue
		}
		off := s.txOffset[c.Index]
		for b := off; b < off+c.PayloadLen; b++ {
			s.txScratch[b] = 0
		}
	}

	frames := make([][]byte, 0, len(s.mdtLayout)+len(s.atLayout))

	build := func(layouts []connection.TelegramLayout, descs [][]descriptor.Descriptor, sealerOffset int, telType byte) error {
		for i, l := range layouts {
			frame := make([]byte, crc32c.HeaderLen+l.Tel+4)
			body := frame[crc32c.HeaderLen : crc32c.HeaderLen+l.Tel]

			rtdStart := l.HP + l.EF + l.SVC
			if _, err := descriptor.AssembleTX(descs[i], s.txScratch, body[rtdStart:l.Tel]); err != nil {
				return err
			}
			if telType == sercosTelegramTypeMDT && i == 0 {
				ef := s.buildExtendedFunction()
				copy(body[l.HP:l.HP+l.EF], ef[:])
			}

			dynamic := [2]byte{telType, byte(s.mem.Registers.PHASECR & 0xFF)}
			copy(frame[crc32c.StaticHeaderLen:crc32c.HeaderLen], dynamic[:])
			crc := s.sealers[sealerOffset+i].Seal(dynamic[:])
			copy(frame[len(frame)-4:], crc[:])

			frames = append(frames, frame)
		}
		return nil
	}

	if err := build(s.mdtLayout, s.mdtDescs, 0, sercosTelegramTypeMDT); err != nil {
		return nil, err
	}
	if err := build(s.atLayout, s.atDescs, len(s.mdtLayout), sercosTelegramTypeAT); err != nil {
		return nil, err
	}
	return frames, nil
}

// CycleStart transmits the prepared frames (unless the watchdog alarm
// suppresses TX entirely), drains the UC channel within this cycle's
// [t6,t7] budget, and advances the cycle/TSref counters. The watchdog
// itself already ticked during CyclePrepare (spec §4.5 Prepare step 2).
func (s *SoftMaster) CycleStart(frames [][]byte) error {
	if !s.wd.SuppressTX() {
		for _, f := range frames {
			if err := s.drv.TXPacket(f); err != nil {
				return fmt.Errorf("softmaster: tx: %w", err)
			}
			s.mem.Registers.Counters.IPFTXOK++
		}
	}

	budget := ucc.NewBudget(s.plan.T6NS, s.plan.T7NS)
	ucc.DrainTX(s.ucTX, &budget, func(p ucc.Packet) {
		if err := s.drv.TXUCCPacket(p.Data); err != nil {
			s.mem.Registers.Counters.IPDISCOLB++
		}
	})

	s.advanceCounters()
	return nil
}

// advanceCounters moves the cycle/subcycle counters forward and rolls
// the TSref selector within [0, TSrefMax] per the producer-cycle bitmap.
func (s *SoftMaster) advanceCounters() {
	s.CycleCount++
	if s.bitmap != nil {
		s.TSref = (s.TSref + 1) % (s.bitmap.TSrefMax + 1)
	}
}

// HandleRX checks one received frame's length, verifies its CRC, and
// scatters its contents via the descriptor table into RXRAM/TXRAM/SVCRAM.
// It does not inspect the Sercos type field or update TGSR.
func (s *SoftMaster) HandleRX(frame []byte, descs []descriptor.Descriptor) error {
	if len(frame) < crc32c.HeaderLen+4 {
		s.mem.Registers.Counters.IPALGNERR++
		return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "received frame shorter than header+CRC")
	}
	var crcField [4]byte
	copy(crcField[:], frame[len(frame)-4:])
	if !crc32c.Verify(frame[:crc32c.HeaderLen], crcField) {
		s.mem.Registers.Counters.IPFCSERR++
		return sercoserr.New(sercoserr.Hardware, sercoserr.SystemError, "frame CRC mismatch")
	}

	body := frame[crc32c.HeaderLen : len(frame)-4]
	if err := descriptor.ScatterRX(descs, s.mem.SVCRAM, s.mem.RXRAM, s.mem.TXRAM, body); err != nil {
		return err
	}
	s.mem.Registers.Counters.IPFRXOK++
	return nil
}

// ReceiveUCC drains one UC channel frame off the driver into the RX
// ring, discarding on overflow (tracked via the ring's own counter and
// mirrored into IPDISRXB).
func (s *SoftMaster) ReceiveUCC() error {
	frame, ok, err := s.drv.RXUCCPacket()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	before := s.ucRX.Discards
	s.ucRX.Put(ucc.Packet{Data: frame})
	if s.ucRX.Discards > before {
		s.mem.Registers.Counters.IPDISRXB++
	}
	return nil
}

// QueueUCC enqueues one application-layer UC channel frame for
// transmission in a future cycle's budget, discarding on overflow
// (tracked via the ring's own counter and mirrored into IPDISCOLB).
func (s *SoftMaster) QueueUCC(frame []byte) {
	before := s.ucTX.Discards
	s.ucTX.Put(ucc.Packet{Data: frame})
	if s.ucTX.Discards > before {
		s.mem.Registers.Counters.IPDISCOLB++
	}
}

// Memory exposes the controller's memory-mapped view for direct register
// and RAM access by the application layer.
func (s *SoftMaster) Memory() *controller.Memory { return s.mem }

// WriteTXPayload copies data into a connection's dedicated TXRAM region,
// ready to be placed into the next prepared cycle's wire frame. data must
// be exactly the connection's configured PayloadLen.
func (s *SoftMaster) WriteTXPayload(connIndex uint16, data []byte) error {
	off, ok := s.txOffset[connIndex]
	if !ok {
		return sercoserr.New(sercoserr.Configuration, sercoserr.WrongConnectionIndex, "no such connection index")
	}
	for i := range s.cat.Connections {
		c := &s.cat.Connections[i]
		if c.Index == connIndex && len(data) != c.PayloadLen {
			return sercoserr.New(sercoserr.State, sercoserr.SystemError, "payload length differs from connection's PayloadLen")
		}
	}
	copy(s.mem.TXRAM[off:off+len(data)], data)
	return nil
}

// Snapshot implements exporter.Source: a point-in-time copy of the
// register and counter state, safe for the collector to read without
// racing the cycle loop (the caller must still serialize CycleStart and
// Snapshot calls, per the same no-goroutines discipline as the rest of
// SoftMaster).
func (s *SoftMaster) Snapshot() exporter.Snapshot {
	return exporter.Snapshot{
		Registers: s.mem.Registers,
		Counters:  s.mem.Registers.Counters,
	}
}

// FeedWatchdog arms (or retriggers) the hardware watchdog for this cycle.
// The application layer calls this once per cycle to prove liveness;
// skipping it lets the countdown run out and the configured alarm mode
// take effect (spec §4.6).
func (s *SoftMaster) FeedWatchdog() {
	s.wd.WriteWDCSR(watchdog.ArmPattern)
}

// DisarmWatchdog stops the countdown entirely.
func (s *SoftMaster) DisarmWatchdog() {
	s.wd.WriteWDCSR(watchdog.DisablePattern)
}
