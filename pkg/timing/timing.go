// Package timing implements the cycle-timing planner: the IFG formula,
// event offset/delay, the t1/t6/t7 windows, the three timing-method
// telegram placements, and the three planner entry points used across
// CP0, CP1/CP2 and CP3/CP4 (spec §4.1).
package timing

import (
	"math"

	"sercos3.io/softmaster/pkg/event"
	"sercos3.io/softmaster/pkg/sercoserr"
)

// Method is the telegram/UCC placement strategy within one cycle.
type Method uint8

const (
	MDTAtUCC Method = iota // MDT, AT, then the UCC window
	MDTUccAt                // MDT, UCC window, then AT
	MDTUccAtEnd             // MDT, AT, then a UCC window squeezed to the cycle tail
)

// defaultIFGBytes is the fixed gap used whenever any slave lacks the
// dynamic-IFG capability (spec §4.1 "IFG formula").
const defaultIFGBytes = 37

// ComputeIFG applies the IFG formula (ceil(27*maxSlaveJitterNS*sqrt(2N)/640000)+13),
// clamped to defaultIFGBytes when allSlavesDynamicIFG is false. A non-nil
// warning means the clamp was applied.
func ComputeIFG(maxSlaveJitterNS int64, slaveCount int, allSlavesDynamicIFG bool) (int, *sercoserr.Warning) {
	if slaveCount <= 0 {
		return defaultIFGBytes, nil
	}
	n := float64(slaveCount)
	j := float64(maxSlaveJitterNS)
	computed := int(math.Ceil(27*j*math.Sqrt(2*n)/640000)) + 13

	if !allSlavesDynamicIFG {
		if computed == defaultIFGBytes {
			return defaultIFGBytes, nil
		}
		return defaultIFGBytes, sercoserr.NewWarning(sercoserr.WarningIfgMismatch,
			"not every slave advertises the dynamic-IFG capability; using the fixed 37-byte gap")
	}
	return computed, nil
}

// Config is every input the planner needs to build a cycle's timing plan.
type Config struct {
	TscycNS              int64
	Method               Method
	TimingSlaveMode      bool  // master itself synchronizes to an upstream time source
	MasterJitterNS       int64
	MaxSlaveJitterNS     int64
	SlaveCount           int
	AllSlavesDynamicIFG  bool
	RingDelayNS          int64 // also used as MstDelay (MST-to-ring-return propagation)
	FeedbackProcessingNS int64
	UCCWidthNS           int64 // requested UCC window width; may shrink
	MTU                  int   // configured Ethernet MTU in bytes
	MDTBytes             []int // length of every MDT telegram placed this cycle
	ATBytes              []int // length of every AT telegram placed this cycle
}

// Plan is the planner's output: every derived timing quantity plus the
// timer/port event tables ready for event.EmitToController.
type Plan struct {
	IFGBytes       int
	EventOffsetNS  int64
	EventDelayNS   int64
	MaxEventTimeNS int64
	SyncJitterNS   int64
	T1NS           int64
	T6NS           int64
	T7NS           int64
	MTU            int
	TimerEvents    []event.Event
	PortEvents     []event.Event
}

// fixedCP0 timing constants used before any slave is projected: no
// jitter data exists yet, so the conservative fixed IFG is used and the
// cycle carries only MDT/AT with no UCC window.
func fixedCP0Config(tscycNS int64) Config {
	return Config{
		TscycNS:             tscycNS,
		Method:              MDTAtUCC,
		AllSlavesDynamicIFG: false,
		MDTBytes:            []int{64},
		ATBytes:             []int{64},
	}
}

// PlanCP0 builds the fixed timing plan used while no slave is projected
// yet (spec §4.5 CP0): a minimal MDT+AT cycle with the default IFG and no
// UCC window.
func PlanCP0(tscycNS int64) (*Plan, *sercoserr.Warning, error) {
	return Plan_(fixedCP0Config(tscycNS))
}

// PlanCP12 derives rTimingCP12: the same computation as the full planner,
// but driven from the slave jitter/feedback figures gathered during
// CP1/CP2 identification, before connections are packed (so MDTBytes/
// ATBytes reflect only the fixed HP/SVC/C-DEV/S-DEV overhead, no
// payload).
func PlanCP12(cfg Config) (*Plan, *sercoserr.Warning, error) {
	return Plan_(cfg)
}

// PlanCP34 is the full planner entry point used once the connection
// catalog is packed: cfg.MDTBytes/cfg.ATBytes hold the actual packed
// telegram lengths (spec §4.1, §4.3).
func PlanCP34(cfg Config) (*Plan, *sercoserr.Warning, error) {
	return Plan_(cfg)
}

// telegramSetDurationNS is the wire time of a set of telegrams, each
// preceded by one IFG gap (spec §4.1).
func telegramSetDurationNS(bytesList []int, ifgBytes int) int64 {
	total := 0
	for _, b := range bytesList {
		total += b
	}
	total += ifgBytes * len(bytesList)
	return byteTimeNS(int64(total))
}

func sumBytes(bytesList []int) int {
	total := 0
	for _, b := range bytesList {
		total += b
	}
	return total
}

// Plan_ is the shared computation behind all three planner entry points,
// implementing the event_offset/delay/sync_jitter/t1 formulas of spec
// §4.1:
//
//	event_offset = JitterMaster/2 in timing-slave mode, else 0.
//	delay        = event_offset + MstDelay.
//	max_event_time = Tscyc - event_offset - delay.
//	sync_jitter  = (JitterMaster + IFG*ByteTime) / 2.
//	t1 bounded below by durMDTs + sync_jitter, above by
//	  Tscyc - durATs - ring_delay; its exact value depends on where the
//	  timing method places AT relative to the UCC window.
func Plan_(cfg Config) (*Plan, *sercoserr.Warning, error) {
	ifg, warn := ComputeIFG(cfg.MaxSlaveJitterNS, cfg.SlaveCount, cfg.AllSlavesDynamicIFG)

	var eventOffsetNS int64
	if cfg.TimingSlaveMode {
		eventOffsetNS = cfg.MasterJitterNS / 2
	}
	// RingDelayNS doubles as MstDelay: the propagation time from the end
	// of MST transmission to its return around the ring/line.
	eventDelayNS := eventOffsetNS + cfg.RingDelayNS
	maxEventTimeNS := cfg.TscycNS - eventOffsetNS - eventDelayNS
	syncJitterNS := (cfg.MasterJitterNS + int64(ifg)*8) / 2

	durMDTNS := telegramSetDurationNS(cfg.MDTBytes, ifg)
	durATNS := telegramSetDurationNS(cfg.ATBytes, ifg)
	telegramTransmitNS := durMDTNS + durATNS
	totalTelegramBytes := sumBytes(cfg.MDTBytes) + sumBytes(cfg.ATBytes)

	uccWidth := cfg.UCCWidthNS
	var mtuWarn *sercoserr.Warning
	if uccWidth > 0 {
		available := cfg.TscycNS - telegramTransmitNS - syncJitterNS
		if available < 0 {
			available = 0
		}
		if uccWidth > available {
			uccWidth = available
			mtuWarn = sercoserr.NewWarning(sercoserr.WarnRecalculatedMTU,
				"requested UC channel width does not fit; shrunk to the remaining cycle budget")
		}
	}
	if warn == nil {
		warn = mtuWarn
	}

	// t6 (UCC open), t7 (UCC close), t1 (AT start) per timing method
	// (spec §4.1/§4.5): MDT_AT_UCC and MDT_UCC_AT_END place AT directly
	// after MDT, so t1 sits at its general lower bound; MDT_UCC_AT opens
	// the UCC window between MDT and AT, so AT start trails the UCC
	// window's close instead.
	var t6, t7, t1 int64
	switch cfg.Method {
	case MDTUccAt:
		t6 = durMDTNS
		t7 = t6 + uccWidth
		t1 = t7 + syncJitterNS + cfg.RingDelayNS
	case MDTUccAtEnd:
		t7 = cfg.TscycNS - syncJitterNS
		t6 = t7 - uccWidth
		if t6 < telegramTransmitNS {
			t6 = telegramTransmitNS
		}
		t1 = durMDTNS + syncJitterNS
	default: // MDTAtUCC
		t6 = telegramTransmitNS
		t7 = cfg.TscycNS - syncJitterNS
		t1 = durMDTNS + syncJitterNS
	}
	if t6 < 0 {
		t6 = 0
	}
	if t7 < t6 {
		t7 = t6
	}

	t1Min := durMDTNS + syncJitterNS
	t1Max := cfg.TscycNS - durATNS - cfg.RingDelayNS
	if t1 < t1Min {
		t1 = t1Min
	}
	if t1Max > t1Min && t1 > t1Max {
		t1 = t1Max
	}
	if t1 < 0 {
		t1 = 0
	}

	if cfg.TscycNS > 0 && totalTelegramBytes > 0 {
		if telegramTransmitNS > cfg.TscycNS {
			return nil, nil, sercoserr.New(sercoserr.Configuration, sercoserr.TelLenGtTscyc,
				"total telegram transmit time exceeds the communication cycle time")
		}
	}

	timerEvents, err := buildTimerEvents(cfg, t6, t7)
	if err != nil {
		return nil, nil, err
	}
	portEvents, err := buildPortEvents(cfg, t6, t7)
	if err != nil {
		return nil, nil, err
	}

	return &Plan{
		IFGBytes:       ifg,
		EventOffsetNS:  eventOffsetNS,
		EventDelayNS:   eventDelayNS,
		MaxEventTimeNS: maxEventTimeNS,
		SyncJitterNS:   syncJitterNS,
		T1NS:           t1,
		T6NS:           t6,
		T7NS:           t7,
		MTU:            cfg.MTU,
		TimerEvents:    timerEvents,
		PortEvents:     portEvents,
	}, warn, nil
}

func buildTimerEvents(cfg Config, t6, t7 int64) ([]event.Event, error) {
	evs := []event.Event{
		{TimeNS: 0, Type: event.MDTStart},
		{TimeNS: t6 / 2, Type: event.ATStart},
	}
	if cfg.UCCWidthNS > 0 {
		evs = append(evs,
			event.Event{TimeNS: t6, Type: event.UCCOpen},
			event.Event{TimeNS: t7 - 1, Type: event.UCCLast},
			event.Event{TimeNS: t7, Type: event.UCCClose},
		)
	}
	evs = append(evs,
		event.Event{TimeNS: cfg.TscycNS, Type: event.Reload},
		event.Event{TimeNS: cfg.TscycNS, Type: event.ReloadValue},
	)
	return event.SortTimer(evs)
}

func buildPortEvents(cfg Config, t6, t7 int64) ([]event.Event, error) {
	evs := []event.Event{
		{TimeNS: 0, Type: event.ATWindowOpen},
		{TimeNS: t6 / 2, Type: event.ATWindowClose},
	}
	if cfg.UCCWidthNS > 0 {
		evs = append(evs,
			event.Event{TimeNS: t6, Type: event.UCCRxOpen},
			event.Event{TimeNS: t7, Type: event.UCCRxClose},
		)
	}
	evs = append(evs,
		event.Event{TimeNS: cfg.TscycNS, Type: event.MSTWindowOpen},
		event.Event{TimeNS: cfg.TscycNS, Type: event.MSTWindowClose},
		event.Event{TimeNS: cfg.TscycNS, Type: event.ReloadValue},
	)
	return event.SortPort(evs)
}

// byteTimeNS converts a byte count to wire time at 100 Mbit/s (8ns/byte).
func byteTimeNS(bytes int64) int64 {
	return bytes * 8
}

