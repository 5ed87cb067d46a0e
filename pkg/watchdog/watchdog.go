// Package watchdog implements the hardware watchdog's WDCSR magic-pattern
// state machine: arming and retriggering on the 0x88CD pattern, disabling
// on its complement, counting down, and latching an alarm once the count
// expires (spec §4.6).
package watchdog

// Magic patterns written to WDCSR to arm/retrigger or disable the
// watchdog. Any other value written is ignored (not a valid command).
const (
	ArmPattern     uint32 = 0x88CD
	DisablePattern uint32 = ^ArmPattern & 0xFFFF
)

// AlarmMode selects what happens to outgoing telegrams once the alarm
// latches.
type AlarmMode uint8

const (
	AlarmModeNone       AlarmMode = iota
	AlarmModeDisableTx            // suppress transmission entirely
	AlarmModeSendEmpty            // keep transmitting, zeroing payloads
)

// Watchdog is the countdown state machine. Armed starts false; writing
// ArmPattern to WDCSR for the first time arms it at ReloadValue and every
// subsequent ArmPattern write within a cycle retriggers (resets) the
// countdown without re-arming semantics changing.
type Watchdog struct {
	Mode        AlarmMode
	ReloadValue uint32
	Count       uint32
	Armed       bool
	Alarm       bool
}

// New builds a disarmed watchdog with the given countdown reload value.
func New(reloadValue uint32, mode AlarmMode) *Watchdog {
	return &Watchdog{Mode: mode, ReloadValue: reloadValue}
}

// WriteWDCSR processes one write to the WDCSR register. Multiple writes
// within the same cycle are idempotent: a repeated ArmPattern write just
// re-sets the countdown to ReloadValue, the same effect as a single
// write, rather than accumulating any state across the repeats.
func (w *Watchdog) WriteWDCSR(value uint32) {
	switch value & 0xFFFF {
	case ArmPattern:
		w.Armed = true
		w.Alarm = false
		w.Count = w.ReloadValue
	case DisablePattern:
		w.Armed = false
		w.Alarm = false
		w.Count = 0
	}
}

// Tick advances the countdown by one cycle. If armed and the countdown
// is already zero when Tick runs, the alarm latches (so the alarm comes
// one tick after Count reaches zero); a WriteWDCSR(ArmPattern) call earlier
// in the same cycle already reset Count, so retriggering prevents this.
func (w *Watchdog) Tick() {
	if !w.Armed || w.Alarm {
		return
	}
	if w.Count == 0 {
		w.Alarm = true
		return
	}
	w.Count--
}

// SuppressTX reports whether the current alarm state should stop
// transmission entirely.
func (w *Watchdog) SuppressTX() bool {
	return w.Alarm && w.Mode == AlarmModeDisableTx
}

// ZeroPayloads reports whether the current alarm state should zero
// outgoing payloads while still transmitting.
func (w *Watchdog) ZeroPayloads() bool {
	return w.Alarm && w.Mode == AlarmModeSendEmpty
}
