package softmaster

// nsPerSecond is the wrap point for the STNS/STSEC system-time pair.
const nsPerSecond = 1_000_000_000

// advanceSystemTime moves STNS forward by one Tscyc, carrying into STSEC
// on overflow, then latches both into their pre-calc shadow registers
// (spec §4.5 Prepare step 3).
func (s *SoftMaster) advanceSystemTime() {
	r := &s.mem.Registers
	r.STNS += uint32(s.TscycNS)
	for r.STNS >= nsPerSecond {
		r.STNS -= nsPerSecond
		r.STSEC++
	}
	r.STNSShadow = r.STNS
	r.STSECShadow = r.STSEC
}

// advancePhaseCounter increments PHASECR's cycle-counter bits (bits
// [8:11), mod 8) and re-merges them with the current communication
// phase in the low byte (spec §4.5 Prepare step 4). Keeping phase in
// bits [0:8) means PHASECR&0xFF is exactly the byte step 9's telegram
// header wants.
func (s *SoftMaster) advancePhaseCounter() {
	r := &s.mem.Registers
	sub := ((r.PHASECR >> 8) + 1) & 0x7
	r.PHASECR = sub<<8 | uint32(s.Phase)&0xFF
}

// advanceSubcycleCounters flips the SCCAB buffer-system selector and
// rolls SCCMDT over the MDT telegram count (spec §4.5 Prepare step 5).
func (s *SoftMaster) advanceSubcycleCounters() {
	r := &s.mem.Registers
	r.SCCAB ^= 1
	if n := uint32(len(s.mdtLayout)); n > 0 {
		r.SCCMDT = (r.SCCMDT + 1) % n
	}
}

// prepareCycleRegisters runs the per-cycle register-advancing steps of
// spec §4.5's Prepare phase that don't depend on live topology
// measurements: watchdog tick (step 2), system-time advance (step 3),
// phase counter (step 4), and subcycle counters (step 5). Step 1
// (PHY/SOFT reset) is not run here: GCSFR is never polled. Steps 6
// (ring-delay republish), 7 (DFCSR link/line status), and 8
// (timing-method adoption) need a topology/DelayTracker feed that
// CyclePrepare's caller doesn't supply, and are not run either.
func (s *SoftMaster) prepareCycleRegisters() {
	s.wd.Tick()
	s.advanceSystemTime()
	s.advancePhaseCounter()
	s.advanceSubcycleCounters()
}
