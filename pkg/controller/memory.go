// Package controller models the SoftMaster's memory-mapped view: a
// register block, and three RAM regions (SVC, TX, RX) that are the only
// channel of shared state between the master and the (emulated)
// controller hardware (spec §3 "Controller memory", §6).
package controller

import "sercos3.io/softmaster/pkg/event"

// Region sizes are compile-time constants, as the spec requires — nothing
// here is dynamically resized at runtime.
const (
	RegisterRegionSize = 4096
	SVCRAMSize         = 8192
	TXRAMSize          = 16384
	RXRAMSize          = 16384
)

// Counters mirrors the IPxxx counter set from spec §6. Fields are tagged
// with `creg` the same way sockstats tags TCPInfo fields with `tcpi`:
// cmd/genregexporter parses these tags to generate the Prometheus
// collector in pkg/exporter, so renaming a field here and rerunning the
// generator keeps the metric surface in sync automatically.
type Counters struct {
	IPFCSERR  uint32 `creg:"name=ip_fcs_errors_total,prom_type=counter,prom_help='Frames dropped locally due to CRC/FCS mismatch.'"`
	IPFRXOK   uint32 `creg:"name=ip_frames_received_total,prom_type=counter,prom_help='Frames received and accepted.'"`
	IPFTXOK   uint32 `creg:"name=ip_frames_transmitted_total,prom_type=counter,prom_help='Frames transmitted successfully.'"`
	IPALGNERR uint32 `creg:"name=ip_alignment_errors_total,prom_type=counter,prom_help='Frames dropped due to alignment/framing errors.'"`
	IPDISRXB  uint32 `creg:"name=ip_ucc_rx_discards_total,prom_type=counter,prom_help='UC channel RX packets discarded on ring-buffer overflow.'"`
	IPDISCOLB uint32 `creg:"name=ip_ucc_tx_discards_total,prom_type=counter,prom_help='UC channel TX packets discarded on ring-buffer overflow.'"`
	IPCHVIOL  uint32 `creg:"name=ip_cycle_violations_total,prom_type=counter,prom_help='Cycle timing budget violations observed by the frame cycle driver.'"`
	IPSERCERR uint32 `creg:"name=ip_sercos_errors_total,prom_type=counter,prom_help='Frames dropped due to unrecognized Sercos type field.'"`
}

// Registers is the memory-mapped register block from spec §6. Only the
// fields the core core actually reads/writes every cycle are modeled
// (this is a soft emulation, not a full hardware register map); names
// match the spec's register mnemonics.
type Registers struct {
	IDR   uint32 `creg:"name=controller_id,prom_type=gauge,prom_help='Controller identification register.'"`
	GCSFR uint32 // Global Control/Status register: PHY_RESET, SOFT_RESET bits.
	PHASECR uint32 `creg:"name=phase_cycle_counter,prom_type=gauge,prom_help='Current communication phase and cycle counter (PHASECR).'"`

	TCSR     uint32 // Timing Control/Status register.
	TCNTCYCR uint32 // Cycle time counter register (PLL cycle time in ns).

	STNS uint32 // System time, nanoseconds part.
	STSEC uint32 // System time, seconds part.
	STNSShadow uint32 // Pre-calc shadow of STNS, latched at the configured sample point.
	STSECShadow uint32

	SCCAB   uint32 // Subcycle counter A/B.
	SCCMDT  uint32 // Subcycle counter, MDT.

	DFCSR uint32 // Device/Framing Control/Status: link/line-status bits per port.
	DECR  uint32 // Descriptor Extension Control Register: RX/TX descriptor table offsets.

	SEQCNT uint32 `creg:"name=cp0_sequence_counter,prom_type=gauge,prom_help='CP0 slave self-counting sequence counter.'"`

	TGSR1 uint32 `creg:"name=telegram_status_port1,prom_type=gauge,prom_help='Per-telegram received-successfully bitmap, port 1.'"`
	TGSR2 uint32 `creg:"name=telegram_status_port2,prom_type=gauge,prom_help='Per-telegram received-successfully bitmap, port 2.'"`

	SFCR uint32 // Send/telegram-enable bitmap (which telegram types to transmit this cycle).
	IFG  uint32 `creg:"name=inter_frame_gap_bytes,prom_type=gauge,prom_help='Currently programmed inter-frame gap, in bytes.'"`

	TXBUFCSRA uint32 // TX buffer control/status, buffer system A.
	TXBUFCSRB uint32 // TX buffer control/status, buffer system B.
	RXBUFCSRA uint32 // RX buffer control/status, buffer system A.
	RXBUFCSRB uint32 // RX buffer control/status, buffer system B.
	RXBUFTVA  uint32 // RXBUFTV: TGSR snapshot made visible to the host, buffer system A.
	RXBUFTVB  uint32
	RXBUFTRA  uint32 // Receive buffer telegram request, buffer system A.
	RXBUFTRB  uint32

	SVCCSR uint32 // Service channel control/status (hardware-SVC enable bit lives here).

	WDCSR uint32 `creg:"name=watchdog_control_status,prom_type=gauge,prom_help='Watchdog magic-pattern control/status register.'"`
	WDCNT uint32 `creg:"name=watchdog_counter,prom_type=gauge,prom_help='Watchdog countdown counter, current value.'"`

	MAC1 [6]byte // Master MAC address.

	IPTXS1 uint32
	IPTXS2 uint32
	IPRRS1 uint32
	IPRRS2 uint32
	IPRXS1 uint32
	IPRXS2 uint32
	IPLASTFL uint32

	Counters Counters

	EventsTimer [event.SlotCount]event.Event
	EventsPort  [event.SlotCount]event.Event
}

// Bits within GCSFR.
const (
	GCSFRPhyReset  uint32 = 1 << 0
	GCSFRSoftReset uint32 = 1 << 1
)

// Bits within WDCSR.
const (
	WDCSRAlarm           uint32 = 1 << 0
	WDCSRAlarmDisableTx  uint32 = 1 << 1 // mode bit: alarm suppresses TX entirely
	WDCSRAlarmSendEmpty  uint32 = 1 << 2 // mode bit: alarm zeroes outgoing payloads
)

// Memory is the complete shared-state block between host and controller:
// the register struct plus the three RAM regions. Nothing outside this
// struct constitutes inter-component state — there is deliberately no
// side channel (spec §3).
type Memory struct {
	Registers Registers
	SVCRAM    []byte
	TXRAM     []byte
	RXRAM     []byte
}

// NewMemory allocates the four regions once, as the spec's lifecycle
// rules require (allocated at init, never resized).
func NewMemory() *Memory {
	return &Memory{
		SVCRAM: make([]byte, SVCRAMSize),
		TXRAM:  make([]byte, TXRAMSize),
		RXRAM:  make([]byte, RXRAMSize),
	}
}

// SoftReset zeros the RAM regions, restores register defaults, and clears
// the TGSRs — the effect of the GCSFR SOFT_RESET bit (spec §4.5 step 1).
// Buffer (re-)assignment is the caller's responsibility since it depends
// on the current telegram layout, which this package doesn't own.
func (m *Memory) SoftReset(macAddr [6]byte) {
	for i := range m.SVCRAM {
		m.SVCRAM[i] = 0
	}
	for i := range m.TXRAM {
		m.TXRAM[i] = 0
	}
	for i := range m.RXRAM {
		m.RXRAM[i] = 0
	}
	m.Registers = Registers{}
	m.Registers.MAC1 = macAddr
	m.Registers.TGSR1 = 0
	m.Registers.TGSR2 = 0
}
