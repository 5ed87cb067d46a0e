// Code generated by cmd/genregexporter from pkg/controller's `creg` tags.
// DO NOT EDIT.

package exporter

import "github.com/prometheus/client_golang/prometheus"

var generatedMetrics = []regMetric{
	{
		desc: prometheus.NewDesc("sercos_ip_fcs_errors_total", "Frames dropped locally due to CRC/FCS mismatch.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPFCSERR) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_frames_received_total", "Frames received and accepted.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPFRXOK) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_frames_transmitted_total", "Frames transmitted successfully.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPFTXOK) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_alignment_errors_total", "Frames dropped due to alignment/framing errors.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPALGNERR) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_ucc_rx_discards_total", "UC channel RX packets discarded on ring-buffer overflow.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPDISRXB) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_ucc_tx_discards_total", "UC channel TX packets discarded on ring-buffer overflow.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPDISCOLB) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_cycle_violations_total", "Cycle timing budget violations observed by the frame cycle driver.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPCHVIOL) },
	},
	{
		desc: prometheus.NewDesc("sercos_ip_sercos_errors_total", "Frames dropped due to unrecognized Sercos type field.", []string{"instance"}, nil),
		kind: prometheus.CounterValue,
		get:  func(s *Snapshot) float64 { return float64(s.Counters.IPSERCERR) },
	},
	{
		desc: prometheus.NewDesc("sercos_controller_id", "Controller identification register.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.IDR) },
	},
	{
		desc: prometheus.NewDesc("sercos_phase_cycle_counter", "Current communication phase and cycle counter (PHASECR).", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.PHASECR) },
	},
	{
		desc: prometheus.NewDesc("sercos_cp0_sequence_counter", "CP0 slave self-counting sequence counter.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.SEQCNT) },
	},
	{
		desc: prometheus.NewDesc("sercos_telegram_status_port1", "Per-telegram received-successfully bitmap, port 1.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.TGSR1) },
	},
	{
		desc: prometheus.NewDesc("sercos_telegram_status_port2", "Per-telegram received-successfully bitmap, port 2.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.TGSR2) },
	},
	{
		desc: prometheus.NewDesc("sercos_inter_frame_gap_bytes", "Currently programmed inter-frame gap, in bytes.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.IFG) },
	},
	{
		desc: prometheus.NewDesc("sercos_watchdog_control_status", "Watchdog magic-pattern control/status register.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.WDCSR) },
	},
	{
		desc: prometheus.NewDesc("sercos_watchdog_counter", "Watchdog countdown counter, current value.", []string{"instance"}, nil),
		kind: prometheus.GaugeValue,
		get:  func(s *Snapshot) float64 { return float64(s.Registers.WDCNT) },
	},
}
