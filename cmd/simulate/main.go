// Command simulate runs a fixed number of cycles of a single-slave line
// topology over an in-process loopback driver — spec scenario 1: one
// slave, a 1ms cycle, the MDT_AT_UCC timing method, no UC channel
// traffic. Useful as a sanity check of the cycle loop without real
// hardware.
package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"sercos3.io/softmaster/pkg/connection"
	"sercos3.io/softmaster/pkg/driver"
	"sercos3.io/softmaster/pkg/softmaster"
	"sercos3.io/softmaster/pkg/timing"
	"sercos3.io/softmaster/pkg/watchdog"
)

func singleSlaveLineCatalog() *connection.Catalog {
	return &connection.Catalog{
		Connections: []connection.Connection{
			{Index: 0, Name: "cmd", Number: 1, Direction: connection.MDT, PayloadLen: 8},
			{Index: 1, Name: "fb", Number: 2, Direction: connection.AT, PayloadLen: 8},
		},
		Configurations: []connection.Configuration{
			{Role: connection.Producer, RTBitsIdx: 0},
			{Role: connection.Consumer, RTBitsIdx: 1},
			{Role: connection.Consumer, RTBitsIdx: 2},
			{Role: connection.Producer, RTBitsIdx: 3},
		},
		Slaves: []connection.Slave{
			{
				Index: 0,
				Connections: []connection.ConnRef{
					{ConnIdx: 0, ConfigIdx: 1, RTBitsIdx: 1},
					{ConnIdx: 1, ConfigIdx: 3, RTBitsIdx: 3},
				},
			},
		},
		Master: connection.MasterConfig{
			Connections: []connection.ConnRef{
				{ConnIdx: 0, ConfigIdx: 0, RTBitsIdx: 0},
				{ConnIdx: 1, ConfigIdx: 2, RTBitsIdx: 2},
			},
		},
		Limits: connection.SystemLimits{
			MaxConnections:         8,
			MaxConnectionsPerSlave: 4,
			MaxSlaves:              1,
			MaxCapabilities:        4,
			MaxRTBits:              8,
		},
	}
}

func main() {
	cycles := flag.Int("cycles", 100, "number of cycles to run")
	flag.Parse()

	const tscycNS = 1_000_000

	d := driver.NewLoopback()
	sm, err := softmaster.New(softmaster.Config{
		MACAddress: [6]byte{0x02, 0x53, 0x33, 0x00, 0x00, 0x01},
		Catalog:    singleSlaveLineCatalog(),
		TscycNS:    tscycNS,
		TimingPlan: timing.Config{
			TscycNS:             tscycNS,
			Method:              timing.MDTAtUCC,
			MasterJitterNS:      500,
			MaxSlaveJitterNS:    500,
			SlaveCount:          1,
			AllSlavesDynamicIFG: false,
			RingDelayNS:         2000,
			FeedbackProcessingNS: 1000,
			MDTBytes:             []int{64},
			ATBytes:              []int{64},
		},
		WatchdogReload: 10,
		WatchdogMode:   watchdog.AlarmModeDisableTx,
		UCCTXCapacity:  16,
		UCCRXCapacity:  16,
		Driver:         d,
	})
	if err != nil {
		logrus.Fatalf("build softmaster: %v", err)
	}

	if err := d.OpenTX(); err != nil {
		logrus.Fatalf("open tx: %v", err)
	}
	if err := d.OpenRX(); err != nil {
		logrus.Fatalf("open rx: %v", err)
	}

	start := time.Now()
	for i := 0; i < *cycles; i++ {
		sm.FeedWatchdog()
		frames, err := sm.CyclePrepare()
		if err != nil {
			logrus.Fatalf("cycle %d prepare: %v", i, err)
		}
		if err := sm.CycleStart(frames); err != nil {
			logrus.Fatalf("cycle %d start: %v", i, err)
		}
	}

	snap := sm.Snapshot()
	logrus.Infof("ran %d cycles in %s: tx_ok=%d rx_ok=%d fcs_err=%d",
		*cycles, time.Since(start), snap.Counters.IPFTXOK, snap.Counters.IPFRXOK, snap.Counters.IPFCSERR)
}
