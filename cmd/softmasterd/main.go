// Command softmasterd is an example daemon wiring a network driver, a
// SoftMaster cycle loop, and a Prometheus /metrics endpoint — adapted
// from sockstats' cmd/exporter_example1, which does the same
// register-a-collector-and-serve-promhttp wiring for TCPInfoCollector.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sercos3.io/softmaster/internal/buildinfo"
	"sercos3.io/softmaster/pkg/connection"
	"sercos3.io/softmaster/pkg/driver"
	"sercos3.io/softmaster/pkg/exporter"
	"sercos3.io/softmaster/pkg/softmaster"
	"sercos3.io/softmaster/pkg/timing"
	"sercos3.io/softmaster/pkg/watchdog"
)

func emptyCatalog() *connection.Catalog {
	return &connection.Catalog{
		Limits: connection.SystemLimits{
			MaxConnections:         64,
			MaxConnectionsPerSlave: 8,
			MaxSlaves:              254,
			MaxCapabilities:        8,
			MaxRTBits:              64,
		},
	}
}

func openDriver(iface string) driver.Driver {
	d, err := driver.NewAFPacket(iface)
	if err != nil {
		logrus.WithError(err).Warn("raw Ethernet driver unavailable, falling back to loopback")
		return driver.NewLoopback()
	}
	return d
}

func main() {
	iface := flag.String("iface", "eth0", "network interface to bind the raw Ethernet driver to")
	cycleDuration := flag.Duration("cycle", time.Millisecond, "cycle time (Tscyc)")
	listen := flag.String("listen", ":9373", "address to serve /metrics on")
	flag.Parse()

	logrus.Infof("softmasterd %s starting", buildinfo.String())

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	drv := openDriver(*iface)
	tscycNS := cycleDuration.Nanoseconds()

	sm, err := softmaster.New(softmaster.Config{
		MACAddress: [6]byte{0x02, 0x53, 0x33, 0x00, 0x00, 0x01},
		Catalog:    emptyCatalog(),
		TscycNS:    tscycNS,
		TimingPlan: timing.Config{
			TscycNS:             tscycNS,
			Method:              timing.MDTAtUCC,
			AllSlavesDynamicIFG: false,
			MDTBytes:            []int{64},
			ATBytes:             []int{64},
		},
		WatchdogReload: 16,
		WatchdogMode:   watchdog.AlarmModeDisableTx,
		UCCTXCapacity:  64,
		UCCRXCapacity:  64,
		Driver:         drv,
	})
	if err != nil {
		logrus.Fatalf("build softmaster: %v", err)
	}

	if err := drv.OpenTX(); err != nil {
		logrus.Fatalf("open tx: %v", err)
	}
	if err := drv.OpenRX(); err != nil {
		logrus.Fatalf("open rx: %v", err)
	}

	collector := exporter.NewCollector(func(err error) {
		logrus.WithError(err).Warn("exporter scrape error")
	})
	collector.Add(hostname, sm)
	prometheus.MustRegister(collector)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		logrus.Infof("serving metrics on %s/metrics", *listen)
		if err := http.ListenAndServe(*listen, nil); err != nil {
			logrus.Fatalf("metrics server: %v", err)
		}
	}()

	ticker := time.NewTicker(*cycleDuration)
	defer ticker.Stop()

	logrus.Infof("cycle loop started: tscyc=%s iface=%s", *cycleDuration, *iface)
	for range ticker.C {
		sm.FeedWatchdog()
		frames, err := sm.CyclePrepare()
		if err != nil {
			logrus.WithError(err).Error("cycle prepare failed")
			continue
		}
		if err := sm.CycleStart(frames); err != nil {
			logrus.WithError(err).Error("cycle start failed")
		}
	}
}
