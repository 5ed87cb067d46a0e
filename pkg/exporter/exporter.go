// Package exporter implements a Prometheus Collector over the controller
// registers and counters, adapted from sockstats' TCPInfoCollector: a
// mutex-guarded map of tracked entities, a Describe/Collect pair, and
// Add/Remove hooks for registering and unregistering them at runtime.
package exporter

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sercos3.io/softmaster/pkg/controller"
)

// Snapshot is the read-only view a Source hands the collector each scrape.
type Snapshot struct {
	Registers controller.Registers
	Counters  controller.Counters
}

// Source is anything that can produce a point-in-time Snapshot — in
// practice, a *softmaster.SoftMaster.
type Source interface {
	Snapshot() Snapshot
}

// regMetric pairs one generated Prometheus descriptor with the accessor
// that reads its value off a Snapshot. Populated by generated_collector.go.
type regMetric struct {
	desc *prometheus.Desc
	kind prometheus.ValueType
	get  func(s *Snapshot) float64
}

type sourceEntry struct {
	source Source
}

// Collector exports every SoftMaster instance registered with Add as a
// set of Prometheus metrics, labelled by instance name.
type Collector struct {
	mu      sync.Mutex
	sources map[string]sourceEntry
	logger  func(error)
}

// NewCollector builds an empty Collector. errorLoggingCallback is called
// (never panics) whenever a registered source errors during Collect.
func NewCollector(errorLoggingCallback func(error)) *Collector {
	if errorLoggingCallback == nil {
		errorLoggingCallback = func(error) {}
	}
	return &Collector{
		sources: make(map[string]sourceEntry),
		logger:  errorLoggingCallback,
	}
}

// Add registers a Source under a given instance name, replacing any
// previous source registered under the same name.
func (c *Collector) Add(name string, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = sourceEntry{source: source}
}

// Remove unregisters an instance name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, m := range generatedMetrics {
		descs <- m.desc
	}
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, entry := range c.sources {
		snap := entry.source.Snapshot()
		for _, m := range generatedMetrics {
			metric, err := prometheus.NewConstMetric(m.desc, m.kind, m.get(&snap), name)
			if err != nil {
				c.logger(fmt.Errorf("exporter: building metric for instance %q: %w", name, err))
				continue
			}
			metrics <- metric
		}
	}
}
