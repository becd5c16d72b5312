// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes Prometheus counters and gauges for the
// impairment engine's per-link traffic: packets processed, accepted,
// dropped, and corrupted by link kind, plus a gauge tracking which links
// are currently mid-burst.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/moonlink/internal/linkkind"
)

// LinkMetrics holds every Prometheus metric the impairment engine reports,
// one label series per linkkind.Kind.
type LinkMetrics struct {
	PacketsProcessed *prometheus.CounterVec
	PacketsAccepted  *prometheus.CounterVec
	PacketsDropped   *prometheus.CounterVec
	PacketsCorrupted *prometheus.CounterVec
	BurstActive      *prometheus.GaugeVec
}

// NewLinkMetrics builds a LinkMetrics. Call RegisterMetrics to publish it
// to the default Prometheus registry, or register it on a custom registry
// yourself since LinkMetrics implements prometheus.Collector.
func NewLinkMetrics() *LinkMetrics {
	return &LinkMetrics{
		PacketsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonlink_packets_processed_total",
			Help: "Total number of packets the queue engine classified and dispatched, by link kind.",
		}, []string{"link_kind"}),

		PacketsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonlink_packets_accepted_total",
			Help: "Total number of packets issued an accept verdict, by link kind.",
		}, []string{"link_kind"}),

		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonlink_packets_dropped_total",
			Help: "Total number of packets issued a drop verdict during a burst-loss window, by link kind.",
		}, []string{"link_kind"}),

		PacketsCorrupted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moonlink_packets_corrupted_total",
			Help: "Total number of accepted packets that had at least one bit flipped by the injector, by link kind.",
		}, []string{"link_kind"}),

		BurstActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "moonlink_burst_active",
			Help: "Whether a link kind's burst-loss state machine is currently in a drop burst (1) or clear (0).",
		}, []string{"link_kind"}),
	}
}

// RecordProcessed increments the processed counter for kind. Satisfies
// queueengine.MetricsRecorder.
func (m *LinkMetrics) RecordProcessed(kind linkkind.Kind) {
	m.PacketsProcessed.WithLabelValues(kind.String()).Inc()
}

// RecordAccepted increments the accepted counter for kind.
func (m *LinkMetrics) RecordAccepted(kind linkkind.Kind) {
	m.PacketsAccepted.WithLabelValues(kind.String()).Inc()
}

// RecordDropped increments the dropped counter for kind.
func (m *LinkMetrics) RecordDropped(kind linkkind.Kind) {
	m.PacketsDropped.WithLabelValues(kind.String()).Inc()
}

// RecordCorrupted increments the corrupted counter for kind.
func (m *LinkMetrics) RecordCorrupted(kind linkkind.Kind) {
	m.PacketsCorrupted.WithLabelValues(kind.String()).Inc()
}

// SetBurstActive sets the burst-active gauge for kind. Satisfies
// burstloss.BurstObserver.
func (m *LinkMetrics) SetBurstActive(kind linkkind.Kind, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	m.BurstActive.WithLabelValues(kind.String()).Set(v)
}

// Describe implements prometheus.Collector.
func (m *LinkMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PacketsProcessed.Describe(ch)
	m.PacketsAccepted.Describe(ch)
	m.PacketsDropped.Describe(ch)
	m.PacketsCorrupted.Describe(ch)
	m.BurstActive.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *LinkMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PacketsProcessed.Collect(ch)
	m.PacketsAccepted.Collect(ch)
	m.PacketsDropped.Collect(ch)
	m.PacketsCorrupted.Collect(ch)
	m.BurstActive.Collect(ch)
}

// RegisterMetrics registers m with the default Prometheus registry.
func (m *LinkMetrics) RegisterMetrics() {
	prometheus.MustRegister(m)
}
