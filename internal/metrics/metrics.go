// Package metrics provides Prometheus metrics for the session engine.
// There is no HTTP endpoint; metrics are written to a node_exporter
// textfile instead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the engine collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	scanDuration   *prometheus.HistogramVec
	scanEntries    prometheus.Histogram
	staleResults   prometheus.Counter
	operations     *prometheus.CounterVec
	savedFolders   prometheus.Gauge
	recentFiles    prometheus.Gauge
	watcherRefresh prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filedrap_scan_duration_seconds",
				Help:    "Directory scan duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		scanEntries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filedrap_scan_entries",
				Help:    "Entries published per applied scan",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		staleResults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filedrap_scan_stale_results_total",
				Help: "Completed scan results discarded because a newer request superseded them",
			},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedrap_operations_total",
				Help: "Engine operations by name and result",
			},
			[]string{"op", "result"},
		),
		savedFolders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "filedrap_saved_folders",
				Help: "Number of saved folders",
			},
		),
		recentFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "filedrap_recent_files",
				Help: "Number of entries in the recently used files list",
			},
		),
		watcherRefresh: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filedrap_watcher_refreshes_total",
				Help: "Refreshes triggered by filesystem change notifications",
			},
		),
	}

	m.registry.MustRegister(
		m.scanDuration,
		m.scanEntries,
		m.staleResults,
		m.operations,
		m.savedFolders,
		m.recentFiles,
		m.watcherRefresh,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveScan records a finished scan. outcome is "ok", "error" or
// "cancelled".
func (m *Metrics) ObserveScan(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveEntries records how many entries an applied scan published.
func (m *Metrics) ObserveEntries(n int) {
	if m == nil {
		return
	}
	m.scanEntries.Observe(float64(n))
}

func (m *Metrics) StaleResult() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

// Operation counts one engine operation. A nil err is recorded as "ok".
func (m *Metrics) Operation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SetSavedFolders(n int) {
	if m == nil {
		return
	}
	m.savedFolders.Set(float64(n))
}

func (m *Metrics) SetRecentFiles(n int) {
	if m == nil {
		return
	}
	m.recentFiles.Set(float64(n))
}

func (m *Metrics) WatcherRefresh() {
	if m == nil {
		return
	}
	m.watcherRefresh.Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
