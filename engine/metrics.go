package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes scan driver counters. Updated once per scan and once
// per completed region, never per element.
type Metrics struct {
	ScansTotal       prometheus.Counter
	ScansCancelled   prometheus.Counter
	ScansFailed      prometheus.Counter
	RegionsScanned   prometheus.Counter
	SurvivorElements prometheus.Gauge
	ScanDuration     prometheus.Histogram
}

// NewMetrics builds the metric set, registered against reg. A nil reg
// leaves the metrics unregistered, which tests and embedders use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "memscan_scans_total",
			Help: "Completed scans",
		}),
		ScansCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "memscan_scans_cancelled_total",
			Help: "Scans abandoned on cancellation",
		}),
		ScansFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "memscan_scans_failed_total",
			Help: "Scans that ended with an error other than cancellation",
		}),
		RegionsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "memscan_regions_scanned_total",
			Help: "Regions processed by scan workers",
		}),
		SurvivorElements: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memscan_survivor_elements",
			Help: "Element count of the most recent survivor snapshot",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memscan_scan_duration_seconds",
			Help:    "Wall time per scan",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}
