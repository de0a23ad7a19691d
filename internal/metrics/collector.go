// internal/metrics/collector.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tradeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_trades_total",
			Help: "Number of trades grouped by direction and outcome",
		},
		[]string{"direction", "status"},
	)

	tradeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchpad_trade_duration_seconds",
			Help:    "Wall time of the full trade pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"direction"},
	)

	tradeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_trade_volume_lamports_total",
			Help: "Gross sol volume settled against curves",
		},
		[]string{"direction"},
	)

	curveReserves = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "launchpad_curve_reserves",
			Help: "Current reserve levels per curve",
		},
		[]string{"mint", "reserve"},
	)

	completedCurves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_curves_completed_total",
			Help: "Curves that exhausted their tradable reserves",
		},
	)
)

// Collector owns the launchpad metric set and registers it once.
type Collector struct {
	registry *prometheus.Registry
}

// NewCollector registers the launchpad metrics on the given registry. A nil
// registry falls back to the default one.
func NewCollector(registry *prometheus.Registry) *Collector {
	c := &Collector{registry: registry}

	collectors := []prometheus.Collector{
		tradeCounter,
		tradeDuration,
		tradeVolume,
		curveReserves,
		completedCurves,
	}
	for _, collector := range collectors {
		if registry != nil {
			registry.MustRegister(collector)
		} else {
			prometheus.MustRegister(collector)
		}
	}
	return c
}
