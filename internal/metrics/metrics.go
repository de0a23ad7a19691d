// internal/metrics/metrics.go
package metrics

import (
	"time"
)

// Trade direction labels.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// RecordTrade records one trade attempt's outcome and timing.
func (c *Collector) RecordTrade(direction string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	tradeCounter.WithLabelValues(direction, status).Inc()
	tradeDuration.WithLabelValues(direction).Observe(duration.Seconds())
}

// RecordVolume adds a settled trade's gross sol amount to the volume counter.
func (c *Collector) RecordVolume(direction string, solAmount uint64) {
	tradeVolume.WithLabelValues(direction).Add(float64(solAmount))
}

// UpdateCurveReserves publishes a curve's post-trade reserve levels.
func (c *Collector) UpdateCurveReserves(mint string, virtualSol, virtualToken, realSol, realToken uint64) {
	curveReserves.WithLabelValues(mint, "virtual_sol").Set(float64(virtualSol))
	curveReserves.WithLabelValues(mint, "virtual_token").Set(float64(virtualToken))
	curveReserves.WithLabelValues(mint, "real_sol").Set(float64(realSol))
	curveReserves.WithLabelValues(mint, "real_token").Set(float64(realToken))
}

// RecordCurveCompleted counts a curve's one-way transition to complete.
func (c *Collector) RecordCurveCompleted() {
	completedCurves.Inc()
}
