// Package telemetry exposes the service's Prometheus metrics. Everything is
// registered on the default registry and served by the /metrics endpoint.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/packlint/internal/diag"
)

var (
	metricsOnce sync.Once

	validationsTotal *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	validationTime   prometheus.Histogram
)

func initMetrics() {
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packlint_validations_total",
		Help: "Validation runs by verdict",
	}, []string{"verdict"})
	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packlint_diagnostics_total",
		Help: "Diagnostics emitted by severity",
	}, []string{"severity"})
	validationTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "packlint_validation_duration_seconds",
		Help:    "Wall time of one validation run",
		Buckets: prometheus.DefBuckets,
	})
}

// ObserveRun records one finished validation run.
func ObserveRun(summary diag.Summary, elapsed time.Duration) {
	metricsOnce.Do(initMetrics)
	verdict := "valid"
	if !summary.Valid {
		verdict = "invalid"
	}
	validationsTotal.WithLabelValues(verdict).Inc()
	diagnosticsTotal.WithLabelValues("error").Add(float64(len(summary.Errors)))
	diagnosticsTotal.WithLabelValues("warning").Add(float64(len(summary.Warnings)))
	validationTime.Observe(elapsed.Seconds())
}
