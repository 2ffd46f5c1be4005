package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// GenerationsTotal counts generation requests by outcome.
	GenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ideagen",
		Subsystem: "generate",
		Name:      "requests_total",
		Help:      "Total number of generation requests, labeled by result (ok, invalid, upstream_error, aborted).",
	}, []string{"result"})

	// FragmentsEmitted counts SSE text events written to clients.
	FragmentsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ideagen",
		Subsystem: "stream",
		Name:      "fragments_emitted_total",
		Help:      "Total number of text fragments framed and written to clients.",
	})

	// FragmentsDropped counts provider lines skipped because their payload did not decode.
	FragmentsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ideagen",
		Subsystem: "stream",
		Name:      "fragments_dropped_total",
		Help:      "Total number of provider stream lines dropped because the JSON payload was malformed.",
	})

	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ideagen",
		Subsystem: "generate",
		Name:      "in_flight",
		Help:      "Current number of generation streams being served.",
	})

	StreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ideagen",
		Subsystem: "generate",
		Name:      "stream_duration_seconds",
		Help:      "Time from accepting a generation request to the end of its stream.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
	}, []string{"result"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			GenerationsTotal,
			FragmentsEmitted,
			FragmentsDropped,
			InFlight,
			StreamDurationSeconds,
		)
	})
}
