// README: Prometheus collectors for HTTP traffic, model attempts, places lookups and trip writes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripbuddy",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripbuddy",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	ModelAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripbuddy",
			Subsystem: "planner",
			Name:      "model_attempts_total",
			Help:      "Model attempts by candidate, mode and outcome",
		},
		[]string{"model", "mode", "outcome"},
	)

	ModelAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripbuddy",
			Subsystem: "planner",
			Name:      "model_attempt_duration_seconds",
			Help:      "Duration of a single model attempt",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"model", "mode"},
	)

	PlanFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripbuddy",
			Subsystem: "planner",
			Name:      "fallback_exhausted_total",
			Help:      "Requests where every model candidate failed",
		},
	)

	RepairedDaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripbuddy",
			Subsystem: "planner",
			Name:      "repaired_days_total",
			Help:      "Itinerary days filled with template text",
		},
	)

	PlacesLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripbuddy",
			Subsystem: "places",
			Name:      "lookups_total",
			Help:      "Places proxy lookups by kind and source",
		},
		[]string{"kind", "source"},
	)

	TripPayloadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripbuddy",
			Subsystem: "trips",
			Name:      "payload_bytes",
			Help:      "Serialized trip detail size",
			Buckets:   prometheus.ExponentialBuckets(8*1024, 2, 9),
		},
		[]string{"op"},
	)
)

func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

func RecordModelAttempt(model, mode, outcome string, durationSec float64) {
	ModelAttemptsTotal.WithLabelValues(model, mode, outcome).Inc()
	ModelAttemptDuration.WithLabelValues(model, mode).Observe(durationSec)
}

func RecordPlacesLookup(kind, source string) {
	PlacesLookupsTotal.WithLabelValues(kind, source).Inc()
}

func RecordTripPayload(op string, bytes int) {
	TripPayloadBytes.WithLabelValues(op).Observe(float64(bytes))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
