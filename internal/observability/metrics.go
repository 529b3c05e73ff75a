package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "spot_buddy",
		Subsystem: "workouts",
		Name:      "created_total",
		Help:      "Workouts persisted through the API.",
	})
	botUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spot_buddy",
		Subsystem: "bot",
		Name:      "updates_total",
		Help:      "Telegram updates dispatched, by event and outcome.",
	}, []string{"event", "outcome"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spot_buddy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(workoutsCreated, botUpdates, requestDuration)
}

// RecordWorkoutCreated increments the created workouts counter.
func RecordWorkoutCreated() {
	workoutsCreated.Inc()
}

// RecordBotUpdate counts one dispatched update. outcome is "ok" or "error".
func RecordBotUpdate(event, outcome string) {
	botUpdates.WithLabelValues(event, outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
