package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	recommendationPassesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendation_passes_total",
		Help: "Total recommendation scoring passes",
	})
	recommendationsReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendations_returned",
		Help:    "Number of recommendations returned per pass",
		Buckets: []float64{0, 1, 5, 10, 15, 20},
	})
	recommendationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_duration_ms",
		Help:    "Recommendation pass duration in milliseconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})
	acceptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_accepts_total",
		Help: "Recommendation accepts by outcome",
	}, []string{"outcome"})
	storeReadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_read_failures_total",
		Help: "Key-value reads that failed and were treated as empty",
	})
	remindersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_total",
		Help: "Reminder jobs by stage",
	}, []string{"stage"})
)

func init() {
	registry.MustRegister(
		recommendationPassesTotal,
		recommendationsReturned,
		recommendationDuration,
		acceptsTotal,
		storeReadFailuresTotal,
		remindersTotal,
	)
}

// ObserveRecommendationPass records one scoring pass.
func ObserveRecommendationPass(returned int, took time.Duration) {
	recommendationPassesTotal.Inc()
	recommendationsReturned.Observe(float64(returned))
	recommendationDuration.Observe(float64(took.Microseconds()) / 1000.0)
}

// IncAccept counts an accept outcome: "ok", "partial" or "failed".
func IncAccept(outcome string) {
	acceptsTotal.WithLabelValues(outcome).Inc()
}

// IncStoreReadFailure counts a degraded read.
func IncStoreReadFailure() {
	storeReadFailuresTotal.Inc()
}

// IncReminder counts a reminder at a pipeline stage: "enqueued", "delivered", "failed", "dropped".
func IncReminder(stage string) {
	remindersTotal.WithLabelValues(stage).Inc()
}

// Registry exposes the process registry for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
