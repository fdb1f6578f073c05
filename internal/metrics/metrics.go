// Package metrics exposes Prometheus collectors for the receiver and poster.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VotesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbl_votes_received_total",
		Help: "Votes accepted by the webhook receiver",
	}, []string{"type"})

	VotesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbl_votes_duplicate_total",
		Help: "Redelivered votes dropped by the de-duplication store",
	})

	WebhookRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbl_webhook_rejected_total",
		Help: "Webhook deliveries rejected, by reason",
	}, []string{"reason"})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbl_publish_failures_total",
		Help: "Vote events that failed on at least one publisher",
	})

	StatsPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbl_stats_posts_total",
		Help: "Stats updates sent to top.gg, by outcome",
	}, []string{"status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dbl_receiver_request_duration_seconds",
		Help:    "Receiver request latency",
		Buckets: []float64{.005, .01, .05, .1, .25, 1, 5},
	}, []string{"route", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one receiver request.
func ObserveRequest(route string, status int, seconds float64) {
	RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(seconds)
}

// StatsPostStatus labels a stats post outcome: "ok", "ratelimited" or "error".
func StatsPostStatus(err error, ratelimited bool) string {
	switch {
	case err == nil:
		return "ok"
	case ratelimited:
		return "ratelimited"
	default:
		return "error"
	}
}
