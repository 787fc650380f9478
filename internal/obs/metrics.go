// Package obs holds the service's Prometheus instrumentation.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions counts policy evaluations by resource and outcome.
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_access_decisions_total",
			Help: "Access policy decisions by resource (metadata, content) and outcome (allow, deny).",
		},
		[]string{"resource", "outcome"},
	)

	// ClassificationBatches counts batch mutations by result.
	ClassificationBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_classification_batches_total",
			Help: "Classification batches by result (committed, rejected).",
		},
		[]string{"result"},
	)

	// BatchDuration observes end-to-end classification transaction time.
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "warden_classification_batch_seconds",
			Help:    "Duration of classification batch transactions.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Decision records one access policy evaluation.
func Decision(resource string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	AccessDecisions.WithLabelValues(resource, outcome).Inc()
}
