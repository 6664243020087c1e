// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of submission attempts by site and terminal status",
		},
		[]string{"site", "status"},
	)

	BlockersDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_blockers_total",
			Help: "Total number of automation blockers detected",
		},
		[]string{"site", "kind"},
	)

	TruthLockViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthlock_violations_total",
			Help: "Total number of truth-lock violations by claim type",
		},
		[]string{"claim_type"},
	)

	TruthLockRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "truthlock_rejections_total",
			Help: "Total number of attempts rejected by truth-lock before automation",
		},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "submission_attempt_duration_seconds",
			Help:    "Duration of submission attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"site"},
	)

	ActiveAttempts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "submission_attempts_active",
			Help: "Number of in-flight submission attempts",
		},
	)

	EvidenceUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_uploads_total",
			Help: "Screenshot evidence uploads by outcome",
		},
		[]string{"outcome"},
	)
)
