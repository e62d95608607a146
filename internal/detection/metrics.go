package detection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postguard_detection_posts_total",
			Help: "Posts resolved by verdict",
		},
		[]string{"verdict"},
	)

	postsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postguard_detection_failures_total",
			Help: "Posts whose resolution failed and were released",
		},
	)

	claimsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postguard_detection_claims_skipped_total",
			Help: "Posts skipped because they were no longer Pending",
		},
	)

	unsafeLinks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postguard_detection_unsafe_links_total",
			Help: "Posts with at least one unsafe link",
		},
	)

	accountsEscalated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postguard_accounts_escalated_total",
			Help: "Accounts moved from Safe to Red",
		},
	)

	passDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "postguard_detection_pass_duration_seconds",
			Help:    "Duration of a detection pass",
			Buckets: prometheus.DefBuckets,
		},
	)
)
