package urlcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postguard_url_cache_lookups_total",
			Help: "URL cache lookups by result (hit, miss, disabled)",
		},
		[]string{"result"},
	)

	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postguard_reputation_checks_total",
			Help: "External reputation checks by outcome (safe, unsafe, error)",
		},
		[]string{"outcome"},
	)
)
