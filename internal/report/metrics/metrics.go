package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	VersionsCreated prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dugout_report_cache_lookups_total",
			Help: "Current-report lookups by outcome (hit, miss, expired).",
		}, []string{"outcome"}),
		VersionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dugout_report_versions_created_total",
			Help: "Report versions appended across all players.",
		}),
	}
}
