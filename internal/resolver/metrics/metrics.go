package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions *prometheus.CounterVec
	Duration    prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dugout_resolutions_total",
			Help: "Resolution verdicts by method and status.",
		}, []string{"method", "status"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dugout_resolution_duration_seconds",
			Help:    "Wall time spent resolving a single player reference.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Observe(method, status string, elapsed time.Duration) {
	m.Resolutions.WithLabelValues(method, status).Inc()
	m.Duration.Observe(elapsed.Seconds())
}
