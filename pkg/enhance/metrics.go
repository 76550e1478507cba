package enhance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeCached   = "cached"
	outcomeBad      = "bad_request"
	outcomeConfig   = "config"
	outcomeUpstream = "upstream_error"
	outcomeError    = "error"
)

// Metrics are the enhancement counters exposed on /metrics.
type Metrics struct {
	Requests         *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg yields working but
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeline",
			Subsystem: "enhance",
			Name:      "requests_total",
			Help:      "Enhancement requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timeline",
			Subsystem: "enhance",
			Name:      "upstream_duration_seconds",
			Help:      "Latency of calls to the language model provider.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(outcome string) {
	m.Requests.WithLabelValues(outcome).Inc()
}
