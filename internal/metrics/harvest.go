// Package metrics exposes Prometheus instruments for harvest passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "imgur_harvester"

// HarvestMetrics records per-source harvest activity. A nil or zero value is
// safe to use and records nothing.
type HarvestMetrics struct {
	fetched     *prometheus.CounterVec
	published   *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	passSeconds prometheus.Histogram
}

// NewHarvestMetrics registers the harvest instruments on reg.
func NewHarvestMetrics(reg prometheus.Registerer) *HarvestMetrics {
	if reg == nil {
		return &HarvestMetrics{}
	}
	fetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_fetched_total",
		Help:      "Images returned by Imgur per source.",
	}, []string{"source"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_published_total",
		Help:      "New images accepted by at least one publisher.",
	}, []string{"source"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_errors_total",
		Help:      "Failed source fetches by error kind.",
	}, []string{"source", "kind"})
	passSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Duration of a full harvest pass.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(fetched, published, fetchErrors, passSeconds)
	return &HarvestMetrics{
		fetched:     fetched,
		published:   published,
		fetchErrors: fetchErrors,
		passSeconds: passSeconds,
	}
}

// AddFetched counts images returned for source.
func (m *HarvestMetrics) AddFetched(source string, n int) {
	if m == nil || m.fetched == nil || n <= 0 {
		return
	}
	m.fetched.WithLabelValues(label(source)).Add(float64(n))
}

// AddPublished counts images delivered for source.
func (m *HarvestMetrics) AddPublished(source string, n int) {
	if m == nil || m.published == nil || n <= 0 {
		return
	}
	m.published.WithLabelValues(label(source)).Add(float64(n))
}

// IncFetchError counts one failed fetch of source.
func (m *HarvestMetrics) IncFetchError(source, kind string) {
	if m == nil || m.fetchErrors == nil {
		return
	}
	m.fetchErrors.WithLabelValues(label(source), label(kind)).Inc()
}

// ObservePass records how long one harvest pass took.
func (m *HarvestMetrics) ObservePass(d time.Duration) {
	if m == nil || m.passSeconds == nil {
		return
	}
	m.passSeconds.Observe(d.Seconds())
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
