// Package telemetry exposes report generation counters to Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	generations *prometheus.CounterVec
	duration    prometheus.Histogram
	posts       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threads_insights",
			Name:      "report_generations_total",
			Help:      "Report generation runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threads_insights",
			Name:      "report_generation_seconds",
			Help:      "Wall time of a report generation run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		posts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "threads_insights",
			Name:      "report_last_posts",
			Help:      "Posts counted by the most recent successful run.",
		}),
	}
	reg.MustRegister(m.generations, m.duration, m.posts)
	return m
}

func (m *Metrics) ObserveGeneration(outcome string, took time.Duration, posts int) {
	m.generations.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	if outcome == "ok" {
		m.posts.Set(float64(posts))
	}
}
