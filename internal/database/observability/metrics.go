// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// QueryMetrics records tenant-scoped query counts and latencies.
// A nil *QueryMetrics is valid and records nothing.
type QueryMetrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewQueryMetrics creates and registers the query collectors on reg
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	factory := promauto.With(reg)

	return &QueryMetrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldcrew",
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Total number of tenant-scoped queries by table, operation and outcome",
		}, []string{"table", "operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fieldcrew",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Latency of tenant-scoped queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "operation"}),
	}
}

// Observe records one finished operation started at start
func (m *QueryMetrics) Observe(table, operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(table, operation, outcome).Inc()
	m.duration.WithLabelValues(table, operation).Observe(time.Since(start).Seconds())
}
