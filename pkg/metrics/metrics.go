// Package metrics defines the Prometheus collectors exported by citeaudit
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zombar/citeaudit/internal/models"
)

// AuditMetrics tracks audits, their outcome and the metrics cache
type AuditMetrics struct {
	AuditsTotal     *prometheus.CounterVec
	AuditDuration   *prometheus.HistogramVec
	CitationsPerDoc prometheus.Histogram
	QualityScore    prometheus.Histogram
	RedFlags        *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
}

// NewAuditMetrics registers the audit collectors with reg. A nil reg uses
// the default registerer.
func NewAuditMetrics(namespace string, reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AuditMetrics{
		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audits_total",
				Help:      "Total number of citation audits",
			},
			[]string{"source", "status"},
		),
		AuditDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audit_duration_seconds",
				Help:      "Citation audit duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"source"},
		),
		CitationsPerDoc: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "citations_per_document",
				Help:      "Number of citations extracted per audited document",
				Buckets:   []float64{0, 1, 3, 5, 10, 20, 50, 100},
			},
		),
		QualityScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "overall_quality",
				Help:      "Overall citation quality of audited documents",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		RedFlags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "red_flags_total",
				Help:      "Red flags raised by audits",
			},
			[]string{"kind", "severity"},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metrics_cache_requests_total",
				Help:      "Metrics cache lookups by result",
			},
			[]string{"backend", "result"},
		),
	}
}

// ObserveAudit records a completed audit. source is "api" or "worker".
func (m *AuditMetrics) ObserveAudit(source string, report models.AuditReport, elapsed time.Duration) {
	m.AuditsTotal.WithLabelValues(source, "success").Inc()
	m.AuditDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.CitationsPerDoc.Observe(float64(len(report.Citations)))
	m.QualityScore.Observe(report.Quality.OverallQuality)
	for _, f := range report.RedFlags {
		m.RedFlags.WithLabelValues(f.Kind, string(f.Severity)).Inc()
	}
}

// AuditFailed records an audit that could not be run
func (m *AuditMetrics) AuditFailed(source string) {
	m.AuditsTotal.WithLabelValues(source, "error").Inc()
}

// CacheHit counts a metrics cache hit
func (m *AuditMetrics) CacheHit(backend string) {
	m.CacheRequests.WithLabelValues(backend, "hit").Inc()
}

// CacheMiss counts a metrics cache miss
func (m *AuditMetrics) CacheMiss(backend string) {
	m.CacheRequests.WithLabelValues(backend, "miss").Inc()
}

// DatabaseMetrics exports connection pool statistics and stored document
// counts
type DatabaseMetrics struct {
	OpenConnections   prometheus.Gauge
	InUse             prometheus.Gauge
	Idle              prometheus.Gauge
	WaitCount         prometheus.Gauge
	WaitDuration      prometheus.Gauge
	DocumentsByStatus *prometheus.GaugeVec
}

// NewDatabaseMetrics registers the pool gauges with reg. A nil reg uses
// the default registerer.
func NewDatabaseMetrics(namespace string, reg prometheus.Registerer) *DatabaseMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		})
	}

	return &DatabaseMetrics{
		OpenConnections: gauge("open_connections", "Established connections, in use and idle"),
		InUse:           gauge("in_use_connections", "Connections currently in use"),
		Idle:            gauge("idle_connections", "Idle connections"),
		WaitCount:       gauge("wait_count", "Total connections waited for"),
		WaitDuration:    gauge("wait_duration_seconds", "Total time blocked waiting for a connection"),
		DocumentsByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "documents",
			Help:      "Stored documents by audit status",
		}, []string{"status"}),
	}
}

// UpdateDBStats copies the current pool statistics of db into the gauges
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	if db == nil {
		return
	}
	stats := db.Stats()
	m.OpenConnections.Set(float64(stats.OpenConnections))
	m.InUse.Set(float64(stats.InUse))
	m.Idle.Set(float64(stats.Idle))
	m.WaitCount.Set(float64(stats.WaitCount))
	m.WaitDuration.Set(stats.WaitDuration.Seconds())
}

// UpdateDocumentCounts replaces the per-status document gauges with counts.
// Statuses missing from counts are dropped.
func (m *DatabaseMetrics) UpdateDocumentCounts(counts map[string]int) {
	m.DocumentsByStatus.Reset()
	for status, n := range counts {
		m.DocumentsByStatus.WithLabelValues(status).Set(float64(n))
	}
}
