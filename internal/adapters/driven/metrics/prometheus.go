// Package metrics exports audit telemetry as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Ensure Prometheus implements the interface.
var _ driven.AuditMetrics = (*Prometheus)(nil)

const namespace = "auditkit"

// Prometheus records judgment and audit counters on its own registry.
type Prometheus struct {
	registry     *prometheus.Registry
	judgments    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	categoryTime prometheus.Histogram
	audits       *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		judgments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgments_total",
			Help:      "Criterion judgments recorded, by verdict.",
		}, []string{"verdict"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgment_failures_total",
			Help:      "Failed classifier calls and rejected verdicts, by reason.",
		}, []string{"reason"}),
		categoryTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "category_judgment_seconds",
			Help:      "Time to resolve one category, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Template audits completed, by outcome.",
		}, []string{"outcome"}),
	}
	p.registry.MustRegister(p.judgments, p.failures, p.categoryTime, p.audits)
	return p
}

// JudgmentRecorded counts one criterion verdict.
func (p *Prometheus) JudgmentRecorded(v domain.Verdict) {
	p.judgments.WithLabelValues(v.String()).Inc()
}

// JudgmentFailed counts one failure.
func (p *Prometheus) JudgmentFailed(reason string) {
	p.failures.WithLabelValues(reason).Inc()
}

// CategoryJudged observes how long a category took.
func (p *Prometheus) CategoryJudged(d time.Duration) {
	p.categoryTime.Observe(d.Seconds())
}

// AuditCompleted counts one template audit.
func (p *Prometheus) AuditCompleted(inconclusive bool) {
	outcome := "scored"
	if inconclusive {
		outcome = "inconclusive"
	}
	p.audits.WithLabelValues(outcome).Inc()
}

// Registry returns the registry holding the audit collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
