package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func TestPrometheus_Counters(t *testing.T) {
	p := NewPrometheus()

	p.JudgmentRecorded(domain.VerdictPass)
	p.JudgmentRecorded(domain.VerdictPass)
	p.JudgmentRecorded(domain.VerdictError)
	p.JudgmentFailed("timeout")
	p.AuditCompleted(false)
	p.AuditCompleted(true)
	p.AuditCompleted(true)

	assert.InDelta(t, 2, testutil.ToFloat64(p.judgments.WithLabelValues("PASS")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(p.judgments.WithLabelValues("ERROR")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(p.failures.WithLabelValues("timeout")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(p.audits.WithLabelValues("scored")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(p.audits.WithLabelValues("inconclusive")), 1e-9)
}

func TestPrometheus_CategoryHistogram(t *testing.T) {
	p := NewPrometheus()

	p.CategoryJudged(1500 * time.Millisecond)
	p.CategoryJudged(200 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(p.categoryTime))
	count, err := testutil.GatherAndCount(p.Registry(), "auditkit_category_judgment_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.JudgmentFailed("rate_limit")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `auditkit_judgment_failures_total{reason="rate_limit"} 1`))
}
