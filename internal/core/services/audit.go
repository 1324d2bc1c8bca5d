package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
	"github.com/custodia-labs/auditkit/internal/logger"
	"github.com/custodia-labs/auditkit/internal/transcript"
)

// Ensure AuditService implements the interface.
var _ driving.AuditService = (*AuditService)(nil)

// AuditService fans category judgments out to the classifier and scores
// the results once every category of a template has resolved.
type AuditService struct {
	templates  driven.TemplateStore
	audits     driven.AuditStore
	judge      driven.CriterionJudge
	limiter    driven.RateLimiter
	metrics    driven.AuditMetrics
	scoring    *ScoringEngine
	normalizer *TemplateNormalizer
	confidence *ConfidenceEstimator
	settings   domain.AuditSettings

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAuditService creates a new audit service.
// The judge is optional - if nil, Run returns domain.ErrClassifierUnavailable.
// The audit store and limiter are optional - if nil, results are not
// persisted and classifier calls are not rate limited.
func NewAuditService(
	templates driven.TemplateStore,
	audits driven.AuditStore,
	judge driven.CriterionJudge,
	limiter driven.RateLimiter,
	settings domain.AuditSettings,
) *AuditService {
	settings = settings.WithDefaults()
	return &AuditService{
		templates:  templates,
		audits:     audits,
		judge:      judge,
		limiter:    limiter,
		metrics:    noopMetrics{},
		scoring:    NewScoringEngine(),
		normalizer: NewTemplateNormalizer(settings.WeightEpsilon),
		confidence: NewConfidenceEstimator(settings.ValidationPenalty),
		settings:   settings,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// SetMetrics sets the telemetry sink. A nil sink disables telemetry.
func (s *AuditService) SetMetrics(m driven.AuditMetrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// Run judges the transcript against every requested template. Templates
// are judged concurrently; within a template at most settings.Concurrency
// categories are in flight. A template is scored only after all of its
// categories resolved, and the incident is combined only after all
// templates were scored.
func (s *AuditService) Run(ctx context.Context, req driving.AuditRequest) (*driving.AuditReport, error) {
	if s.judge == nil {
		return nil, domain.ErrClassifierUnavailable
	}
	incidentID := req.IncidentID
	if incidentID == "" {
		incidentID = uuid.New().String()
	}

	tr := req.Transcript
	if s.settings.RedactTranscripts {
		tr = transcript.Redact(tr)
	}
	digest := transcript.Digest(tr, s.settings.DigestMaxChars)

	ids, err := s.templateIDs(ctx, req.TemplateIDs)
	if err != nil {
		return nil, err
	}

	logger.Section("Audit")
	logger.Info("Auditing incident %s against %d templates", incidentID, len(ids))

	var (
		errs   errorList
		audits = make([]domain.AuditResult, len(ids))
		g      errgroup.Group
	)
	for i, id := range ids {
		g.Go(func() error {
			audits[i] = s.auditTemplate(ctx, incidentID, id, tr, digest, req.Notes, &errs)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.finish(ctx, audits, &errs), nil
}

// templateIDs resolves the requested ids, defaulting to every ACTIVE template.
func (s *AuditService) templateIDs(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	active, err := s.templates.List(ctx, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: no active templates", domain.ErrInvalidInput)
	}
	ids := make([]string, 0, len(active))
	for _, t := range active {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *AuditService) auditTemplate(
	ctx context.Context,
	incidentID, templateID string,
	tr domain.Transcript,
	digest, notes string,
	errs *errorList,
) domain.AuditResult {
	t, err := s.templates.Get(ctx, templateID)
	if err != nil {
		errs.add(fmt.Errorf("template %s: %w", templateID, err))
		logger.Warn("Template %s unavailable: %v", templateID, err)
		audit := s.stamp(domain.AuditResult{TemplateID: templateID, Inconclusive: true}, incidentID)
		s.metrics.AuditCompleted(true)
		return audit
	}
	if t.Status == domain.StatusArchived {
		logger.Warn("Template %s is archived", templateID)
	}

	var (
		mu      sync.Mutex
		results = make([]domain.CriterionResult, 0, t.CriterionCount())
		g       errgroup.Group
	)
	g.SetLimit(s.settings.Concurrency)
	for _, cat := range t.Categories {
		if len(cat.Criteria) == 0 {
			continue
		}
		g.Go(func() error {
			catResults := s.judgeCategory(ctx, t.ID, cat, tr, digest, notes, errs)
			mu.Lock()
			results = append(results, catResults...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	audit := s.scoring.ScoreTemplate(*t, results)
	audit = s.stamp(audit, incidentID)
	audit.Confidence = s.auditConfidence(*t, audit)
	s.save(ctx, audit, errs)
	s.metrics.AuditCompleted(audit.Inconclusive)

	logger.Info("Template %s scored %.3f (inconclusive=%t)", t.ID, audit.OverallScore, audit.Inconclusive)
	return audit
}

// judgeCategory resolves one category. Classifier failures after all
// retries mark every criterion of the category ERROR.
func (s *AuditService) judgeCategory(
	ctx context.Context,
	templateID string,
	cat domain.ComplianceCategory,
	tr domain.Transcript,
	digest, notes string,
	errs *errorList,
) []domain.CriterionResult {
	start := s.now()
	defer func() { s.metrics.CategoryJudged(s.now().Sub(start)) }()

	req := driven.JudgeRequest{
		TemplateID: templateID,
		Category:   cat,
		Digest:     digest,
		Evidence:   transcript.SelectEvidence(tr.Segments, transcript.Keywords(cat), s.settings.EvidencePerCategory),
		Notes:      notes,
	}

	raw, err := s.callJudge(ctx, req)
	if err != nil {
		errs.add(fmt.Errorf("template %s category %s: %w", templateID, cat.ID, err))
		logger.Warn("Category %s/%s failed: %v", templateID, cat.ID, err)
		results := make([]domain.CriterionResult, 0, len(cat.Criteria))
		for _, crit := range cat.Criteria {
			results = append(results, ErrorResult(crit.ID, "classifier call failed: "+err.Error()))
			s.metrics.JudgmentRecorded(domain.VerdictError)
		}
		return results
	}

	results, parseErrs := ParseJudgments(cat, raw)
	for _, e := range parseErrs {
		if errors.Is(e, domain.ErrInvalidVerdict) {
			s.metrics.JudgmentFailed("invalid_verdict")
		}
		errs.add(fmt.Errorf("template %s: %w", templateID, e))
	}
	for _, r := range results {
		s.metrics.JudgmentRecorded(r.Verdict)
	}
	logger.Debug("Category %s/%s resolved: %d judgments, %d issues", templateID, cat.ID, len(raw), len(parseErrs))
	return results
}

// callJudge waits on the rate limiter and calls the classifier with a
// per-call timeout, retrying with linear backoff.
func (s *AuditService) callJudge(ctx context.Context, req driven.JudgeRequest) ([]domain.RawJudgment, error) {
	var lastErr error
	for attempt := 0; attempt <= s.settings.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.settings.RetryBackoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
			logger.Debug("Retrying category %s (attempt %d)", req.Category.ID, attempt+1)
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.settings.JudgmentTimeout)
		raw, err := s.judge.JudgeCategory(callCtx, req)
		cancel()
		if err == nil {
			return raw, nil
		}

		lastErr = err
		s.metrics.JudgmentFailed(failureReason(err))
		var limited *driven.RateLimitError
		if errors.As(err, &limited) {
			if t, ok := s.limiter.(driven.Throttler); ok {
				t.Throttle(limited.RetryAfter)
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// ScoreRecorded scores judgments captured earlier. Judgments are routed to
// the category that owns their criterion id; ids no category owns are
// reported and ignored.
func (s *AuditService) ScoreRecorded(ctx context.Context, req driving.RecordedAudit) (*driving.AuditReport, error) {
	t := req.Template
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("%w: template has no categories", domain.ErrInvalidInput)
	}
	incidentID := req.IncidentID
	if incidentID == "" {
		incidentID = uuid.New().String()
	}

	owner := make(map[string]int)
	for i, cat := range t.Categories {
		for _, crit := range cat.Criteria {
			if _, seen := owner[crit.ID]; !seen {
				owner[crit.ID] = i
			}
		}
	}

	var errs errorList
	byCategory := make([][]domain.RawJudgment, len(t.Categories))
	for _, j := range req.Judgments {
		i, ok := owner[j.CriterionID]
		if !ok {
			errs.add(fmt.Errorf("%w: judgment for unknown criterion %q", domain.ErrInvalidInput, j.CriterionID))
			continue
		}
		byCategory[i] = append(byCategory[i], j)
	}

	var results []domain.CriterionResult
	for i, cat := range t.Categories {
		catResults, parseErrs := ParseJudgments(cat, byCategory[i])
		results = append(results, catResults...)
		for _, e := range parseErrs {
			errs.add(e)
		}
	}

	audit := s.stamp(s.scoring.ScoreTemplate(t, results), incidentID)
	audit.Confidence = s.auditConfidence(t, audit)
	s.save(ctx, audit, &errs)
	s.metrics.AuditCompleted(audit.Inconclusive)

	return s.finish(ctx, []domain.AuditResult{audit}, &errs), nil
}

// Combine averages independent audits of the same incident.
func (s *AuditService) Combine(audits []domain.AuditResult) domain.CombinedResult {
	return s.scoring.Combine(audits)
}

// GetCombined retrieves the stored combined result of an incident.
func (s *AuditService) GetCombined(ctx context.Context, incidentID string) (*domain.CombinedResult, error) {
	if s.audits == nil {
		return nil, domain.ErrNotFound
	}
	return s.audits.GetCombined(ctx, incidentID)
}

func (s *AuditService) finish(ctx context.Context, audits []domain.AuditResult, errs *errorList) *driving.AuditReport {
	combined := s.scoring.Combine(audits)
	if s.audits != nil {
		if err := s.audits.SaveCombined(ctx, combined); err != nil {
			errs.add(fmt.Errorf("save combined result: %w", err))
		}
	}
	if n := combined.InconclusiveCount(); n > 0 {
		logger.Warn("%d of %d audits were inconclusive", n, len(audits))
	}
	return &driving.AuditReport{Combined: combined, Errors: errs.list()}
}

func (s *AuditService) stamp(audit domain.AuditResult, incidentID string) domain.AuditResult {
	audit.ID = uuid.New().String()
	audit.IncidentID = incidentID
	audit.CreatedAt = s.now()
	return audit
}

// auditConfidence starts from the template's confidence and scales it by
// the fraction of criteria that resolved to a real verdict.
func (s *AuditService) auditConfidence(t domain.ComplianceTemplate, audit domain.AuditResult) float64 {
	return s.confidence.Estimate(t.Confidence, s.normalizer.Validate(t), s.confidence.Resolved(audit))
}

func (s *AuditService) save(ctx context.Context, audit domain.AuditResult, errs *errorList) {
	if s.audits == nil {
		return
	}
	if err := s.audits.SaveAudit(ctx, audit); err != nil {
		errs.add(fmt.Errorf("save audit %s: %w", audit.ID, err))
		logger.Error("Failed to save audit %s: %v", audit.ID, err)
	}
}

func failureReason(err error) string {
	var limited *driven.RateLimitError
	switch {
	case errors.As(err, &limited):
		return "rate_limit"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// errorList collects non-fatal errors from concurrent goroutines.
type errorList struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorList) add(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *errorList) list() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

type noopMetrics struct{}

func (noopMetrics) JudgmentRecorded(domain.Verdict) {}
func (noopMetrics) JudgmentFailed(string)           {}
func (noopMetrics) CategoryJudged(time.Duration)    {}
func (noopMetrics) AuditCompleted(bool)             {}
