package driven

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// TemplateProposer is the external analysis collaborator that proposes
// categories and criteria from extracted document text.
// This is an optional service - when nil, template generation is disabled.
type TemplateProposer interface {
	// ProposeTemplate returns a proposed template as raw JSON with
	// unnormalised weights. The caller validates and normalises it.
	ProposeTemplate(ctx context.Context, req ProposalRequest) ([]byte, error)
}

// ProposalRequest is the input to template proposal.
type ProposalRequest struct {
	// Content is the structured document the template is derived from.
	Content *domain.ExtractedContent

	// Instructions are optional user instructions.
	Instructions string

	// MaxChars caps the document text sent to the collaborator.
	MaxChars int
}

// CriterionJudge is the external classifier that judges the criteria of one
// category against a transcript. Verdicts are returned as raw strings so the
// judgment boundary owns parsing.
// This is an optional service - when nil, live audits are disabled.
type CriterionJudge interface {
	// JudgeCategory returns one raw judgment per criterion it could assess.
	JudgeCategory(ctx context.Context, req JudgeRequest) ([]domain.RawJudgment, error)
}

// JudgeRequest is the input to one category judgment call.
type JudgeRequest struct {
	// TemplateID identifies the template being applied.
	TemplateID string

	// Category is the category whose criteria are judged.
	Category domain.ComplianceCategory

	// Digest is the timestamped transcript digest.
	Digest string

	// Evidence holds the transcript excerpts most relevant to the category.
	Evidence []domain.Evidence

	// Notes are optional reviewer notes.
	Notes string
}

// RateLimiter gates outbound classifier calls.
type RateLimiter interface {
	// Wait blocks until a call may proceed or the context is done.
	Wait(ctx context.Context) error
}

// Throttler is implemented by rate limiters that can pause all callers after
// the collaborator reports it is overloaded.
type Throttler interface {
	// Throttle blocks further Waits until retryAfter has elapsed.
	Throttle(retryAfter time.Duration)
}

// RateLimitError reports that the collaborator rejected a call for exceeding
// its rate limit.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
