package driven

import (
	"time"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// AuditMetrics records audit orchestration telemetry.
// Implementations must be safe for concurrent use.
type AuditMetrics interface {
	// JudgmentRecorded counts one parsed criterion verdict, ERROR included.
	JudgmentRecorded(verdict domain.Verdict)

	// JudgmentFailed counts a failed classifier call or an unparsable verdict.
	// Reason is a short label such as "timeout", "rate_limit" or "invalid_verdict".
	JudgmentFailed(reason string)

	// CategoryJudged observes the wall time spent resolving one category,
	// retries and rate limit waits included.
	CategoryJudged(d time.Duration)

	// AuditCompleted counts one scored template audit.
	AuditCompleted(inconclusive bool)
}
