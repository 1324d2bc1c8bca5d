package domain

import "strings"

// Verdict is the judgment for one criterion against one transcript.
type Verdict string

// Verdict values. VerdictError is a sentinel produced at the judgment
// boundary for timeouts, failures and malformed values; it is never
// accepted from the external classifier.
const (
	VerdictPass          Verdict = "PASS"
	VerdictFail          Verdict = "FAIL"
	VerdictNotApplicable Verdict = "NOT_APPLICABLE"
	VerdictError         Verdict = "ERROR"
)

// IsValid returns true for any verdict the scoring engine accepts.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictPass, VerdictFail, VerdictNotApplicable, VerdictError:
		return true
	default:
		return false
	}
}

// Applicable is true for verdicts that count towards a category score.
func (v Verdict) Applicable() bool {
	return v == VerdictPass || v == VerdictFail
}

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// ParseVerdict converts an external classifier value into a Verdict.
// Only the exact three-value enum is accepted. Surrounding whitespace is
// ignored; any other spelling is rejected.
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(strings.TrimSpace(s)); v {
	case VerdictPass, VerdictFail, VerdictNotApplicable:
		return v, true
	default:
		return "", false
	}
}

// Evidence is one transcript excerpt supporting a verdict.
type Evidence struct {
	Text     string  `json:"text" yaml:"text"`
	StartSec float64 `json:"start_sec,omitempty" yaml:"start_sec,omitempty"`
	EndSec   float64 `json:"end_sec,omitempty" yaml:"end_sec,omitempty"`
}

// CriterionResult is the recorded judgment for one criterion.
type CriterionResult struct {
	CriterionID string     `json:"criterion_id" yaml:"criterion_id"`
	Verdict     Verdict    `json:"verdict" yaml:"verdict"`
	Evidence    []Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Rationale   string     `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// RawJudgment is an unvalidated judgment as returned by the external classifier.
type RawJudgment struct {
	CriterionID string     `json:"criterion_id" yaml:"criterion_id"`
	Verdict     string     `json:"verdict" yaml:"verdict"`
	Evidence    []Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Rationale   string     `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}
