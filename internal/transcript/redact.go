package transcript

import (
	"regexp"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Redaction placeholders.
const (
	RedactedPhone = "[REDACTED_PHONE]"
	RedactedEmail = "[REDACTED_EMAIL]"
)

var (
	phonePattern = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?(\(?\d{3}\)?)[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[\w.+-]+@[\w-]+(?:\.[\w-]+)+\b`)
)

// RedactText masks North American phone numbers and email addresses.
func RedactText(text string) string {
	text = phonePattern.ReplaceAllLiteralString(text, RedactedPhone)
	return emailPattern.ReplaceAllLiteralString(text, RedactedEmail)
}

// Redact returns a copy of t with phone numbers and emails masked in the
// full text and in every segment. Names are left alone.
func Redact(t domain.Transcript) domain.Transcript {
	out := domain.Transcript{Text: RedactText(t.Text)}
	if t.Segments != nil {
		out.Segments = make([]domain.Segment, len(t.Segments))
		for i, seg := range t.Segments {
			seg.Text = RedactText(seg.Text)
			out.Segments[i] = seg
		}
	}
	return out
}
