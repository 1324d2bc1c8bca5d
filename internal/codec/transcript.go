package codec

import (
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// DecodeTranscript parses a speech-to-text transcript. When the document
// has no full text it is rebuilt from the segments.
func DecodeTranscript(data []byte, name string) (domain.Transcript, error) {
	var t domain.Transcript
	if err := unmarshal(data, EncodingFor(name, data), &t); err != nil {
		return domain.Transcript{}, err
	}
	if strings.TrimSpace(t.Text) == "" && len(t.Segments) > 0 {
		parts := make([]string, 0, len(t.Segments))
		for _, seg := range t.Segments {
			if s := strings.TrimSpace(seg.Text); s != "" {
				parts = append(parts, s)
			}
		}
		t.Text = strings.Join(parts, " ")
	}
	return t, nil
}

// DecodeAudit parses a saved AuditResult.
func DecodeAudit(data []byte, name string) (domain.AuditResult, error) {
	var a domain.AuditResult
	if err := unmarshal(data, EncodingFor(name, data), &a); err != nil {
		return domain.AuditResult{}, err
	}
	return a, nil
}
