// Package transcript prepares transcripts for judgment: a bounded digest,
// per-category evidence selection and optional PII redaction.
package transcript

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Timestamp formats seconds as hh:mm:ss.ss. Negative values clamp to zero.
func Timestamp(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	hours := int(sec / 3600)
	mins := int(math.Mod(sec, 3600) / 60)
	secs := math.Mod(sec, 60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, mins, secs)
}

// Digest renders one "[start-end] text" line per non-empty segment until
// maxChars runes are used. The line that would cross the limit is cut to
// fit. A transcript without usable segments falls back to its plain text.
func Digest(t domain.Transcript, maxChars int) string {
	if maxChars <= 0 {
		maxChars = domain.DefaultDigestMaxChars
	}

	var lines []string
	used := 0
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		line := fmt.Sprintf("[%s-%s] %s", Timestamp(seg.StartSec), Timestamp(seg.EndSec), text)
		n := utf8.RuneCountInString(line)
		if used+n > maxChars {
			if remaining := maxChars - used; remaining > 0 {
				lines = append(lines, truncate(line, remaining))
			}
			break
		}
		lines = append(lines, line)
		used += n + 1
	}

	if len(lines) == 0 && t.Text != "" {
		return truncate(t.Text, maxChars)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
