package transcript

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

var wordPattern = regexp.MustCompile(`[a-z0-9']+`)

// stopwords are dropped from category keywords.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "an": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "by": {}, "with": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"as": {}, "at": {}, "from": {}, "this": {}, "that": {}, "it": {}, "or": {}, "if": {},
	"not": {}, "no": {}, "yes": {}, "do": {}, "did": {}, "does": {}, "done": {}, "have": {},
	"has": {}, "had": {}, "i": {}, "you": {}, "we": {}, "they": {},
}

// Tokenize lowercases text and returns its words without stopwords or
// pure numbers.
func Tokenize(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop || isNumber(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumber(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Keywords returns the distinct tokens of a category name and its criteria,
// in order of first appearance. A criterion without a description
// contributes its id.
func Keywords(cat domain.ComplianceCategory) []string {
	parts := []string{cat.Name}
	for _, c := range cat.Criteria {
		if c.Description != "" {
			parts = append(parts, c.Description)
		} else {
			parts = append(parts, c.ID)
		}
		parts = append(parts, c.ScoringGuidance)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, p := range parts {
		for _, tok := range Tokenize(p) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// Scored is a segment with its relevance score.
type Scored struct {
	Segment domain.Segment
	Score   float64
}

// Rank scores every segment by keyword tf-idf and returns those with a
// positive score, best first. Ties keep transcript order. Term frequency
// counts substring occurrences.
func Rank(segments []domain.Segment, keywords []string) []Scored {
	if len(keywords) == 0 || len(segments) == 0 {
		return nil
	}

	texts := make([]string, len(segments))
	df := make(map[string]int, len(keywords))
	for i, seg := range segments {
		texts[i] = strings.ToLower(seg.Text)
		for _, kw := range keywords {
			if kw != "" && texts[i] != "" && strings.Contains(texts[i], kw) {
				df[kw]++
			}
		}
	}

	n := float64(len(segments))
	var scored []Scored
	for i, text := range texts {
		score := 0.0
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			tf := strings.Count(text, kw)
			if tf == 0 {
				continue
			}
			score += float64(tf) * n / float64(max(1, df[kw]))
		}
		if score > 0 {
			scored = append(scored, Scored{Segment: segments[i], Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// SelectEvidence returns up to k of the most relevant segments as evidence.
// Segments that share no keyword are never returned.
func SelectEvidence(segments []domain.Segment, keywords []string, k int) []domain.Evidence {
	if k <= 0 {
		return nil
	}
	ranked := Rank(segments, keywords)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]domain.Evidence, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, domain.Evidence{
			Text:     s.Segment.Text,
			StartSec: s.Segment.StartSec,
			EndSec:   s.Segment.EndSec,
		})
	}
	return out
}
