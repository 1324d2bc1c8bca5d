package transcript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func sampleTranscript() domain.Transcript {
	return domain.Transcript{
		Text: "full text",
		Segments: []domain.Segment{
			{StartSec: 0, EndSec: 2.5, Text: "Engine 4 on scene, establishing command"},
			{StartSec: 2.5, EndSec: 4, Text: "  "},
			{StartSec: 65.25, EndSec: 70, Text: "Mayday mayday mayday, firefighter down"},
			{StartSec: 3725.5, EndSec: 3730, Text: "PAR complete, all accounted for"},
		},
	}
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.00", Timestamp(0))
	assert.Equal(t, "00:01:05.25", Timestamp(65.25))
	assert.Equal(t, "01:02:05.50", Timestamp(3725.5))
	assert.Equal(t, "00:00:00.00", Timestamp(-3))
}

func TestDigest(t *testing.T) {
	got := Digest(sampleTranscript(), 1000)

	want := "[00:00:00.00-00:00:02.50] Engine 4 on scene, establishing command\n" +
		"[00:01:05.25-00:01:10.00] Mayday mayday mayday, firefighter down\n" +
		"[01:02:05.50-01:02:10.00] PAR complete, all accounted for"
	assert.Equal(t, want, got)
}

func TestDigest_TruncatesAtLimit(t *testing.T) {
	tr := sampleTranscript()
	first := "[00:00:00.00-00:00:02.50] Engine 4 on scene, establishing command"

	got := Digest(tr, len(first)+11)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, first, lines[0])
	assert.Equal(t, "[00:01:05.", lines[1])
}

func TestDigest_FallsBackToText(t *testing.T) {
	got := Digest(domain.Transcript{Text: "no segments here"}, 7)
	assert.Equal(t, "no segm", got)
}

func TestDigest_Empty(t *testing.T) {
	assert.Empty(t, Digest(domain.Transcript{}, 100))
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Mayday was called at 10:42 by Engine 4's officer")

	want := []string{"mayday", "called", "engine", "4's", "officer"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywords(t *testing.T) {
	cat := domain.ComplianceCategory{
		Name: "Mayday Procedures",
		Criteria: []domain.ComplianceCriterion{
			{ID: "m1", Description: "Mayday is declared"},
			{ID: "location_given"},
		},
	}

	got := Keywords(cat)

	assert.Equal(t, []string{"mayday", "procedures", "declared", "location", "given"}, got)
}

func TestSelectEvidence(t *testing.T) {
	segments := sampleTranscript().Segments

	got := SelectEvidence(segments, []string{"mayday", "command"}, 5)

	require.Len(t, got, 2)
	assert.Equal(t, "Mayday mayday mayday, firefighter down", got[0].Text)
	assert.Equal(t, 65.25, got[0].StartSec)
	assert.Equal(t, "Engine 4 on scene, establishing command", got[1].Text)
}

func TestSelectEvidence_TopK(t *testing.T) {
	segments := sampleTranscript().Segments

	got := SelectEvidence(segments, []string{"mayday", "command", "par"}, 1)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "Mayday")
}

func TestSelectEvidence_NoMatches(t *testing.T) {
	segments := sampleTranscript().Segments

	assert.Empty(t, SelectEvidence(segments, []string{"ventilation"}, 3))
	assert.Empty(t, SelectEvidence(segments, nil, 3))
	assert.Empty(t, SelectEvidence(segments, []string{"mayday"}, 0))
}

func TestRank_RarerKeywordsWeighMore(t *testing.T) {
	segments := []domain.Segment{
		{Text: "water on the fire"},
		{Text: "water supply established"},
		{Text: "primary search complete"},
	}

	ranked := Rank(segments, []string{"water", "search"})

	require.Len(t, ranked, 3)
	assert.Equal(t, "primary search complete", ranked[0].Segment.Text)
	assert.InDelta(t, 3.0, ranked[0].Score, 1e-9)
	assert.InDelta(t, 1.5, ranked[1].Score, 1e-9)
	assert.Equal(t, "water on the fire", ranked[1].Segment.Text)
}

func TestRedactText(t *testing.T) {
	out := RedactText("Call me at (555) 123-4567 or email test.user+qa@example.org")

	assert.Contains(t, out, RedactedPhone)
	assert.Contains(t, out, RedactedEmail)
	assert.NotContains(t, out, "123-4567")
	assert.NotContains(t, out, "example.org")
}

func TestRedact(t *testing.T) {
	tr := domain.Transcript{
		Text: "Contact 555-111-2222",
		Segments: []domain.Segment{
			{StartSec: 0, EndSec: 1, Text: "email me: a@b.com"},
			{StartSec: 1, EndSec: 2, Text: "no pii here"},
		},
	}

	out := Redact(tr)

	assert.Equal(t, "Contact "+RedactedPhone, out.Text)
	assert.Equal(t, "email me: "+RedactedEmail, out.Segments[0].Text)
	assert.Equal(t, "no pii here", out.Segments[1].Text)
	assert.Equal(t, 1.0, out.Segments[1].StartSec)
	assert.Equal(t, "email me: a@b.com", tr.Segments[0].Text, "input must not be modified")
}
