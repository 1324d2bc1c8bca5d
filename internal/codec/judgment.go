package codec

import (
	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Recording is a set of classifier judgments captured for offline scoring.
type Recording struct {
	IncidentID string
	TemplateID string
	Judgments  []domain.RawJudgment
}

type judgmentWire struct {
	CriterionID string            `json:"criterion_id" yaml:"criterion_id"`
	ID          string            `json:"id" yaml:"id"`
	Verdict     string            `json:"verdict" yaml:"verdict"`
	Status      string            `json:"status" yaml:"status"`
	Evidence    []domain.Evidence `json:"evidence" yaml:"evidence"`
	Rationale   string            `json:"rationale" yaml:"rationale"`
}

func (w judgmentWire) judgment() domain.RawJudgment {
	return domain.RawJudgment{
		CriterionID: firstNonEmpty(w.CriterionID, w.ID),
		Verdict:     firstNonEmpty(w.Verdict, w.Status),
		Evidence:    w.Evidence,
		Rationale:   w.Rationale,
	}
}

type recordingWire struct {
	IncidentID string         `json:"incident_id" yaml:"incident_id"`
	TemplateID string         `json:"template_id" yaml:"template_id"`
	Judgments  []judgmentWire `json:"judgments" yaml:"judgments"`
	Categories []struct {
		Criteria []judgmentWire `json:"criteria" yaml:"criteria"`
	} `json:"categories" yaml:"categories"`
}

// DecodeJudgments parses recorded judgments. The document is either a bare
// list of judgments, an object with a "judgments" list, or a scorecard
// object whose categories carry their criteria results. Verdict strings
// are kept verbatim for the judgment boundary to parse.
func DecodeJudgments(data []byte, name string) (Recording, error) {
	enc := EncodingFor(name, data)
	if isSequence(data, enc) {
		var list []judgmentWire
		if err := unmarshal(data, enc, &list); err != nil {
			return Recording{}, err
		}
		return Recording{Judgments: judgments(list)}, nil
	}

	var w recordingWire
	if err := unmarshal(data, enc, &w); err != nil {
		return Recording{}, err
	}
	rec := Recording{
		IncidentID: w.IncidentID,
		TemplateID: w.TemplateID,
		Judgments:  judgments(w.Judgments),
	}
	for _, cat := range w.Categories {
		rec.Judgments = append(rec.Judgments, judgments(cat.Criteria)...)
	}
	return rec, nil
}

func judgments(list []judgmentWire) []domain.RawJudgment {
	out := make([]domain.RawJudgment, 0, len(list))
	for _, w := range list {
		out = append(out, w.judgment())
	}
	return out
}
