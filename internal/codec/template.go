package codec

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

type templateWire struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	TemplateName string         `json:"template_name" yaml:"template_name"`
	SourcePolicy string         `json:"source_policy" yaml:"source_policy"`
	Categories   []categoryWire `json:"categories" yaml:"categories"`
	Confidence   *float64       `json:"confidence" yaml:"confidence"`
	Status       string         `json:"status" yaml:"status"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
}

type categoryWire struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Weight   float64         `json:"weight" yaml:"weight"`
	Criteria []criterionWire `json:"criteria" yaml:"criteria"`
}

type criterionWire struct {
	ID              string  `json:"id" yaml:"id"`
	Description     string  `json:"description" yaml:"description"`
	Label           string  `json:"label" yaml:"label"`
	ScoringGuidance string  `json:"scoring_guidance" yaml:"scoring_guidance"`
	Guidance        string  `json:"guidance" yaml:"guidance"`
	Weight          float64 `json:"weight" yaml:"weight"`
	SourceReference string  `json:"source_reference" yaml:"source_reference"`
}

// DecodeTemplate parses a template file. A missing confidence decodes as
// DefaultTemplateConfidence. Categories without an id get one derived from
// their name. Missing weights decode as zero and are spread
// evenly by normalization. Criterion ids are never invented; validation
// reports them.
func DecodeTemplate(data []byte, name string) (domain.ComplianceTemplate, error) {
	var w templateWire
	if err := unmarshal(data, EncodingFor(name, data), &w); err != nil {
		return domain.ComplianceTemplate{}, err
	}

	t := domain.ComplianceTemplate{
		ID:           strings.TrimSpace(w.ID),
		Name:         firstNonEmpty(w.Name, w.TemplateName),
		SourcePolicy: w.SourcePolicy,
		Confidence:   domain.DefaultTemplateConfidence,
		Status:       domain.TemplateStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
		Categories:   make([]domain.ComplianceCategory, 0, len(w.Categories)),
	}
	if w.Confidence != nil {
		t.Confidence = *w.Confidence
	}
	for i, cw := range w.Categories {
		cat := domain.ComplianceCategory{
			ID:       strings.TrimSpace(cw.ID),
			Name:     strings.TrimSpace(cw.Name),
			Weight:   cw.Weight,
			Criteria: make([]domain.ComplianceCriterion, 0, len(cw.Criteria)),
		}
		if cat.ID == "" {
			cat.ID = Slug(cat.Name)
		}
		if cat.ID == "" {
			cat.ID = "category_" + strconv.Itoa(i+1)
		}
		for _, crw := range cw.Criteria {
			cat.Criteria = append(cat.Criteria, domain.ComplianceCriterion{
				ID:              strings.TrimSpace(crw.ID),
				Description:     firstNonEmpty(crw.Description, crw.Label),
				ScoringGuidance: firstNonEmpty(crw.ScoringGuidance, crw.Guidance),
				Weight:          crw.Weight,
				SourceReference: strings.TrimSpace(crw.SourceReference),
			})
		}
		t.Categories = append(t.Categories, cat)
	}
	return t, nil
}

// EncodeTemplate writes a template in its canonical field spelling.
func EncodeTemplate(t domain.ComplianceTemplate, enc Encoding) ([]byte, error) {
	return Encode(t, enc)
}

// Slug lowercases s and joins its letter and digit runs with underscores.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
