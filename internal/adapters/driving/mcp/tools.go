package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/auditkit/internal/codec"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
)

// ExtractInput is the input schema for the extract_document tool.
type ExtractInput struct {
	Name          string `json:"name" jsonschema:"file name, used to detect the format"`
	Format        string `json:"format,omitempty" jsonschema:"declared format (text, markdown, json, html, docx, pdf, csv, xlsx, pptx)"`
	Content       string `json:"content,omitempty" jsonschema:"document text for text based formats"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 document bytes for binary formats"`
	IncludeText   bool   `json:"include_text,omitempty" jsonschema:"include the text covered by each section"`
}

// ExtractOutput is the output schema for the extract_document tool.
type ExtractOutput struct {
	Title     string          `json:"title"`
	Format    string          `json:"format"`
	UnitCount int             `json:"unit_count"`
	Sections  []SectionOutput `json:"sections"`
}

// SectionOutput is one section of the tree in document order.
type SectionOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
	Text  string `json:"text,omitempty"`
}

// TemplateInput carries a template document as JSON or YAML.
type TemplateInput struct {
	Template string `json:"template" jsonschema:"the template document as JSON or YAML"`
	Name     string `json:"name,omitempty" jsonschema:"optional file name hinting the encoding"`
}

// ValidateOutput is the output schema for the validate_template tool.
type ValidateOutput struct {
	Valid  bool                     `json:"valid"`
	Issues []domain.ValidationIssue `json:"issues"`
}

// NormalizeOutput is the output schema for the normalize_template tool.
type NormalizeOutput struct {
	Template    string                    `json:"template"`
	Adjustments []domain.WeightAdjustment `json:"adjustments"`
}

// ScoreInput is the input schema for the score_audit tool.
type ScoreInput struct {
	IncidentID string `json:"incident_id,omitempty" jsonschema:"incident the audit belongs to"`
	Template   string `json:"template" jsonschema:"the template document as JSON or YAML"`
	Judgments  string `json:"judgments" jsonschema:"recorded judgments as JSON or YAML"`
}

// AuditOutput summarises one scored audit.
type AuditOutput struct {
	ID           string           `json:"id"`
	TemplateID   string           `json:"template_id"`
	OverallScore float64          `json:"overall_score"`
	Inconclusive bool             `json:"inconclusive"`
	Confidence   float64          `json:"confidence"`
	Categories   []CategoryOutput `json:"categories"`
}

// CategoryOutput summarises one category result.
type CategoryOutput struct {
	ID           string  `json:"id"`
	Score        float64 `json:"score"`
	Applicable   int     `json:"applicable"`
	Passed       int     `json:"passed"`
	Errors       int     `json:"errors"`
	Inapplicable bool    `json:"inapplicable"`
}

// ScoreOutput is the output schema for the score_audit tool.
type ScoreOutput struct {
	Audit    AuditOutput `json:"audit"`
	Warnings []string    `json:"warnings,omitempty"`
}

// CombineInput is the input schema for the combine_audits tool.
type CombineInput struct {
	Audits []string `json:"audits" jsonschema:"saved audit results as JSON or YAML documents"`
}

// CombineOutput is the output schema for the combine_audits tool.
type CombineOutput struct {
	OverallScore float64       `json:"overall_score"`
	Inconclusive int           `json:"inconclusive"`
	PerTemplate  []AuditOutput `json:"per_template"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_document",
		Description: "Extract the section tree of a policy document",
	}, s.handleExtract)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_template",
		Description: "Report every structural issue in a compliance template",
	}, s.handleValidate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "normalize_template",
		Description: "Rescale template weights so they sum to 1 at every level",
	}, s.handleNormalize)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "score_audit",
		Description: "Score recorded classifier judgments against a template",
	}, s.handleScore)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "combine_audits",
		Description: "Combine per-template audits of one incident into an overall score",
	}, s.handleCombine)
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	content := []byte(input.Content)
	if input.ContentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return nil, ExtractOutput{}, fmt.Errorf("%w: content_base64: %v", domain.ErrInvalidInput, err)
		}
		content = decoded
	}

	extracted, err := s.ports.Extraction.Extract(ctx, &domain.RawDocument{
		Name:    input.Name,
		Format:  domain.Format(input.Format),
		Content: content,
	})
	if err != nil {
		return nil, ExtractOutput{}, err
	}

	output := ExtractOutput{
		Title:     extracted.Title,
		Format:    string(extracted.Metadata.Format),
		UnitCount: extracted.Metadata.UnitCount,
		Sections:  []SectionOutput{},
	}
	for _, root := range extracted.Sections {
		root.Walk(func(sec domain.DocumentSection) {
			out := SectionOutput{ID: sec.ID, Title: sec.Title, Level: sec.Level}
			if input.IncludeText {
				out.Text = sec.Text(extracted.RawText)
			}
			output.Sections = append(output.Sections, out)
		})
	}
	return nil, output, nil
}

func (s *Server) handleValidate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TemplateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	t, err := codec.DecodeTemplate([]byte(input.Template), input.Name)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	result := s.ports.Templates.Validate(t)
	issues := result.Issues
	if issues == nil {
		issues = []domain.ValidationIssue{}
	}
	return nil, ValidateOutput{Valid: result.Valid, Issues: issues}, nil
}

func (s *Server) handleNormalize(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TemplateInput,
) (*mcp.CallToolResult, NormalizeOutput, error) {
	data := []byte(input.Template)
	t, err := codec.DecodeTemplate(data, input.Name)
	if err != nil {
		return nil, NormalizeOutput{}, err
	}

	normalized := s.ports.Templates.Normalize(t)
	encoded, err := codec.EncodeTemplate(normalized.Template, codec.EncodingFor(input.Name, data))
	if err != nil {
		return nil, NormalizeOutput{}, err
	}
	adjustments := normalized.Adjustments
	if adjustments == nil {
		adjustments = []domain.WeightAdjustment{}
	}
	return nil, NormalizeOutput{Template: string(encoded), Adjustments: adjustments}, nil
}

func (s *Server) handleScore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScoreInput,
) (*mcp.CallToolResult, ScoreOutput, error) {
	t, err := codec.DecodeTemplate([]byte(input.Template), "")
	if err != nil {
		return nil, ScoreOutput{}, fmt.Errorf("template: %w", err)
	}
	rec, err := codec.DecodeJudgments([]byte(input.Judgments), "")
	if err != nil {
		return nil, ScoreOutput{}, fmt.Errorf("judgments: %w", err)
	}

	incidentID := input.IncidentID
	if incidentID == "" {
		incidentID = rec.IncidentID
	}
	report, err := s.ports.Audits.ScoreRecorded(ctx, driving.RecordedAudit{
		IncidentID: incidentID,
		Template:   t,
		Judgments:  rec.Judgments,
	})
	if err != nil {
		return nil, ScoreOutput{}, err
	}
	if len(report.Combined.PerTemplate) == 0 {
		return nil, ScoreOutput{}, fmt.Errorf("%w: no audit produced", domain.ErrInvalidInput)
	}

	return nil, ScoreOutput{
		Audit:    auditOutput(report.Combined.PerTemplate[0]),
		Warnings: report.Warnings(),
	}, nil
}

func (s *Server) handleCombine(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CombineInput,
) (*mcp.CallToolResult, CombineOutput, error) {
	audits := make([]domain.AuditResult, 0, len(input.Audits))
	for i, doc := range input.Audits {
		a, err := codec.DecodeAudit([]byte(doc), "")
		if err != nil {
			return nil, CombineOutput{}, fmt.Errorf("audit %d: %w", i, err)
		}
		audits = append(audits, a)
	}

	combined := s.ports.Audits.Combine(audits)
	output := CombineOutput{
		OverallScore: combined.OverallScore,
		Inconclusive: combined.InconclusiveCount(),
		PerTemplate:  make([]AuditOutput, 0, len(combined.PerTemplate)),
	}
	for _, a := range combined.PerTemplate {
		output.PerTemplate = append(output.PerTemplate, auditOutput(a))
	}
	return nil, output, nil
}

func auditOutput(a domain.AuditResult) AuditOutput {
	out := AuditOutput{
		ID:           a.ID,
		TemplateID:   a.TemplateID,
		OverallScore: a.OverallScore,
		Inconclusive: a.Inconclusive,
		Confidence:   a.Confidence,
		Categories:   make([]CategoryOutput, 0, len(a.CategoryResults)),
	}
	for _, c := range a.CategoryResults {
		out.Categories = append(out.Categories, CategoryOutput{
			ID:           c.CategoryID,
			Score:        c.Score,
			Applicable:   c.ApplicableCount,
			Passed:       c.PassCount,
			Errors:       c.ErrorCount,
			Inapplicable: c.Inapplicable,
		})
	}
	return out
}
