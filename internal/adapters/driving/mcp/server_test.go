package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/services"
	"github.com/custodia-labs/auditkit/internal/extractors"
)

const radioTemplateYAML = `id: tpl-radio
name: Radio
categories:
  - id: mayday
    name: Mayday
    weight: 0.5
    criteria:
      - {id: m1, description: Mayday declared, weight: 0.5}
      - {id: m2, description: Location given, weight: 0.5}
  - id: par
    name: PAR
    weight: 0.5
    criteria:
      - {id: p1, description: PAR completed, weight: 1}
`

type fixture struct {
	server    *Server
	templates *memory.TemplateStore
	audits    *memory.AuditStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates := memory.NewTemplateStore()
	audits := memory.NewAuditStore()
	settings := domain.DefaultAuditSettings()

	server, err := NewServer(&Ports{
		Extraction: services.NewExtractionService(extractors.NewDefaultRegistry()),
		Templates:  services.NewTemplateService(templates, nil, settings),
		Audits:     services.NewAuditService(templates, audits, nil, nil, settings),
	})
	require.NoError(t, err)
	return &fixture{server: server, templates: templates, audits: audits}
}

func TestPorts_Validate(t *testing.T) {
	f := newFixture(t)
	full := *f.server.ports

	tests := []struct {
		name  string
		ports Ports
		want  error
	}{
		{"no extraction", Ports{Templates: full.Templates, Audits: full.Audits}, ErrMissingExtractionService},
		{"no templates", Ports{Extraction: full.Extraction, Audits: full.Audits}, ErrMissingTemplateService},
		{"no audits", Ports{Extraction: full.Extraction, Templates: full.Templates}, ErrMissingAuditService},
		{"complete", full, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingExtractionService)
}

func TestServer_handleExtract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, out, err := f.server.handleExtract(ctx, nil, ExtractInput{
		Name:        "policy.md",
		Content:     "# Radio Policy\n\n## Mayday\n\nDeclare it.\n",
		IncludeText: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "markdown", out.Format)
	require.NotEmpty(t, out.Sections)
	assert.Equal(t, "s1", out.Sections[0].ID)
	assert.Contains(t, out.Sections[len(out.Sections)-1].Text, "Declare it.")

	_, out, err = f.server.handleExtract(ctx, nil, ExtractInput{
		Name:          "notes.txt",
		ContentBase64: base64.StdEncoding.EncodeToString([]byte("plain notes")),
	})
	require.NoError(t, err)
	assert.Equal(t, "text", out.Format)
	assert.Empty(t, out.Sections[0].Text)

	_, _, err = f.server.handleExtract(ctx, nil, ExtractInput{Name: "a.txt", ContentBase64: "!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.server.handleExtract(ctx, nil, ExtractInput{Name: "scan.tiff", Content: "II*"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestServer_handleValidate(t *testing.T) {
	f := newFixture(t)

	_, out, err := f.server.handleValidate(context.Background(), nil, TemplateInput{Template: radioTemplateYAML})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Issues)

	broken := `{"categories": [{"id": "a", "weight": 2, "criteria": []}]}`
	_, out, err = f.server.handleValidate(context.Background(), nil, TemplateInput{Template: broken})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	codes := make([]domain.IssueCode, 0, len(out.Issues))
	for _, issue := range out.Issues {
		codes = append(codes, issue.Code)
	}
	assert.ElementsMatch(t, []domain.IssueCode{domain.IssueWeightOutOfRange, domain.IssueEmptyCategory}, codes)

	_, _, err = f.server.handleValidate(context.Background(), nil, TemplateInput{Template: "{not json"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_handleNormalize(t *testing.T) {
	f := newFixture(t)
	input := TemplateInput{
		Name:     "radio.json",
		Template: `{"id": "t", "categories": [{"id": "a", "weight": 0.2, "criteria": [{"id": "x", "weight": 0.5}]}]}`,
	}

	_, out, err := f.server.handleNormalize(context.Background(), nil, input)

	require.NoError(t, err)
	assert.Len(t, out.Adjustments, 2)

	var normalized domain.ComplianceTemplate
	require.NoError(t, json.Unmarshal([]byte(out.Template), &normalized))
	assert.InDelta(t, 1.0, normalized.Categories[0].Weight, 1e-9)
	assert.InDelta(t, 1.0, normalized.Categories[0].Criteria[0].Weight, 1e-9)
}

func TestServer_handleScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	judgments := `[
	  {"criterion_id": "m1", "verdict": "PASS"},
	  {"criterion_id": "m2", "verdict": "FAIL"},
	  {"criterion_id": "p1", "verdict": "PASS"},
	  {"criterion_id": "zz", "verdict": "PASS"}
	]`

	_, out, err := f.server.handleScore(ctx, nil, ScoreInput{
		IncidentID: "inc-7",
		Template:   radioTemplateYAML,
		Judgments:  judgments,
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.75, out.Audit.OverallScore, 1e-9)
	assert.False(t, out.Audit.Inconclusive)
	require.Len(t, out.Audit.Categories, 2)
	assert.Equal(t, 1, out.Audit.Categories[0].Passed)
	assert.Equal(t, 2, out.Audit.Categories[0].Applicable)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "zz")

	combined, err := f.audits.GetCombined(ctx, "inc-7")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, combined.OverallScore, 1e-9)

	_, _, err = f.server.handleScore(ctx, nil, ScoreInput{Template: radioTemplateYAML, Judgments: "[{"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_handleCombine(t *testing.T) {
	f := newFixture(t)

	_, out, err := f.server.handleCombine(context.Background(), nil, CombineInput{Audits: []string{
		`{"id": "a1", "incident_id": "inc-1", "template_id": "t1", "overall_score": 0.8}`,
		"id: a2\nincident_id: inc-1\ntemplate_id: t2\noverall_score: 0\ninconclusive: true\n",
	}})

	require.NoError(t, err)
	assert.InDelta(t, 0.4, out.OverallScore, 1e-9)
	assert.Equal(t, 1, out.Inconclusive)
	assert.Len(t, out.PerTemplate, 2)

	_, _, err = f.server.handleCombine(context.Background(), nil, CombineInput{Audits: []string{"{"}})
	assert.ErrorContains(t, err, "audit 0")
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_TemplateResources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.templates.Save(ctx, domain.ComplianceTemplate{
		ID: "tpl-radio", Name: "Radio", Status: domain.StatusActive,
		Categories: []domain.ComplianceCategory{{ID: "par", Weight: 1, Criteria: []domain.ComplianceCriterion{{ID: "p1", Weight: 1}}}},
	}))

	list, err := f.server.handleTemplatesResource(ctx, readRequest("auditkit://templates"))
	require.NoError(t, err)
	require.Len(t, list.Contents, 1)
	assert.Contains(t, list.Contents[0].Text, `"uri": "auditkit://templates/tpl-radio"`)
	assert.Contains(t, list.Contents[0].Text, `"criteria": 1`)

	one, err := f.server.handleTemplateResource(ctx, readRequest("auditkit://templates/tpl-radio"))
	require.NoError(t, err)
	var got domain.ComplianceTemplate
	require.NoError(t, json.Unmarshal([]byte(one.Contents[0].Text), &got))
	assert.Equal(t, "Radio", got.Name)

	_, err = f.server.handleTemplateResource(ctx, readRequest("auditkit://templates/missing"))
	assert.Error(t, err)
}

func TestServer_IncidentResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.audits.SaveCombined(ctx, domain.CombinedResult{IncidentID: "inc-1", OverallScore: 0.5}))

	res, err := f.server.handleIncidentResource(ctx, readRequest("auditkit://incidents/inc-1"))
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"overall_score": 0.5`)

	_, err = f.server.handleIncidentResource(ctx, readRequest("auditkit://incidents/none"))
	assert.Error(t, err)
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		uri  string
		kind string
		want string
	}{
		{"auditkit://templates/tpl-1", "templates/", "tpl-1"},
		{"auditkit://incidents/inc-9", "incidents/", "inc-9"},
		{"auditkit://templates/a/b", "templates/", ""},
		{"file://templates/tpl-1", "templates/", ""},
		{"", "templates/", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractID(tt.uri, tt.kind), tt.uri)
	}
}

func connectInMemory(t *testing.T, ctx context.Context, s *Server) *mcp.ClientSession {
	t.Helper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_ToolDiscovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, f.server)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"extract_document", "validate_template", "normalize_template", "score_audit", "combine_audits",
	}, names)
}

func TestServer_CallValidateOverSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, f.server)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "validate_template",
		Arguments: map[string]any{"template": `{"categories": [{"id": "a", "weight": 1, "criteria": []}]}`},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var out ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	assert.False(t, out.Valid)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, domain.IssueEmptyCategory, out.Issues[0].Code)
}

func TestServer_RunHTTP(t *testing.T) {
	f := newFixture(t)

	t.Run("bad address", func(t *testing.T) {
		err := f.server.RunHTTP(context.Background(), "256.0.0.1:bad")
		assert.ErrorContains(t, err, "listen on")
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, f.server.RunHTTP(ctx, "127.0.0.1:0"))
	})
}

func TestNewServerWithVersion_DefaultsVersion(t *testing.T) {
	f := newFixture(t)

	s, err := NewServerWithVersion(f.server.ports, "")

	require.NoError(t, err)
	assert.NotNil(t, s.Handler())
}
