package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for auditkit resources.
	uriScheme = "auditkit://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "templates",
		Name:        "templates",
		Description: "All stored compliance templates",
		MIMEType:    "application/json",
	}, s.handleTemplatesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "templates/{templateId}",
		Name:        "template",
		Description: "A compliance template with its categories and criteria",
		MIMEType:    "application/json",
	}, s.handleTemplateResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "incidents/{incidentId}",
		Name:        "incident-result",
		Description: "Combined audit result of an incident",
		MIMEType:    "application/json",
	}, s.handleIncidentResource)
}

// handleTemplatesResource lists stored templates without their criteria.
func (s *Server) handleTemplatesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	templates, err := s.ports.Templates.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	type templateInfo struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Status     string  `json:"status"`
		Confidence float64 `json:"confidence"`
		Categories int     `json:"categories"`
		Criteria   int     `json:"criteria"`
		URI        string  `json:"uri"`
	}

	infos := make([]templateInfo, len(templates))
	for i, t := range templates {
		infos[i] = templateInfo{
			ID:         t.ID,
			Name:       t.Name,
			Status:     string(t.Status),
			Confidence: t.Confidence,
			Categories: len(t.Categories),
			Criteria:   t.CriterionCount(),
			URI:        uriScheme + "templates/" + t.ID,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleTemplateResource returns one template.
func (s *Server) handleTemplateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractID(req.Params.URI, "templates/")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	t, err := s.ports.Templates.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting template: %w", err)
	}
	return jsonResult(req.Params.URI, t)
}

// handleIncidentResource returns the combined result of an incident.
func (s *Server) handleIncidentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractID(req.Params.URI, "incidents/")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	combined, err := s.ports.Audits.GetCombined(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting incident result: %w", err)
	}
	return jsonResult(req.Params.URI, combined)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID returns the single path segment after kind in an auditkit URI,
// e.g. auditkit://templates/{id}.
func extractID(uri, kind string) string {
	prefix := uriScheme + kind
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
