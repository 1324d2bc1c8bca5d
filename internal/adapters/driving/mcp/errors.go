// Package mcp provides an MCP (Model Context Protocol) server adapter for auditkit.
// It lets AI assistants extract policy documents, check templates and score
// recorded judgments without going through the CLI.
package mcp

import "errors"

// Errors returned when a required port is not provided.
var (
	ErrMissingExtractionService = errors.New("mcp: extraction service is required")
	ErrMissingTemplateService   = errors.New("mcp: template service is required")
	ErrMissingAuditService      = errors.New("mcp: audit service is required")
)
