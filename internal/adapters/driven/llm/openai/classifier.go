// Package openai provides the external classifier over the OpenAI chat
// completions API. Any compatible endpoint works, including a local Ollama.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Ensure Classifier implements the classifier ports.
var (
	_ driven.TemplateProposer = (*Classifier)(nil)
	_ driven.CriterionJudge   = (*Classifier)(nil)
	_ driven.PromptStoreAware = (*Classifier)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// errorBodyLimit caps how much of an error response is quoted back.
const errorBodyLimit = 512

// Config holds configuration for the classifier.
type Config struct {
	// APIKey is the bearer token. Optional for local endpoints.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the HTTP client timeout (default: 120s).
	Timeout time.Duration

	// RequireAPIKey rejects an empty APIKey.
	RequireAPIKey bool
}

// Classifier proposes templates and judges criteria using chat completions.
type Classifier struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// New creates a classifier.
func New(cfg Config) (*Classifier, error) {
	if cfg.RequireAPIKey && cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Classifier{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// ModelName returns the chat model in use.
func (c *Classifier) ModelName() string {
	return c.model
}

// ProposeTemplate asks the model for a draft template and returns its JSON.
func (c *Classifier) ProposeTemplate(ctx context.Context, req driven.ProposalRequest) ([]byte, error) {
	if req.Content == nil {
		return nil, fmt.Errorf("%w: no content to propose from", domain.ErrInvalidInput)
	}
	prompt, err := c.loadPrompt(driven.PromptProposeTemplate)
	if err != nil {
		return nil, err
	}

	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = "none"
	}
	user := fmt.Sprintf(prompt, instructions, documentBrief(req.Content, req.MaxChars))

	out, err := c.complete(ctx, []chatMessage{{Role: "user", Content: user}})
	if err != nil {
		return nil, fmt.Errorf("propose template: %w", err)
	}
	return []byte(out), nil
}

// judgePayload is the user message for one category judgment.
type judgePayload struct {
	TemplateID string            `json:"template_id"`
	Category   judgeCategory     `json:"category"`
	Digest     string            `json:"transcript_digest"`
	Notes      string            `json:"additional_notes,omitempty"`
	Evidence   []domain.Evidence `json:"evidence"`
}

type judgeCategory struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Criteria []judgeCriterion `json:"criteria"`
}

type judgeCriterion struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	ScoringGuidance string `json:"scoring_guidance,omitempty"`
}

type judgeResponse struct {
	Judgments []domain.RawJudgment `json:"judgments"`
}

// JudgeCategory asks the model for one judgment per criterion of a category.
func (c *Classifier) JudgeCategory(ctx context.Context, req driven.JudgeRequest) ([]domain.RawJudgment, error) {
	system, err := c.loadPrompt(driven.PromptJudgeCategory)
	if err != nil {
		return nil, err
	}

	payload := judgePayload{
		TemplateID: req.TemplateID,
		Category: judgeCategory{
			ID:       req.Category.ID,
			Name:     req.Category.Name,
			Criteria: make([]judgeCriterion, 0, len(req.Category.Criteria)),
		},
		Digest:   req.Digest,
		Notes:    req.Notes,
		Evidence: req.Evidence,
	}
	if payload.Evidence == nil {
		payload.Evidence = []domain.Evidence{}
	}
	for _, crit := range req.Category.Criteria {
		payload.Category.Criteria = append(payload.Category.Criteria, judgeCriterion{
			ID:              crit.ID,
			Description:     crit.Description,
			ScoringGuidance: crit.ScoringGuidance,
		})
	}
	user, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal judge payload: %w", err)
	}

	out, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: string(user)},
	})
	if err != nil {
		return nil, fmt.Errorf("judge category %s: %w", req.Category.ID, err)
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return nil, fmt.Errorf("judge category %s: %w: %v", req.Category.ID, domain.ErrInvalidInput, err)
	}
	return resp.Judgments, nil
}

// Ping checks the endpoint is reachable and the key is accepted.
func (c *Classifier) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	c.authorise(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// complete sends one chat completion in JSON mode and returns the message content.
func (c *Classifier) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorise(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("openai error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}
	return stripFences(chat.Choices[0].Message.Content), nil
}

func (c *Classifier) authorise(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Classifier) loadPrompt(name string) (string, error) {
	if c.promptStore == nil {
		return "", fmt.Errorf("openai: no prompt store for %q", name)
	}
	prompt, err := c.promptStore.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}
	return prompt, nil
}

// statusError maps a non-200 response. 429 becomes a RateLimitError carrying Retry-After.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	message := strings.TrimSpace(string(raw))
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil {
		message = wrapped.Error.Message
	}
	err := fmt.Errorf("openai error (status %d): %s", resp.StatusCode, message)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &driven.RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Err: err}
	}
	return err
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// documentBrief renders the section outline followed by the document text
// truncated to maxChars runes.
func documentBrief(content *domain.ExtractedContent, maxChars int) string {
	var b strings.Builder
	if content.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", content.Title)
	}
	b.WriteString("Sections:\n")
	for _, root := range content.Sections {
		root.Walk(func(s domain.DocumentSection) {
			indent := strings.Repeat("  ", max(s.Level-1, 0))
			fmt.Fprintf(&b, "%s- [%s] %s\n", indent, s.ID, s.Title)
		})
	}
	b.WriteString("\nText:\n")

	text := []rune(content.RawText)
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	b.WriteString(string(text))
	return b.String()
}
