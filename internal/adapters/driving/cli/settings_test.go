package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd_Unconfigured(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "Status: not configured")
	assert.Contains(t, out, "Concurrency: 3")
	assert.Contains(t, out, "Run 'auditkit settings llm'")
}

func TestSettingsLLMCmd_Ollama(t *testing.T) {
	env := setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("2\n\n"))

	out, err := execute(t, "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "LLM provider configured: Ollama (local) (llama3.1)")
	assert.Equal(t, "ollama", env.config.GetString("llm.provider"))
	assert.Equal(t, domain.DefaultOllamaBaseURL, env.config.GetString("llm.base_url"))
}

func TestSettingsLLMCmd_OpenAI(t *testing.T) {
	setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("1\ngpt-4o\nsk-test-123456789\n"))

	_, err := execute(t, "settings", "llm")
	require.NoError(t, err)

	out, err := execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "Model: gpt-4o")
	assert.Contains(t, out, "API Key: sk-t...6789")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsLLMCmd_OpenAIRequiresKey(t *testing.T) {
	setupTestServices(t)
	rootCmd.SetIn(strings.NewReader("1\n\n\n"))

	_, err := execute(t, "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsLLMCmd_CheckFails(t *testing.T) {
	setupTestServices(t)
	var checked domain.LLMSettings
	classifierCheck = func(_ context.Context, s domain.LLMSettings) error {
		checked = s
		return errors.New("connection refused")
	}
	rootCmd.SetIn(strings.NewReader("2\nmistral\n"))

	out, err := execute(t, "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM configuration validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
	assert.Equal(t, domain.AIProviderOllama, checked.Provider)
	assert.Equal(t, "mistral", checked.Model)
}

func TestSettingsAuditCmd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings", "audit", "--concurrency", "5", "--timeout", "90s", "--redact")

	require.NoError(t, err)
	assert.Contains(t, out, "Audit settings saved")

	got, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, got.Concurrency)
	assert.Equal(t, 90*time.Second, got.JudgmentTimeout)
	assert.True(t, got.RedactTranscripts)
	assert.InDelta(t, domain.DefaultRequestsPerSecond, got.RequestsPerSecond, 1e-9)
	assert.Equal(t, domain.DefaultMaxRetries, got.MaxRetries)
}

func TestSettingsAuditCmd_Invalid(t *testing.T) {
	setupTestServices(t)

	for _, args := range [][]string{
		{"--concurrency", "0"},
		{"--rps", "-1"},
		{"--timeout", "0s"},
		{"--retries", "-2"},
	} {
		_, err := execute(t, append([]string{"settings", "audit"}, args...)...)
		require.Error(t, err, args)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, args)
	}
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
