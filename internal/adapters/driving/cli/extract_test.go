package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

const policyMarkdown = "# Radio Policy\n\n## Mayday\n\nDeclare a mayday.\n\n## Roll Call\n\nComplete a PAR.\n"

func TestExtractCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "extract")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestExtractCmd_PrintsSectionTree(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, "policy.md", policyMarkdown)

	out, err := execute(t, "extract", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Radio Policy")
	assert.Contains(t, out, "markdown, ")
	assert.Contains(t, out, "  [s1.1] Mayday")
	assert.Contains(t, out, "Roll Call")
}

func TestExtractCmd_JSONOutput(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, "policy.md", policyMarkdown)

	out, err := execute(t, "extract", "--json", path)

	require.NoError(t, err)
	var content domain.ExtractedContent
	require.NoError(t, json.Unmarshal([]byte(out), &content))
	assert.Equal(t, "Radio Policy", content.Title)
	assert.Equal(t, domain.Format("markdown"), content.Metadata.Format)
}

func TestExtractCmd_DeclaredFormatOverridesExtension(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, "policy.dat", policyMarkdown)

	out, err := execute(t, "extract", "--format", "md", "--json", path)

	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Radio Policy"`)
}

func TestExtractCmd_UnsupportedFormat(t *testing.T) {
	setupTestServices(t)
	path := writeFile(t, "scan.tiff", "II*")

	_, err := execute(t, "extract", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "extract", "/nonexistent/policy.md")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestExtractCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(nil)
	path := writeFile(t, "policy.md", policyMarkdown)

	_, err := execute(t, "extract", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction service not configured")
}
