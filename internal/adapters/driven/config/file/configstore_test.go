package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Path(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "auditkit")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestConfigStore_NestedTablesAreFlattened(t *testing.T) {
	dir := t.TempDir()
	content := `
[audit]
concurrency = 4
requests_per_second = 1.5
judgment_timeout = "45s"
redact_transcripts = true

[llm]
provider = "ollama"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, 4, store.GetInt("audit.concurrency"))
	assert.InDelta(t, 1.5, store.GetFloat("audit.requests_per_second"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("audit.concurrency"), 1e-9)
	assert.Equal(t, "45s", store.GetString("audit.judgment_timeout"))
	assert.True(t, store.GetBool("audit.redact_transcripts"))
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, 45*time.Second, store.GetDuration("audit.judgment_timeout"))
}

func TestConfigStore_TypedGettersOnMismatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("name", "radio"))
	require.NoError(t, store.Set("count", 3))

	assert.Zero(t, store.GetInt("name"))
	assert.Zero(t, store.GetFloat("name"))
	assert.False(t, store.GetBool("count"))
	assert.Empty(t, store.GetString("count"))
	assert.Equal(t, 3*time.Second, store.GetDuration("count"))
	assert.Zero(t, store.GetDuration("name"))
	assert.Empty(t, store.GetString("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("audit.concurrency", 6))
	require.NoError(t, store.Set("audit.validation_penalty", 0.2))
	require.NoError(t, store.Set("llm.provider", "openai"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.GetInt("audit.concurrency"))
	assert.InDelta(t, 0.2, reloaded.GetFloat("audit.validation_penalty"), 1e-9)
	assert.Equal(t, "openai", reloaded.GetString("llm.provider"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Errors(t *testing.T) {
	t.Run("corrupted file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml {{{[["), 0600))

		store, err := NewConfigStore(dir)

		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("directory cannot be created", func(t *testing.T) {
		_, err := NewConfigStore("/dev/null/auditkit")
		assert.Error(t, err)
	})

	t.Run("unmarshallable value", func(t *testing.T) {
		store := newTestStore(t)
		assert.Error(t, store.Set("channel", make(chan int)))
	})

	t.Run("reload after corruption", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Set("valid", "data"))
		require.NoError(t, os.WriteFile(store.Path(), []byte("][ invalid"), 0600))

		assert.Error(t, store.Load())
	})
}

func TestConfigStore_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("# nothing yet\n"), 0600))

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	_, ok := store.Get("audit.concurrency")
	assert.False(t, ok)
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("audit.burst", i)
			_ = store.GetInt("audit.burst")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("audit.burst"), 0)
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("audit.retry_backoff", "1m30s"))
	require.NoError(t, store.Set("audit.judgment_timeout", 2.5))
	require.NoError(t, store.Set("audit.negative", "-5s"))

	assert.Equal(t, 90*time.Second, store.GetDuration("audit.retry_backoff"))
	assert.Equal(t, 2500*time.Millisecond, store.GetDuration("audit.judgment_timeout"))
	assert.Zero(t, store.GetDuration("audit.negative"))
	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_SavesTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("audit.concurrency", 4))
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("verbose", true))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "[audit]")
	assert.Contains(t, text, "[llm]")
	assert.Contains(t, text, "verbose = true")
	assert.False(t, strings.Contains(text, "'audit.concurrency'"), text)
}

func TestNestMap(t *testing.T) {
	got := nestMap(map[string]any{
		"audit.burst":      4,
		"audit.llm.model":  "m",
		"name":             "radio",
		"name.suffix":      "x",
		"audit.burst.slow": 1,
	})

	assert.Equal(t, map[string]any{
		"audit": map[string]any{
			"burst": 4,
			"llm":   map[string]any{"model": "m"},
		},
		"name":             "radio",
		"name.suffix":      "x",
		"audit.burst.slow": 1,
	}, got)
}
