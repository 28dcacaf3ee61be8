package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Search.K)
	assert.InDelta(t, 0.7, cfg.Search.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.LexicalWeight, 1e-9)
	assert.Equal(t, 2, cfg.Search.SemanticMultiplier)
	assert.Equal(t, 10, cfg.Search.EmbedTimeoutSeconds)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[search]
k = 10
semantic_weight = 0.6
lexical_weight = 0.4
embed_timeout_seconds = 30

[embedding]
dimension = 1536
model = "text-embedding-ada-002"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.K)
	assert.InDelta(t, 0.6, cfg.Search.SemanticWeight, 1e-9)
	assert.Equal(t, 30, cfg.Search.EmbedTimeoutSeconds)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, "text-embedding-ada-002", cfg.Embedding.Model)
	// Sections absent from the file keep defaults.
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("[search\nk ="), 0600))

	_, err := Load(dir)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCH_K", "7")
	t.Setenv("SEMANTIC_MULTIPLIER", "3")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("EMBEDDING_DIMENSION", "384")
	t.Setenv("EMBED_TIMEOUT_SECONDS", "5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Search.K)
	assert.Equal(t, 3, cfg.Search.SemanticMultiplier)
	assert.Equal(t, "http://ollama:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 5, cfg.Search.EmbedTimeoutSeconds)
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("SEARCH_K", "not-a-number")

	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoad_WeightNormalization(t *testing.T) {
	t.Setenv("SEMANTIC_WEIGHT", "0.3")
	t.Setenv("LEXICAL_WEIGHT", "0.3")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.Search.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.5, cfg.Search.LexicalWeight, 1e-9)
	assert.InDelta(t, 1.0, cfg.Search.SemanticWeight+cfg.Search.LexicalWeight, 1e-9)
}

func TestLoad_ZeroWeightsFallBack(t *testing.T) {
	t.Setenv("SEMANTIC_WEIGHT", "0")
	t.Setenv("LEXICAL_WEIGHT", "0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.InDelta(t, 0.7, cfg.Search.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.LexicalWeight, 1e-9)
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero k", func(c *Config) { c.Search.K = 0 }},
		{"negative weight", func(c *Config) { c.Search.SemanticWeight = -0.1 }},
		{"zero multiplier", func(c *Config) { c.Search.LexicalMultiplier = 0 }},
		{"negative embed timeout", func(c *Config) { c.Search.EmbedTimeoutSeconds = -1 }},
		{"zero chunk size", func(c *Config) { c.Chunking.ChunkSize = 0 }},
		{"overlap >= size", func(c *Config) { c.Chunking.ChunkOverlap = 1000 }},
		{"zero dimension", func(c *Config) { c.Embedding.Dimension = 0 }},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }},
		{"empty base URL", func(c *Config) { c.Embedding.BaseURL = "" }},
		{"empty model", func(c *Config) { c.Embedding.Model = "" }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "azure" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Search.K = 5
	cfg.Embedding.Model = "mxbai-embed-large"
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Search.K)
	assert.Equal(t, "mxbai-embed-large", loaded.Embedding.Model)
}
