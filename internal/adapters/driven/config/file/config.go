// Package file loads the engine configuration from a TOML file with
// environment variable overrides. Every tunable the retrieval engine
// exposes lives here so that weights, k, and chunk windows can change
// without a rebuild of the binary.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

// ConfigFileName is the expected filename within the config directory.
const ConfigFileName = "config.toml"

// SearchConfig tunes the query path.
type SearchConfig struct {
	// K is the default number of results returned per query.
	K int `toml:"k"`

	// SemanticWeight and LexicalWeight weight the two sub-scores in the
	// composite. They are normalized to sum to 1.0 at load time.
	SemanticWeight float64 `toml:"semantic_weight"`
	LexicalWeight  float64 `toml:"lexical_weight"`

	// SemanticMultiplier and LexicalMultiplier size the candidate pools:
	// each sub-search fetches k * multiplier candidates before merging.
	SemanticMultiplier int `toml:"semantic_multiplier"`
	LexicalMultiplier  int `toml:"lexical_multiplier"`

	// EmbedTimeoutSeconds bounds the query embedding call. Zero disables
	// the bound.
	EmbedTimeoutSeconds int `toml:"embed_timeout_seconds"`
}

// ChunkingConfig tunes the offline chunker windows.
type ChunkingConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// EmbeddingConfig tunes the embedding client.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "ollama" or "openai".
	Provider  string `toml:"provider"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension"`
	BatchSize int    `toml:"batch_size"`

	// APIKey authenticates the openai provider. Comes from the
	// OPENAI_API_KEY environment variable, never the config file.
	APIKey string `toml:"-"`
}

// Config is the full engine configuration.
type Config struct {
	Search    SearchConfig    `toml:"search"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() Config {
	return Config{
		Search: SearchConfig{
			K:                   3,
			SemanticWeight:      0.7,
			LexicalWeight:       0.3,
			SemanticMultiplier:  2,
			LexicalMultiplier:   2,
			EmbedTimeoutSeconds: 10,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "nomic-embed-text",
			Dimension: 768,
			BatchSize: 100,
		},
	}
}

// Load reads configuration from configDir/config.toml (if present),
// applies environment variable overrides, normalizes the search weights,
// and validates. A missing file is not an error; a malformed file or an
// invalid value is domain.ErrConfiguration.
func Load(configDir string) (Config, error) {
	cfg := Default()

	if configDir != "" {
		path := filepath.Join(configDir, ConfigFileName)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrConfiguration, path, err)
			}
		case os.IsNotExist(err):
			// No config file yet, defaults plus env apply.
		default:
			return Config{}, fmt.Errorf("%w: reading %s: %v", domain.ErrConfiguration, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.normalizeWeights()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overrides config values from environment variables. Names
// mirror the deployment environment of the original system.
func (c *Config) applyEnv() error {
	overrides := []struct {
		name  string
		apply func(string) error
	}{
		{"SEARCH_K", intVar(&c.Search.K)},
		{"SEMANTIC_WEIGHT", floatVar(&c.Search.SemanticWeight)},
		{"LEXICAL_WEIGHT", floatVar(&c.Search.LexicalWeight)},
		{"SEMANTIC_MULTIPLIER", intVar(&c.Search.SemanticMultiplier)},
		{"LEXICAL_MULTIPLIER", intVar(&c.Search.LexicalMultiplier)},
		{"EMBED_TIMEOUT_SECONDS", intVar(&c.Search.EmbedTimeoutSeconds)},
		{"CHUNK_SIZE", intVar(&c.Chunking.ChunkSize)},
		{"CHUNK_OVERLAP", intVar(&c.Chunking.ChunkOverlap)},
		{"EMBEDDING_BATCH_SIZE", intVar(&c.Embedding.BatchSize)},
		{"EMBEDDING_DIMENSION", intVar(&c.Embedding.Dimension)},
		{"OLLAMA_BASE_URL", stringVar(&c.Embedding.BaseURL)},
		{"EMBEDDING_MODEL", stringVar(&c.Embedding.Model)},
		{"EMBEDDING_PROVIDER", stringVar(&c.Embedding.Provider)},
		{"OPENAI_API_KEY", stringVar(&c.Embedding.APIKey)},
	}

	for _, o := range overrides {
		val, ok := os.LookupEnv(o.name)
		if !ok || val == "" {
			continue
		}
		if err := o.apply(val); err != nil {
			return fmt.Errorf("%w: invalid %s=%q: %v", domain.ErrConfiguration, o.name, val, err)
		}
	}
	return nil
}

// normalizeWeights rescales the search weights to sum to 1.0. A zero sum
// falls back to the defaults.
func (c *Config) normalizeWeights() {
	sum := c.Search.SemanticWeight + c.Search.LexicalWeight
	if sum <= 0 {
		c.Search.SemanticWeight = 0.7
		c.Search.LexicalWeight = 0.3
		return
	}
	c.Search.SemanticWeight /= sum
	c.Search.LexicalWeight /= sum
}

// Validate checks value ranges. Violations are fatal at startup.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, fmt.Sprintf(format, args...))
	}

	if c.Search.K <= 0 {
		return fail("search k must be positive, got %d", c.Search.K)
	}
	if c.Search.SemanticWeight < 0 || c.Search.LexicalWeight < 0 {
		return fail("search weights must be non-negative")
	}
	if c.Search.SemanticMultiplier < 1 || c.Search.LexicalMultiplier < 1 {
		return fail("candidate multipliers must be at least 1")
	}
	if c.Search.EmbedTimeoutSeconds < 0 {
		return fail("embed timeout must be non-negative, got %d", c.Search.EmbedTimeoutSeconds)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fail("chunk size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fail("chunk overlap %d must be in [0, chunk size %d)", c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Embedding.Dimension <= 0 {
		return fail("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize <= 0 {
		return fail("embedding batch size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.BaseURL == "" {
		return fail("embedding base URL must not be empty")
	}
	if c.Embedding.Model == "" {
		return fail("embedding model must not be empty")
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fail("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

// Save writes the configuration to configDir/config.toml, creating the
// directory if needed. Used by tests and first-run setup.
func (c *Config) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, ConfigFileName), data, 0600)
}

func intVar(dst *int) func(string) error {
	return func(val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatVar(dst *float64) func(string) error {
	return func(val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func stringVar(dst *string) func(string) error {
	return func(val string) error {
		*dst = val
		return nil
	}
}
