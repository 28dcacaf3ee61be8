// Package cli implements the cobra command tree for the retrieval
// engine: building a corpus, searching it, and inspecting the category
// set.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/config/file"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/embedding/ollama"
	"github.com/ArabianCowboy/SFDA-copilot/internal/adapters/driven/embedding/openai"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/services"
	"github.com/ArabianCowboy/SFDA-copilot/internal/corpus"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	dataDir   string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "sfda",
	Short: "Hybrid retrieval engine for pharmaceutical regulatory documents",
	Long: `sfda builds and queries a hybrid retrieval corpus over SFDA
regulatory documents. A corpus build chunks extracted document text,
embeds every chunk, and persists a vector index, a TF-IDF index, and a
metadata table as one immutable version. Queries run both indices and
merge their scores into a single ranked list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir("data"), "corpus data directory")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", defaultDir(""), "configuration directory")
}

// defaultDir resolves ~/.sfda[/sub], falling back to a relative path
// when the home directory is unknown.
func defaultDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sfda", sub)
}

// Execute runs the CLI.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// loadConfig reads the TOML config plus env overrides.
func loadConfig() (file.Config, error) {
	cfg, err := file.Load(configDir)
	if err != nil {
		return file.Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// newEmbedder builds the configured embedding client.
func newEmbedder(cfg file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		// The base_url knob defaults to the local Ollama address; for
		// the hosted provider an unchanged default means "use the API's
		// own default endpoint".
		baseURL := cfg.Embedding.BaseURL
		if baseURL == ollama.DefaultBaseURL {
			baseURL = ""
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    baseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimension,
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimension,
		}), nil
	}
}

// openSearch loads the current corpus version and constructs the search
// facade over it. The returned cleanup closes everything.
func openSearch(ctx context.Context) (*services.SearchService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	layout, err := corpus.NewLayout(dataDir)
	if err != nil {
		return nil, nil, err
	}

	c, err := corpus.Load(ctx, layout, cfg.Embedding.Dimension)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	svc, err := services.NewSearchService(c.Store, c.Vector, c.Lexical, embedder, services.SearchParams{
		DefaultK:           cfg.Search.K,
		SemanticWeight:     cfg.Search.SemanticWeight,
		LexicalWeight:      cfg.Search.LexicalWeight,
		SemanticMultiplier: cfg.Search.SemanticMultiplier,
		LexicalMultiplier:  cfg.Search.LexicalMultiplier,
		EmbedTimeout:       time.Duration(cfg.Search.EmbedTimeoutSeconds) * time.Second,
	})
	if err != nil {
		c.Close()
		embedder.Close()
		return nil, nil, err
	}

	cleanup := func() {
		embedder.Close()
		c.Close()
	}
	return svc, cleanup, nil
}
