package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArabianCowboy/SFDA-copilot/internal/chunker"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driving"
	"github.com/ArabianCowboy/SFDA-copilot/internal/corpus"
	"github.com/ArabianCowboy/SFDA-copilot/internal/logger"
)

var buildWorkers int

var buildCmd = &cobra.Command{
	Use:   "build [pages.jsonl]",
	Short: "Build a new corpus version from extracted pages",
	Long: `Reads extracted document pages from a JSON Lines file (one page
object per line, as produced by the document processing pipeline),
chunks and embeds them, and publishes the result as the new current
corpus version. The previous version stays on disk untouched.

Each line has the form:

  {"text": "...", "source_document": "guideline.pdf", "category": "regulatory", "page": 4}`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "concurrent embedding batches")
	rootCmd.AddCommand(buildCmd)
}

// pageLine is the JSONL input record.
type pageLine struct {
	Text           string          `json:"text"`
	SourceDocument string          `json:"source_document"`
	Category       string          `json:"category"`
	Page           json.RawMessage `json:"page"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pages, err := readPages(args[0])
	if err != nil {
		return err
	}
	logger.Info("build: read %d pages from %s", len(pages), args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	layout, err := corpus.NewLayout(dataDir)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	if err := embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding service not reachable: %w", err)
	}

	ch := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.ChunkOverlap),
	)

	params := corpus.DefaultBuildParams()
	params.BatchSize = cfg.Embedding.BatchSize
	params.Workers = buildWorkers

	builder := corpus.NewBuilder(layout, embedder, ch, params)
	stats, err := builder.Build(ctx, pages)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	cmd.Printf("Built corpus version %s\n", stats.Version)
	cmd.Printf("  chunks:    %d (%d tables)\n", stats.Chunks, stats.TableChunks)
	cmd.Printf("  dimension: %d\n", stats.Dimension)
	return nil
}

// readPages parses the JSONL pages file. Malformed page numbers are
// coerced to nil rather than failing the build.
func readPages(path string) ([]driving.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pages file: %w", err)
	}
	defer f.Close()

	var pages []driving.Page
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var pl pageLine
		if err := json.Unmarshal(line, &pl); err != nil {
			return nil, fmt.Errorf("pages file line %d: %w", lineNo, err)
		}

		pages = append(pages, driving.Page{
			Text:           pl.Text,
			SourceDocument: pl.SourceDocument,
			Category:       pl.Category,
			Page:           parsePageNumber(pl.Page, lineNo),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pages file: %w", err)
	}

	return pages, nil
}

// parsePageNumber accepts a JSON number, a numeric string, or nothing.
// Anything else becomes nil with a warning; bad metadata must not block
// a build.
func parsePageNumber(raw json.RawMessage, lineNo int) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, convErr := fmt.Sscanf(s, "%d", &n); convErr == nil {
			return &n
		}
	}

	logger.Warn("pages file line %d: unparseable page number %s, using null", lineNo, string(raw))
	return nil
}
