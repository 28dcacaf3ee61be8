package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

var (
	searchCategory string
	searchLimit    int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus",
	Long: `Runs a hybrid query against the current corpus version: the query is
embedded and matched against the vector index while simultaneously
scored against the TF-IDF index, and the two candidate lists are merged
into one ranked result list.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "restrict results to one category")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses the configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := domain.SearchOptions{K: searchLimit}
	if searchCategory != "" {
		category, err := domain.ParseCategory(searchCategory)
		if err != nil {
			return fmt.Errorf("category %q: %w (valid: %v)", searchCategory, err, domain.Categories())
		}
		opts.Category = &category
	}

	svc, cleanup, err := openSearch(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := svc.Search(ctx, args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.ChunkID, r.Score)
		cmd.Printf("      Document: %s  Category: %s", r.SourceDocument, r.Category)
		if r.Page != nil {
			cmd.Printf("  Page: %d", *r.Page)
		}
		cmd.Println()
		cmd.Printf("      semantic=%.3f lexical=%.3f type=%s\n", r.SemanticScore, r.LexicalScore, r.ChunkType)

		snippet := r.Text
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		cmd.Printf("      %s\n", snippet)
		cmd.Println()
	}

	return nil
}
