package cli

import (
	"github.com/spf13/cobra"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the document categories",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, category := range domain.Categories() {
			cmd.Println(category)
		}
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
