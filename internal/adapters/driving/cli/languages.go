package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Long:  `List the languages documents can be read and translated in, with the number of documents detected in each.`,
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	var stats map[domain.Language]int
	if documentService != nil {
		var err error
		stats, err = documentService.LanguageStats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to count documents: %w", err)
		}
	}

	cmd.Println("Supported languages:")
	cmd.Println()
	for _, info := range domain.Languages() {
		cmd.Printf("  %-3s %-8s %-10s %-11s %d documents\n",
			info.Code, info.Name, info.NativeName, info.ScriptName, stats[info.Code])
	}
	if n := stats[domain.LanguageUndetermined]; n > 0 {
		cmd.Printf("\n  %d documents with undetermined language\n", n)
	}
	return nil
}
