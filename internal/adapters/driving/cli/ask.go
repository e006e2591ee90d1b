package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question across indexed documents",
	Long: `Retrieve the passages most relevant to a question and compose an answer
that cites the documents it drew on.

An answer is marked uncertain when no passage is relevant enough.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var (
	askK    int
	askJSON bool
)

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", domain.DefaultK, "Number of passages to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(askCmd)
}

// askPassage is a retrieved chunk in JSON output.
type askPassage struct {
	DocumentID string  `json:"document_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"relevance_score"`
	Text       string  `json:"text"`
}

// askOutput is the JSON form of a query result.
type askOutput struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
	Passages  []askPassage      `json:"passages"`
	Uncertain bool              `json:"uncertain"`
	K         int               `json:"k"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	result, err := queryService.Query(cmd.Context(), args[0], askK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		out := askOutput{
			Question:  result.Question,
			Answer:    result.Answer,
			Citations: result.Citations,
			Passages:  make([]askPassage, len(result.Retrieved)),
			Uncertain: result.Uncertain,
			K:         result.K,
		}
		if out.Citations == nil {
			out.Citations = []domain.Citation{}
		}
		for i, r := range result.Retrieved {
			out.Passages[i] = askPassage{
				DocumentID: r.Chunk.DocumentID,
				Position:   r.Chunk.Position,
				Score:      r.Relevance,
				Text:       r.Chunk.Content,
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.Uncertain {
		cmd.Println("(uncertain: no passage was a strong match)")
	}
	cmd.Println(result.Answer)

	if len(result.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range result.Citations {
			cmd.Printf("  %s (%.2f)\n", c.DocumentID, c.Score)
		}
	}
	return nil
}
