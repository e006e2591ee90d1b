package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show a document's processing status",
	Long: `Show where a document is in the pipeline.

Once a document has been extracted the status includes its detected
language, OCR confidence and text. With --watch and no document ID, opens
a live monitor of every document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var (
	statusJSON  bool
	statusWatch bool
	statusWait  bool
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Open the live document monitor")
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "Wait until the document is indexed or has failed")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusWatch && len(args) == 0 {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("status --watch needs a terminal; pass a document ID to poll instead")
		}
		return runTUI(cmd, messages.ViewDocuments)
	}
	if len(args) == 0 {
		return errors.New("a document ID is required")
	}
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	var (
		report *driving.StatusReport
		err    error
	)
	if statusWait || statusWatch {
		report, err = ingestionService.Wait(cmd.Context(), args[0])
	} else {
		report, err = ingestionService.Status(cmd.Context(), args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Document: %s\n\n", report.DocumentID)
	cmd.Printf("  Status:     %s\n", report.Status)
	if report.Failure != nil {
		cmd.Printf("  Failed at:  %s\n", report.Failure.Stage)
		cmd.Printf("  Reason:     %s\n", report.Failure.Message)
	}
	if report.Language != "" {
		lowConf := ""
		if report.LowConfidence {
			lowConf = " (low confidence)"
		}
		cmd.Printf("  Language:   %s %.2f%s\n", report.Language.Name(), report.LanguageConfidence, lowConf)
	}
	if report.Text != "" || report.Confidence > 0 {
		cmd.Printf("  Confidence: %.2f\n", report.Confidence)
		cmd.Printf("  Regions:    %d\n", len(report.Regions))
		cmd.Printf("  OCR time:   %dms\n", report.ProcessingMs)
	}
	cmd.Printf("  Updated:    %s\n", report.UpdatedAt.Format("2006-01-02 15:04:05"))
	if report.Text != "" {
		cmd.Println()
		cmd.Println(report.Text)
	}
	return nil
}

// printStatusLine prints a one-line summary of a report.
func printStatusLine(cmd *cobra.Command, report *driving.StatusReport) {
	switch {
	case report.Failure != nil:
		cmd.Printf("%s  %s at %s: %s\n", report.DocumentID, report.Status, report.Failure.Stage, report.Failure.Message)
	case report.Language != "":
		cmd.Printf("%s  %s  %s  confidence %.2f\n", report.DocumentID, report.Status, report.Language, report.Confidence)
	default:
		cmd.Printf("%s  %s\n", report.DocumentID, report.Status)
	}
}
