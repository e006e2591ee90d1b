package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Submit scanned documents",
	Long: `Submit one or more images or PDFs for processing.

Each file is stored and assigned a document ID at once; preprocessing,
language detection, OCR and indexing continue in the background. Use
--wait to block until every document is indexed or has failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var (
	ingestWait bool
	ingestMIME string
)

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWait, "wait", "w", false, "Wait for processing to finish")
	ingestCmd.Flags().StringVar(&ingestMIME, "mime", "", "Content type, detected from the extension by default")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := cmd.Context()
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		path := filesystem.ResolvePath(arg)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		mimeType := ingestMIME
		if mimeType == "" {
			mimeType = filesystem.DetectMIMEType(path)
		}

		id, err := ingestionService.Submit(ctx, driving.Upload{
			Filename: filepath.Base(path),
			MIMEType: mimeType,
			Content:  content,
		})
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", path, err)
		}
		cmd.Printf("%s  %s\n", id, filepath.Base(path))
		ids = append(ids, id)
	}

	if !ingestWait {
		return nil
	}

	var failed int
	for _, id := range ids {
		report, err := ingestionService.Wait(ctx, id)
		if err != nil {
			return fmt.Errorf("failed waiting for %s: %w", id, err)
		}
		printStatusLine(cmd, report)
		if report.Status == domain.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(ids))
	}
	return nil
}
