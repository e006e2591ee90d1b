package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, view, delete, or reprocess ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print extracted text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes a document, its indexed chunks and its stored scan.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Resume or restart processing",
	Long: `Resumes a document from its last completed stage. A failed document
is processed again from the start.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReprocess,
}

var documentResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue interrupted documents",
	Long: `Continues every document that stopped part-way through the pipeline,
for example because palimpsest exited before processing finished. Failed
documents are not retried; use reprocess for those.`,
	Args: cobra.NoArgs,
	RunE: runDocumentResume,
}

var documentOpenCmd = &cobra.Command{
	Use:   "open [doc-id]",
	Short: "Open the original scan",
	Long:  `Opens the uploaded image or PDF in the system's default viewer.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentOpen,
}

var documentExportCmd = &cobra.Command{
	Use:   "export [doc-id] [dir]",
	Short: "Save the original scan to a directory",
	Long:  `Writes the uploaded image or PDF to dir (default: the current directory).`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDocumentExport,
}

var documentCopyCmd = &cobra.Command{
	Use:   "copy [doc-id]",
	Short: "Copy extracted text to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentCopy,
}

var (
	documentJSON  bool
	reprocessWait bool
)

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "Output as JSON")
	documentReprocessCmd.Flags().BoolVarP(&reprocessWait, "wait", "w", false, "Wait for processing to finish")
	documentResumeCmd.Flags().BoolVarP(&reprocessWait, "wait", "w", false, "Wait for processing to finish")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	documentCmd.AddCommand(documentResumeCmd)
	documentCmd.AddCommand(documentOpenCmd)
	documentCmd.AddCommand(documentExportCmd)
	documentCmd.AddCommand(documentCopyCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		if docs == nil {
			docs = []domain.Summary{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s  %-12s", docs[i].ID, docs[i].Status)
		if docs[i].Language != "" {
			cmd.Printf("  %-8s %.2f", docs[i].Language.Name(), docs[i].Confidence)
		}
		if docs[i].Filename != "" {
			cmd.Printf("  %s", docs[i].Filename)
		}
		cmd.Println()
	}
	cmd.Println()
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename:   %s\n", doc.Filename)
	cmd.Printf("  Type:       %s\n", doc.MIMEType)
	cmd.Printf("  Pages:      %d\n", doc.PageCount)
	cmd.Printf("  Status:     %s\n", doc.Status)
	if doc.Failure != nil {
		cmd.Printf("  Failed at:  %s: %s\n", doc.Failure.Stage, doc.Failure.Message)
	}
	if doc.Status.Reached(domain.StatusDetected) {
		cmd.Printf("  Language:   %s (%.2f)\n", doc.Language.Name(), doc.LanguageConfidence)
	}
	if doc.Status.Reached(domain.StatusExtracted) {
		cmd.Printf("  Confidence: %.2f\n", doc.Confidence)
		cmd.Printf("  Regions:    %d\n", len(doc.Regions))
		cmd.Printf("  OCR time:   %s\n", doc.ProcessingDuration)
	}
	cmd.Printf("  Created:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:    %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	if !doc.IngestedAt.IsZero() {
		cmd.Printf("  Indexed:    %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.GetContent(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	docID := args[0]
	if err := ingestionService.Reprocess(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	if !reprocessWait {
		cmd.Printf("Reprocessing document %s...\n", docID)
		return nil
	}

	report, err := ingestionService.Wait(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed waiting for %s: %w", docID, err)
	}
	printStatusLine(cmd, report)
	return nil
}

func runDocumentResume(cmd *cobra.Command, _ []string) error {
	if recoveryService == nil {
		return errors.New("recovery service not configured")
	}

	ids, err := recoveryService.ResumeInterrupted(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to resume documents: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No interrupted documents.")
		return nil
	}

	for _, id := range ids {
		if !reprocessWait {
			cmd.Printf("Resuming document %s...\n", id)
			continue
		}
		if ingestionService == nil {
			return errors.New("ingestion service not configured")
		}
		report, err := ingestionService.Wait(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed waiting for %s: %w", id, err)
		}
		printStatusLine(cmd, report)
	}
	return nil
}

func runDocumentOpen(cmd *cobra.Command, args []string) error {
	if actionService == nil {
		return errors.New("action service not configured")
	}

	path, err := actionService.OpenOriginal(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	cmd.Printf("Opened %s\n", path)
	return nil
}

func runDocumentExport(cmd *cobra.Command, args []string) error {
	if actionService == nil {
		return errors.New("action service not configured")
	}

	dir := "."
	if len(args) == 2 {
		dir = filesystem.ResolvePath(args[1])
	}
	path, err := actionService.ExportOriginal(cmd.Context(), args[0], dir)
	if err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}
	cmd.Printf("Saved %s\n", path)
	return nil
}

func runDocumentCopy(cmd *cobra.Command, args []string) error {
	if actionService == nil {
		return errors.New("action service not configured")
	}

	if err := actionService.CopyContent(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to copy document text: %w", err)
	}
	cmd.Printf("Copied text of %s to the clipboard.\n", args[0])
	return nil
}
