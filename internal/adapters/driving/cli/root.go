// Package cli provides the palimpsest command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/core/ports/driving"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=1.2.3".
var version = "dev"

// Services used by the commands. Set by SetServices before Execute.
var (
	ingestionService   driving.IngestionService
	documentService    driving.DocumentService
	translationService driving.TranslationService
	queryService       driving.QueryService
	settingsService    driving.SettingsService
	recoveryService    driving.RecoveryService
	actionService      driving.ActionService
)

// verbose enables debug logging on stderr.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "palimpsest",
	Short: "Read, translate and question scanned archival documents",
	Long: `Palimpsest turns scanned documents into searchable text.

Uploaded images and PDFs are preprocessed, their language detected, their
text extracted by OCR and indexed for retrieval. Ask questions across the
collection or translate between English, Hindi and Tamil.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output to stderr")
}

// Services bundles the core services the commands drive.
type Services struct {
	Ingestion   driving.IngestionService
	Document    driving.DocumentService
	Translation driving.TranslationService
	Query       driving.QueryService
	Settings    driving.SettingsService
	Recovery    driving.RecoveryService
	Actions     driving.ActionService
}

// SetServices injects the core services.
func SetServices(s Services) {
	ingestionService = s.Ingestion
	documentService = s.Document
	translationService = s.Translation
	queryService = s.Query
	settingsService = s.Settings
	recoveryService = s.Recovery
	actionService = s.Actions
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// resumeInterrupted continues documents a previous run left part-way
// through the pipeline. Used by the long-running commands.
func resumeInterrupted(cmd *cobra.Command) {
	if recoveryService == nil {
		return
	}
	ids, err := recoveryService.ResumeInterrupted(cmd.Context())
	if err != nil {
		logger.Warn("failed to resume interrupted documents: %v", err)
		return
	}
	for _, id := range ids {
		logger.Debug("resumed %s", id)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands see as
// cmd.Context(). Cancelling it stops watch, mcp and long waits.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
