package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui"
	"github.com/custodia-labs/palimpsest/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
	"github.com/custodia-labs/palimpsest/internal/logger"
)

// tuiWatchDir is a directory to watch for new scans while the TUI runs.
var tuiWatchDir string

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Palimpsest.

The TUI monitors documents as they move through the pipeline, shows
their status and extracted text, and answers questions over the index.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select / Ask
  Esc      - Back / Cancel
  q        - Quit (from the menu)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd, messages.ViewMenu)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiWatchDir, "watch", "", "Submit scans dropped into this directory while the TUI runs")
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the TUI ports from the configured services.
func tuiPorts() *tui.Ports {
	ports := tui.NewPorts(documentService, ingestionService)
	ports.Query = queryService
	ports.Settings = settingsService
	ports.Translation = translationService
	return ports
}

func runTUI(cmd *cobra.Command, start messages.ViewType) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx).WithStartView(start)
	resumeInterrupted(cmd)

	// The watcher is long-running; submissions show up in the monitor.
	if tuiWatchDir != "" {
		w := filesystem.NewWatcher(tuiWatchDir, ingestionService)
		if err := w.Validate(); err != nil {
			return err
		}
		go func() {
			err := w.Watch(ctx, func(s filesystem.Submission) {
				if s.Err != nil {
					logger.Warn("watch: %s: %v", s.Path, s.Err)
					return
				}
				logger.Debug("watch: submitted %s as %s", s.Path, s.DocumentID)
			})
			if err != nil && ctx.Err() == nil {
				logger.Warn("watcher stopped: %v", err)
			}
		}()
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
