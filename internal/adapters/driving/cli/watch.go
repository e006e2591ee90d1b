package cli

import (
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palimpsest/internal/connectors/filesystem"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Submit scans dropped into a directory",
	Long: `Watch a directory and submit every image or PDF written to it.

Files are submitted once they have stopped changing. Hidden files and
other content types are ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchExisting bool
	watchSettle   time.Duration
)

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also submit files already in the directory")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", filesystem.DefaultSettle, "How long a file must be unchanged before submitting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	w := filesystem.NewWatcher(args[0], ingestionService,
		filesystem.WithSettle(watchSettle),
		filesystem.WithExisting(watchExisting),
	)
	if err := w.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resumeInterrupted(cmd)
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Watch(ctx, func(s filesystem.Submission) {
		if s.Err != nil {
			cmd.PrintErrf("%s: %v\n", s.Path, s.Err)
			return
		}
		cmd.Printf("%s  %s\n", s.DocumentID, s.Path)
	})
}
