package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/javamodel/internal/indexer"
	"github.com/mvp-joe/javamodel/internal/storage"
)

var (
	quietFlag bool
	watchFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Parse every Java file of a project into the model database",
	Long: `Index discovers the Java sources of a project (paths.code minus paths.ignore),
parses and analyzes them concurrently and stores the structural model and the
external usage index in storage.db_path. Files whose content did not change
since the last run are skipped; files that disappeared are removed.

Files that fail to parse are recorded with their error and do not stop the run.

Examples:
  # Index the current directory
  javamodel index

  # Index with progress bars disabled
  javamodel index --quiet

  # Watch for changes and reindex incrementally
  javamodel index --watch ./service
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and reindex incrementally")
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Cancel on Ctrl+C
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, err := rootDirArg(args)
	if err != nil {
		return err
	}
	if rootDir, err = filepath.Abs(rootDir); err != nil {
		return err
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.ResolveDBPath(rootDir))
	if err != nil {
		return err
	}
	defer store.Close()

	progress := NewCLIProgressReporter(cmd.OutOrStdout(), quietFlag)
	idx, err := indexer.New(cfg.ToIndexerConfig(rootDir), store, progress, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	if _, err := idx.Index(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	if !watchFlag {
		return nil
	}

	// Start watch mode (blocks until cancelled)
	if err := idx.Watch(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	slog.Info("watch mode stopped")
	return nil
}
