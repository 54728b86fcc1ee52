package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove the model database to force a full reindex",
	Long: `Clean removes the model database (storage.db_path) of a project.
The next 'javamodel index' run parses every file again.

The configuration file (.javamodel/config.yml) is preserved.

Examples:
  # Clean the current directory
  javamodel clean

  # Clean with minimal output
  javamodel clean --quiet ./service
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(cmd *cobra.Command, args []string) error {
	rootDir, err := rootDirArg(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if cleanQuietFlag {
		out = io.Discard
	}
	return cleanDatabase(out, cfg.ResolveDBPath(rootDir))
}

// cleanDatabase removes dbPath and the SQLite journal files beside it.
func cleanDatabase(out io.Writer, dbPath string) error {
	info, err := os.Stat(dbPath)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "No model database found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat database: %w", err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm", dbPath + "-journal"} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	fmt.Fprintf(out, "✓ Removed %s (~%.1f MB)\n", dbPath, sizeMB)
	fmt.Fprintln(out, "Next 'javamodel index' will perform a full reindex")
	return nil
}
