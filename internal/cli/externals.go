package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/javamodel/internal/indexer/externals"
)

var maxRawMatchesFlag int

// externalsCmd represents the externals command
var externalsCmd = &cobra.Command{
	Use:   "externals <file>",
	Short: "Print the external types a Java file references",
	Long: `Externals lists, for every type referenced in field, return and parameter
types but not declared in the file, where it is used and the source lines it
occurs on. Primitives, String and (by default) common collection types are
never reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(wd)
		if err != nil {
			return err
		}

		opts := cfg.AnalysisOptions()
		if cmd.Flags().Changed("max-raw-matches") {
			opts.MaxRawMatches = maxRawMatchesFlag
		}
		return externalsCommand(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	rootCmd.AddCommand(externalsCmd)
	externalsCmd.Flags().IntVar(&maxRawMatchesFlag, "max-raw-matches", externals.DefaultMaxRawMatches, "raw matches kept per model")
}

func externalsCommand(ctx context.Context, out io.Writer, path string, opts externals.Options) error {
	unit, err := parseSource(ctx, out, path)
	if err != nil {
		return err
	}
	return writeJSON(out, externals.NewAnalyzer(opts).Analyze(unit))
}
