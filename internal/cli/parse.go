package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the structural model of a Java file as JSON",
	Long: `Parse prints the packages, imports and classes of a Java source file.
Each class lists its attributes, methods and inner classes with 1-based line spans.

If the file cannot be parsed, a single {"error": "<category>: <message>"} record
is printed instead and the command exits with status 1. The category is one of
lexical, grammar or unclassified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parseCommand(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parseCommand(ctx context.Context, out io.Writer, path string) error {
	unit, err := parseSource(ctx, out, path)
	if err != nil {
		return err
	}
	return writeJSON(out, unit)
}
