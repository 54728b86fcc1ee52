package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/javamodel/internal/storage"
)

var (
	modelFlag string
	jsonFlag  bool
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models [dir]",
	Short: "List external models across the indexed project",
	Long: `Models reads the model database written by "javamodel index" and lists every
external type with the number of files and usages referencing it, most used
first. With --model, it prints the stored usages of one type instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		return modelsCommand(cmd.Context(), cmd.OutOrStdout(), store.Reader, modelFlag, jsonFlag)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Print the usages of a single model")
	modelsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of a table")
}

func modelsCommand(ctx context.Context, out io.Writer, reader *storage.Reader, model string, asJSON bool) error {
	if model != "" {
		usages, err := reader.ModelUsages(ctx, model)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, usages)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tLOCATION\tCONTEXT\tLINES\tMATCHES")
		for _, u := range usages {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\t%d\n",
				u.FilePath, u.Location, u.Context, u.LineRange.StartLine, u.LineRange.EndLine, len(u.RawCode))
		}
		return tw.Flush()
	}

	models, err := reader.ExternalModels(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, models)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tFILES\tUSAGES\tMATCHES")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Model, formatNumber(m.Files), formatNumber(m.Usages), formatNumber(m.Matches))
	}
	return tw.Flush()
}
