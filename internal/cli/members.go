package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/javamodel/internal/indexer"
	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// memberListing is the output of the members command.
type memberListing struct {
	Classes []classListing   `json:"classes"`
	Methods []memberWithCode `json:"methods"`
	Fields  []memberWithCode `json:"fields"`
}

type classListing struct {
	Index         int                 `json:"class_index"`
	QualifiedName string              `json:"qualified_name"`
	Kind          extraction.TypeKind `json:"class_kind"`
	extraction.Span
}

type memberWithCode struct {
	indexer.CatalogEntry
	Chunks []indexer.CodeChunk `json:"chunks"`
}

// membersCmd represents the members command
var membersCmd = &cobra.Command{
	Use:   "members <file>",
	Short: "List every method and field of a Java file with its code",
	Long: `Members flattens the classes of a Java file, inner classes included, in
declaration order and lists each method and field with its class and member
index, qualified name and raw source. The raw source is split into line-aligned
chunks sized by chunking.token_limit and chunking.template_overhead.`,
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

		chunker := indexer.NewCodeChunker(cfg.Chunking.TokenLimit, cfg.Chunking.TemplateOverhead)
		return membersCommand(cmd.Context(), cmd.OutOrStdout(), args[0], chunker)
	},
}

func init() {
	rootCmd.AddCommand(membersCmd)
}

func membersCommand(ctx context.Context, out io.Writer, path string, chunker *indexer.CodeChunker) error {
	unit, err := parseSource(ctx, out, path)
	if err != nil {
		return err
	}

	catalog := indexer.BuildCatalog(unit)
	listing := memberListing{
		Classes: []classListing{},
		Methods: withChunks(catalog, catalog.Methods(), chunker),
		Fields:  withChunks(catalog, catalog.Fields(), chunker),
	}
	for _, c := range catalog.Classes() {
		listing.Classes = append(listing.Classes, classListing{
			Index:         c.Index,
			QualifiedName: c.QualifiedName,
			Kind:          c.Decl.Kind,
			Span:          c.Decl.Span,
		})
	}

	return writeJSON(out, listing)
}

func withChunks(catalog *indexer.Catalog, entries []indexer.CatalogEntry, chunker *indexer.CodeChunker) []memberWithCode {
	members := make([]memberWithCode, 0, len(entries))
	for _, e := range entries {
		members = append(members, memberWithCode{
			CatalogEntry: e,
			Chunks:       catalog.Chunks(e, chunker),
		})
	}
	return members
}
