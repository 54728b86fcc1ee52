package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
)

// parseSource parses path. On failure the {"error": ...} record is written to
// out and errReported is returned.
func parseSource(ctx context.Context, out io.Writer, path string) (*extraction.SourceUnit, error) {
	unit, err := parsers.NewJavaParser().ParseFile(ctx, path)
	if err != nil {
		if werr := writeJSON(out, parsers.ErrorRecordFor(err)); werr != nil {
			return nil, werr
		}
		return nil, errReported
	}
	return unit, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
