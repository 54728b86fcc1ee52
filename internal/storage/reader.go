package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
)

// FileRecord is the stored state of one source file.
type FileRecord struct {
	Path     string
	Hash     string
	ParsedAt time.Time
	Error    string // empty for successful parses
}

// TypeRecord is a stored type declaration. ParentID is empty at top level.
type TypeRecord struct {
	ID            string
	ParentID      string
	Name          string
	QualifiedName string
	Kind          extraction.TypeKind
	Modifiers     extraction.Modifiers
	FieldCount    int
	MethodCount   int
	extraction.Span
}

// ModelCount summarizes one external model across the index.
type ModelCount struct {
	Model   string `json:"model"`
	Files   int    `json:"files"`
	Usages  int    `json:"usages"`
	Matches int    `json:"raw_matches"`
}

// UsageRecord is a stored external usage with the file it occurs in.
type UsageRecord struct {
	FilePath string `json:"file_path"`
	extraction.ExternalUsage
}

// Reader answers queries over the model database.
type Reader struct {
	db *sql.DB
}

// NewReader creates a Reader instance.
// DB should have schema already created.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// FileHash returns the content hash stored for path. ok is false if the file
// was never stored.
func (r *Reader) FileHash(ctx context.Context, path string) (string, bool, error) {
	var hash string
	err := sq.Select("content_hash").
		From("files").
		Where(sq.Eq{"file_path": path}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&hash)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get hash for %s: %w", path, err)
	}
	return hash, true, nil
}

// File returns the stored state of path, or (nil, nil) if not found.
func (r *Reader) File(ctx context.Context, path string) (*FileRecord, error) {
	rec := &FileRecord{}
	var parsedAt string
	var parseErr sql.NullString

	err := sq.Select("file_path", "content_hash", "parsed_at", "error").
		From("files").
		Where(sq.Eq{"file_path": path}).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&rec.Path, &rec.Hash, &parsedAt, &parseErr)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}

	rec.ParsedAt, _ = time.Parse(time.RFC3339, parsedAt)
	rec.Error = parseErr.String
	return rec, nil
}

// FilePaths lists every stored path in sorted order.
func (r *Reader) FilePaths(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("file_path").
		From("files").
		OrderBy("file_path").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// ListTypes returns the types stored for path in pre-order.
func (r *Reader) ListTypes(ctx context.Context, path string) ([]TypeRecord, error) {
	rows, err := sq.Select(
		"type_id", "parent_id", "name", "qualified_name", "kind", "modifiers",
		"field_count", "method_count", "start_line", "end_line",
	).
		From("types").
		Where(sq.Eq{"file_path": path}).
		OrderBy("position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list types of %s: %w", path, err)
	}
	defer rows.Close()

	types := []TypeRecord{}
	for rows.Next() {
		var (
			t          TypeRecord
			parentID   sql.NullString
			kind       string
			modifiers  string
			start, end sql.NullInt64
		)
		err := rows.Scan(
			&t.ID, &parentID, &t.Name, &t.QualifiedName, &kind, &modifiers,
			&t.FieldCount, &t.MethodCount, &start, &end,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan type: %w", err)
		}
		t.ParentID = parentID.String
		t.Kind = extraction.TypeKind(kind)
		t.Modifiers = splitModifiers(modifiers)
		t.Span = scanSpan(start, end)
		types = append(types, t)
	}
	return types, rows.Err()
}

// ExternalModels counts usages of every external model across the index,
// most used first.
func (r *Reader) ExternalModels(ctx context.Context) ([]ModelCount, error) {
	rows, err := sq.Select(
		"u.model_name",
		"COUNT(DISTINCT u.file_path)",
		"COUNT(DISTINCT u.usage_id)",
		"COUNT(m.match_id)",
	).
		From("external_usages u").
		LeftJoin("raw_matches m ON m.usage_id = u.usage_id").
		GroupBy("u.model_name").
		OrderBy("COUNT(DISTINCT u.usage_id) DESC", "u.model_name").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count external models: %w", err)
	}
	defer rows.Close()

	models := []ModelCount{}
	for rows.Next() {
		var mc ModelCount
		if err := rows.Scan(&mc.Model, &mc.Files, &mc.Usages, &mc.Matches); err != nil {
			return nil, fmt.Errorf("failed to scan model count: %w", err)
		}
		models = append(models, mc)
	}
	return models, rows.Err()
}

// ModelUsages returns every stored usage of model ordered by file and
// position, each with its raw matches.
func (r *Reader) ModelUsages(ctx context.Context, model string) ([]UsageRecord, error) {
	rows, err := sq.Select(
		"usage_id", "file_path", "context", "location", "ref_type", "start_line", "end_line",
	).
		From("external_usages").
		Where(sq.Eq{"model_name": model}).
		OrderBy("file_path", "position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query usages of %s: %w", model, err)
	}
	defer rows.Close()

	var (
		usages []UsageRecord
		ids    []string
	)
	for rows.Next() {
		var (
			id, usageCtx string
			u            = UsageRecord{ExternalUsage: extraction.ExternalUsage{ModelName: model}}
			start, end   sql.NullInt64
		)
		if err := rows.Scan(&id, &u.FilePath, &usageCtx, &u.Location, &u.RefType, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		u.Context = extraction.UsageContext(usageCtx)
		u.LineRange = scanSpan(start, end)
		u.RawCode = []extraction.RawMatch{}
		usages = append(usages, u)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []UsageRecord{}, nil
	}

	matches, err := r.rawMatches(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		if m, ok := matches[id]; ok {
			usages[i].RawCode = m
		}
	}
	return usages, nil
}

func (r *Reader) rawMatches(ctx context.Context, usageIDs []string) (map[string][]extraction.RawMatch, error) {
	rows, err := sq.Select("usage_id", "line_text", "line").
		From("raw_matches").
		Where(sq.Eq{"usage_id": usageIDs}).
		OrderBy("usage_id", "position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw matches: %w", err)
	}
	defer rows.Close()

	matches := make(map[string][]extraction.RawMatch, len(usageIDs))
	for rows.Next() {
		var (
			id    string
			match extraction.RawMatch
		)
		if err := rows.Scan(&id, &match.Text, &match.Line); err != nil {
			return nil, fmt.Errorf("failed to scan raw match: %w", err)
		}
		match.End = match.Line
		matches[id] = append(matches[id], match)
	}
	return matches, rows.Err()
}

func scanSpan(start, end sql.NullInt64) extraction.Span {
	return extraction.Span{
		StartLine: extraction.Line(start.Int64),
		EndLine:   extraction.Line(end.Int64),
	}
}

func splitModifiers(s string) extraction.Modifiers {
	if s == "" {
		return extraction.Modifiers{}
	}
	return strings.Fields(s)
}
