package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
)

// Writer replaces the stored rows of one file at a time.
type Writer struct {
	db *sql.DB
}

// NewWriter creates a Writer instance.
// DB must have schema already created via CreateSchema().
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// WriteUnit replaces everything stored for path with unit and usages in a single transaction.
func (w *Writer) WriteUnit(ctx context.Context, path, hash string, unit *extraction.SourceUnit, usages extraction.Usages) error {
	return w.replace(ctx, path, hash, nil, func(tx *sql.Tx) error {
		if err := insertPackages(ctx, tx, path, unit.Packages); err != nil {
			return err
		}
		if err := insertImports(ctx, tx, path, unit.Imports); err != nil {
			return err
		}

		tw := &typeWriter{ctx: ctx, tx: tx, path: path}
		for i := range unit.Types {
			if err := tw.insert(nil, "", &unit.Types[i]); err != nil {
				return err
			}
		}

		return insertUsages(ctx, tx, path, usages)
	})
}

// WriteFailure replaces everything stored for path with a failed parse.
// The error is stored in its "<category>: <message>" form.
func (w *Writer) WriteFailure(ctx context.Context, path, hash string, parseErr error) error {
	message := parsers.ErrorRecordFor(parseErr).Error
	return w.replace(ctx, path, hash, &message, nil)
}

// DeleteFile removes a file and, through cascades, everything stored for it.
func (w *Writer) DeleteFile(ctx context.Context, path string) error {
	_, err := sq.Delete("files").
		Where(sq.Eq{"file_path": path}).
		RunWith(w.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

func (w *Writer) replace(ctx context.Context, path, hash string, parseErr *string, fill func(*sql.Tx) error) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Delete first: cascades clear every child row of the previous version
	if _, err := sq.Delete("files").Where(sq.Eq{"file_path": path}).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", path, err)
	}

	_, err = sq.Insert("files").
		Columns("file_path", "content_hash", "parsed_at", "error").
		Values(path, hash, time.Now().UTC().Format(time.RFC3339), parseErr).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	if fill != nil {
		if err := fill(tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

func insertPackages(ctx context.Context, tx *sql.Tx, path string, packages []extraction.PackageDecl) error {
	for _, pkg := range packages {
		_, err := sq.Insert("packages").
			Columns("package_id", "file_path", "name", "start_line", "end_line").
			Values(uuid.New().String(), path, pkg.Name, nullLine(pkg.StartLine), nullLine(pkg.EndLine)).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert package %s: %w", pkg.Name, err)
		}
	}
	return nil
}

func insertImports(ctx context.Context, tx *sql.Tx, path string, imports []extraction.ImportDecl) error {
	for i, imp := range imports {
		_, err := sq.Insert("imports").
			Columns("import_id", "file_path", "name", "is_static", "is_wildcard", "position", "start_line", "end_line").
			Values(uuid.New().String(), path, imp.Name, imp.IsStatic, imp.IsWildcard, i, nullLine(imp.StartLine), nullLine(imp.EndLine)).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert import %s: %w", imp.Name, err)
		}
	}
	return nil
}

// typeWriter inserts a type tree, numbering types in pre-order.
type typeWriter struct {
	ctx      context.Context
	tx       *sql.Tx
	path     string
	position int
}

func (tw *typeWriter) insert(parentID *string, prefix string, t *extraction.TypeDecl) error {
	typeID := uuid.New().String()
	qualified := t.Name
	if prefix != "" {
		qualified = prefix + "." + t.Name
	}

	_, err := sq.Insert("types").
		Columns(
			"type_id", "file_path", "parent_id", "name", "qualified_name", "kind", "modifiers",
			"position", "start_line", "end_line", "field_count", "method_count",
		).
		Values(
			typeID, tw.path, parentID, t.Name, qualified, string(t.Kind), joinModifiers(t.Modifiers),
			tw.position, nullLine(t.StartLine), nullLine(t.EndLine), len(t.Fields), len(t.Methods),
		).
		RunWith(tw.tx).
		ExecContext(tw.ctx)
	if err != nil {
		return fmt.Errorf("failed to insert type %s: %w", qualified, err)
	}
	tw.position++

	for i, f := range t.Fields {
		_, err := sq.Insert("fields").
			Columns("field_id", "type_id", "name", "field_type", "initializer", "modifiers", "position", "start_line", "end_line").
			Values(uuid.New().String(), typeID, f.Name, f.TypeName, f.Initializer, joinModifiers(f.Modifiers), i, nullLine(f.StartLine), nullLine(f.EndLine)).
			RunWith(tw.tx).
			ExecContext(tw.ctx)
		if err != nil {
			return fmt.Errorf("failed to insert field %s.%s: %w", qualified, f.Name, err)
		}
	}

	for i, m := range t.Methods {
		if err := tw.insertMethod(typeID, qualified, i, m); err != nil {
			return err
		}
	}

	for i := range t.InnerTypes {
		if err := tw.insert(&typeID, qualified, &t.InnerTypes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tw *typeWriter) insertMethod(typeID, qualified string, position int, m extraction.MethodDecl) error {
	methodID := uuid.New().String()
	_, err := sq.Insert("methods").
		Columns("method_id", "type_id", "name", "return_type", "modifiers", "position", "param_count", "start_line", "end_line").
		Values(methodID, typeID, m.Name, m.ReturnType, joinModifiers(m.Modifiers), position, len(m.Parameters), nullLine(m.StartLine), nullLine(m.EndLine)).
		RunWith(tw.tx).
		ExecContext(tw.ctx)
	if err != nil {
		return fmt.Errorf("failed to insert method %s.%s: %w", qualified, m.Name, err)
	}

	for i, p := range m.Parameters {
		_, err := sq.Insert("parameters").
			Columns("param_id", "method_id", "name", "param_type", "position", "start_line", "end_line").
			Values(uuid.New().String(), methodID, p.Name, p.TypeName, i, nullLine(p.StartLine), nullLine(p.EndLine)).
			RunWith(tw.tx).
			ExecContext(tw.ctx)
		if err != nil {
			return fmt.Errorf("failed to insert parameter %s.%s.%s: %w", qualified, m.Name, p.Name, err)
		}
	}
	return nil
}

func insertUsages(ctx context.Context, tx *sql.Tx, path string, usages extraction.Usages) error {
	for _, model := range usages.Models() {
		for i, u := range usages[model] {
			usageID := uuid.New().String()
			_, err := sq.Insert("external_usages").
				Columns("usage_id", "file_path", "model_name", "context", "location", "ref_type", "position", "start_line", "end_line").
				Values(usageID, path, model, string(u.Context), u.Location, u.RefType, i, nullLine(u.LineRange.StartLine), nullLine(u.LineRange.EndLine)).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to insert usage of %s at %s: %w", model, u.Location, err)
			}

			for j, match := range u.RawCode {
				_, err := sq.Insert("raw_matches").
					Columns("match_id", "usage_id", "line_text", "line", "position").
					Values(uuid.New().String(), usageID, match.Text, int(match.Line), j).
					RunWith(tx).
					ExecContext(ctx)
				if err != nil {
					return fmt.Errorf("failed to insert raw match of %s at line %d: %w", model, match.Line, err)
				}
			}
		}
	}
	return nil
}

// nullLine maps unknown lines to NULL.
func nullLine(l extraction.Line) any {
	if !l.Known() {
		return nil
	}
	return int(l)
}

func joinModifiers(m extraction.Modifiers) string {
	return strings.Join(m, " ")
}
