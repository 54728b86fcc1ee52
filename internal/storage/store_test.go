package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/javamodel/internal/indexer/extraction"
	"github.com/mvp-joe/javamodel/internal/indexer/externals"
	"github.com/mvp-joe/javamodel/internal/indexer/parsers"
)

// Test Plan for Store:
// - Open creates the schema and records its version
// - Reopening an existing database keeps its rows
// - WriteUnit stores types in pre-order with qualified names and nullable lines
// - Rewriting a file replaces its rows instead of duplicating them
// - WriteFailure stores the categorized error and clears previous declarations
// - DeleteFile cascades to every child row
// - ExternalModels and ModelUsages summarize stored usage maps

func parseFixture(t *testing.T) (*extraction.SourceUnit, extraction.Usages) {
	t.Helper()
	unit, err := parsers.NewJavaParser().ParseFile(context.Background(), "../../testdata/java/OrderService.java")
	require.NoError(t, err)
	return unit, externals.NewAnalyzer(externals.DefaultOptions()).Analyze(unit)
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestOpen_CreatesSchema(t *testing.T) {
	t.Parallel()

	s := NewTestStore(t)

	version, err := GetSchemaVersion(s.DB())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "model.db")

	s, err := Open(dbPath)
	require.NoError(t, err)
	unit, usages := parseFixture(t)
	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "abc", unit, usages))
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	hash, ok, err := s.FileHash(ctx, "OrderService.java")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", hash)
}

func TestWriter_WriteUnit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)

	require.NoError(t, s.WriteUnit(ctx, "src/OrderService.java", "h1", unit, usages))

	types, err := s.ListTypes(ctx, "src/OrderService.java")
	require.NoError(t, err)
	require.Len(t, types, 3)

	assert.Equal(t, "OrderService", types[0].QualifiedName)
	assert.Empty(t, types[0].ParentID)
	assert.Equal(t, extraction.KindClass, types[0].Kind)
	assert.Equal(t, extraction.Modifiers{"public", "final"}, types[0].Modifiers)
	assert.Equal(t, extraction.Span{StartLine: 10, EndLine: 45}, types[0].Span)
	assert.Equal(t, len(unit.Types[0].Fields), types[0].FieldCount)
	assert.Equal(t, len(unit.Types[0].Methods), types[0].MethodCount)

	assert.Equal(t, "OrderService.Status", types[1].QualifiedName)
	assert.Equal(t, extraction.KindEnum, types[1].Kind)
	assert.Equal(t, types[0].ID, types[1].ParentID)
	assert.Equal(t, "OrderService.Listener", types[2].QualifiedName)
	assert.Equal(t, extraction.KindInterface, types[2].Kind)

	assert.Equal(t, 3, countRows(t, s, "imports"))
	assert.Equal(t, 1, countRows(t, s, "packages"))

	var returnType *string
	require.NoError(t, s.DB().QueryRow(
		"SELECT return_type FROM methods WHERE name = 'OrderService'").Scan(&returnType))
	assert.Nil(t, returnType)

	rec, err := s.File(ctx, "src/OrderService.java")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h1", rec.Hash)
	assert.Empty(t, rec.Error)
	assert.False(t, rec.ParsedAt.IsZero())
}

func TestWriter_RewriteReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)

	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "h1", unit, usages))
	types, fields, matches := countRows(t, s, "types"), countRows(t, s, "fields"), countRows(t, s, "raw_matches")

	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "h2", unit, usages))
	assert.Equal(t, types, countRows(t, s, "types"))
	assert.Equal(t, fields, countRows(t, s, "fields"))
	assert.Equal(t, matches, countRows(t, s, "raw_matches"))

	hash, _, err := s.FileHash(ctx, "OrderService.java")
	require.NoError(t, err)
	assert.Equal(t, "h2", hash)
}

func TestWriter_WriteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)
	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "h1", unit, usages))

	_, parseErr := parsers.NewJavaParser().Parse([]byte("class Broken {"))
	require.Error(t, parseErr)
	require.NoError(t, s.WriteFailure(ctx, "OrderService.java", "h2", parseErr))

	rec, err := s.File(ctx, "OrderService.java")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, parsers.ErrorRecordFor(parseErr).Error, rec.Error)
	assert.Equal(t, 0, countRows(t, s, "types"))
	assert.Equal(t, 0, countRows(t, s, "external_usages"))
}

func TestWriter_DeleteFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)
	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "h1", unit, usages))
	require.Positive(t, countRows(t, s, "raw_matches"))

	require.NoError(t, s.DeleteFile(ctx, "OrderService.java"))

	for _, table := range []string{"files", "packages", "imports", "types", "fields", "methods", "parameters", "external_usages", "raw_matches"} {
		assert.Equal(t, 0, countRows(t, s, table), table)
	}

	_, ok, err := s.FileHash(ctx, "OrderService.java")
	require.NoError(t, err)
	assert.False(t, ok)

	paths, err := s.FilePaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestReader_ExternalModels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)
	require.NoError(t, s.WriteUnit(ctx, "a/OrderService.java", "h1", unit, usages))
	require.NoError(t, s.WriteUnit(ctx, "b/OrderService.java", "h1", unit, usages))

	models, err := s.ExternalModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, len(usages))

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Model)
		assert.Equal(t, 2, m.Files, m.Model)
		assert.Equal(t, 2*len(usages[m.Model]), m.Usages, m.Model)
		assert.Equal(t, 2*usages.MatchCount(m.Model), m.Matches, m.Model)
	}
	assert.ElementsMatch(t, usages.Models(), names)
	for i := 1; i < len(models); i++ {
		assert.GreaterOrEqual(t, models[i-1].Usages, models[i].Usages)
	}

	paths, err := s.FilePaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/OrderService.java", "b/OrderService.java"}, paths)
}

func TestReader_ModelUsages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewTestStore(t)
	unit, usages := parseFixture(t)
	require.NoError(t, s.WriteUnit(ctx, "OrderService.java", "h1", unit, usages))

	stored, err := s.ModelUsages(ctx, "Order")
	require.NoError(t, err)
	require.Len(t, stored, len(usages["Order"]))

	for i, want := range usages["Order"] {
		got := stored[i]
		assert.Equal(t, "OrderService.java", got.FilePath)
		assert.Equal(t, want.Location, got.Location)
		assert.Equal(t, want.Context, got.Context)
		assert.Equal(t, want.RefType, got.RefType)
		assert.Equal(t, want.LineRange, got.LineRange)
		assert.Equal(t, want.RawCode, got.RawCode)
	}

	none, err := s.ModelUsages(ctx, "Missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
