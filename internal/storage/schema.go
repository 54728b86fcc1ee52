package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is recorded in metadata when the schema is created.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes of the model database.
// Uses a transaction for atomicity - all schema creation succeeds or fails together.
//
// Every row below files cascades from its file, so replacing or deleting a
// file's rows is a single DELETE on files. Foreign keys must be enabled on the
// connection (Open does this through the DSN).
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"packages", createPackagesTable},
		{"imports", createImportsTable},
		{"types", createTypesTable},
		{"fields", createFieldsTable},
		{"methods", createMethodsTable},
		{"parameters", createParametersTable},
		{"external_usages", createExternalUsagesTable},
		{"raw_matches", createRawMatchesTable},
		{"metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)",
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants. Line columns are NULL when the line is unknown.

const createFilesTable = `
CREATE TABLE files (
    file_path TEXT PRIMARY KEY,                  -- Relative slash path from the project root
    content_hash TEXT NOT NULL,                  -- SHA-256 for change detection
    parsed_at TEXT NOT NULL,                     -- ISO 8601
    error TEXT                                   -- "<category>: <message>" for failed parses
)
`

const createPackagesTable = `
CREATE TABLE packages (
    package_id TEXT PRIMARY KEY,                 -- UUID
    file_path TEXT NOT NULL,
    name TEXT NOT NULL,
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createImportsTable = `
CREATE TABLE imports (
    import_id TEXT PRIMARY KEY,                  -- UUID
    file_path TEXT NOT NULL,
    name TEXT NOT NULL,                          -- Dotted path, ".*" suffix for wildcards
    is_static INTEGER NOT NULL DEFAULT 0,
    is_wildcard INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,                   -- 0-indexed source order
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createTypesTable = `
CREATE TABLE types (
    type_id TEXT PRIMARY KEY,                    -- UUID
    file_path TEXT NOT NULL,
    parent_id TEXT,                              -- Enclosing type, NULL at top level
    name TEXT NOT NULL,
    qualified_name TEXT NOT NULL,                -- Outer.Inner
    kind TEXT NOT NULL,                          -- class, interface, enum, annotation
    modifiers TEXT NOT NULL DEFAULT '',          -- Space separated
    position INTEGER NOT NULL,                   -- 0-indexed pre-order position in the file
    start_line INTEGER,
    end_line INTEGER,
    field_count INTEGER NOT NULL DEFAULT 0,      -- Denormalized count
    method_count INTEGER NOT NULL DEFAULT 0,     -- Denormalized count
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE,
    FOREIGN KEY (parent_id) REFERENCES types(type_id) ON DELETE CASCADE
)
`

const createFieldsTable = `
CREATE TABLE fields (
    field_id TEXT PRIMARY KEY,                   -- UUID
    type_id TEXT NOT NULL,
    name TEXT NOT NULL,
    field_type TEXT NOT NULL,
    initializer TEXT,
    modifiers TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (type_id) REFERENCES types(type_id) ON DELETE CASCADE
)
`

const createMethodsTable = `
CREATE TABLE methods (
    method_id TEXT PRIMARY KEY,                  -- UUID
    type_id TEXT NOT NULL,
    name TEXT NOT NULL,
    return_type TEXT,                            -- NULL for constructors
    modifiers TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    param_count INTEGER NOT NULL DEFAULT 0,      -- Denormalized count
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (type_id) REFERENCES types(type_id) ON DELETE CASCADE
)
`

const createParametersTable = `
CREATE TABLE parameters (
    param_id TEXT PRIMARY KEY,                   -- UUID
    method_id TEXT NOT NULL,
    name TEXT NOT NULL,
    param_type TEXT NOT NULL,                    -- Varargs carry a "..." suffix
    position INTEGER NOT NULL,
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (method_id) REFERENCES methods(method_id) ON DELETE CASCADE
)
`

const createExternalUsagesTable = `
CREATE TABLE external_usages (
    usage_id TEXT PRIMARY KEY,                   -- UUID
    file_path TEXT NOT NULL,
    model_name TEXT NOT NULL,
    context TEXT NOT NULL,                       -- field, return_type, parameter
    location TEXT NOT NULL,                      -- Outer.Inner.member[.param]
    ref_type TEXT NOT NULL,                      -- Declared type the model was found in
    position INTEGER NOT NULL,                   -- 0-indexed order within the model
    start_line INTEGER,
    end_line INTEGER,
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createRawMatchesTable = `
CREATE TABLE raw_matches (
    match_id TEXT PRIMARY KEY,                   -- UUID
    usage_id TEXT NOT NULL,
    line_text TEXT NOT NULL,
    line INTEGER NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (usage_id) REFERENCES external_usages(usage_id) ON DELETE CASCADE
)
`

const createMetadataTable = `
CREATE TABLE metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

// getAllIndexes returns all index creation statements.
func getAllIndexes() []string {
	return []string{
		"CREATE INDEX idx_packages_file_path ON packages(file_path)",
		"CREATE INDEX idx_imports_file_path ON imports(file_path)",
		"CREATE INDEX idx_imports_name ON imports(name)",

		"CREATE INDEX idx_types_file_path ON types(file_path)",
		"CREATE INDEX idx_types_parent_id ON types(parent_id)",
		"CREATE INDEX idx_types_name ON types(name)",

		"CREATE INDEX idx_fields_type_id ON fields(type_id)",
		"CREATE INDEX idx_methods_type_id ON methods(type_id)",
		"CREATE INDEX idx_parameters_method_id ON parameters(method_id)",

		"CREATE INDEX idx_external_usages_file_path ON external_usages(file_path)",
		"CREATE INDEX idx_external_usages_model_name ON external_usages(model_name)",
		"CREATE INDEX idx_raw_matches_usage_id ON raw_matches(usage_id)",
	}
}
