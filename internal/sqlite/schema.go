package sqlite

import "strings"

// nowDefault fills timestamp columns a statement leaves out, in the same
// fixed-width layout the stores write (types.TimeLayout).
const nowDefault = `DEFAULT (strftime('%Y-%m-%dT%H:%M:%f000000Z', 'now'))`

// Schema DDL. Every statement is safe to re-run against an initialized file.
const (
	createComponents = `CREATE TABLE IF NOT EXISTS components (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    code TEXT NOT NULL,
    category TEXT NOT NULL,
    tags TEXT,
    created_at TEXT ` + nowDefault + `,
    updated_at TEXT ` + nowDefault + `
);`

	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_at TEXT ` + nowDefault + `
);`

	createComponentVersions = `CREATE TABLE IF NOT EXISTS component_versions (
    id TEXT PRIMARY KEY,
    component_id TEXT NOT NULL,
    code TEXT NOT NULL,
    created_at TEXT ` + nowDefault + `,
    FOREIGN KEY (component_id) REFERENCES components(id) ON DELETE CASCADE
);`

	createUISettings = `CREATE TABLE IF NOT EXISTS ui_settings (
    id TEXT PRIMARY KEY,
    setting_key TEXT NOT NULL UNIQUE,
    setting_value TEXT NOT NULL,
    updated_at TEXT ` + nowDefault + `
);`

	createBookmarks = `CREATE TABLE IF NOT EXISTS bookmarks (
    id TEXT PRIMARY KEY,
    component_id TEXT NOT NULL UNIQUE,
    created_at TEXT ` + nowDefault + `,
    FOREIGN KEY (component_id) REFERENCES components(id) ON DELETE CASCADE
);`
)

// Index DDL for the list and history queries.
const (
	idxComponentsUpdated = `CREATE INDEX IF NOT EXISTS idx_components_updated ON components(updated_at);`
	idxVersionsComponent = `CREATE INDEX IF NOT EXISTS idx_component_versions_component ON component_versions(component_id, created_at);`
	idxBookmarksCreated  = `CREATE INDEX IF NOT EXISTS idx_bookmarks_created ON bookmarks(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createComponents,
	createCategories,
	createComponentVersions,
	createUISettings,
	createBookmarks,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxComponentsUpdated,
	idxVersionsComponent,
	idxBookmarksCreated,
}

// SchemaSQL returns the full schema as one script, tables first.
func SchemaSQL() string {
	stmts := make([]string, 0, len(schemaDDL)+len(indexDDL))
	stmts = append(stmts, schemaDDL...)
	stmts = append(stmts, indexDDL...)
	return strings.Join(stmts, "\n\n") + "\n"
}
