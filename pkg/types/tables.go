package types

// Table names in the component library database.
const (
	TableComponents        = "components"
	TableCategories        = "categories"
	TableComponentVersions = "component_versions"
	TableUISettings        = "ui_settings"
	TableBookmarks         = "bookmarks"
)

// RequiredTables is the canonical table set a database file must contain to
// be accepted as a relocation target. The bookmarks table is additive and
// not required.
var RequiredTables = []string{
	TableComponents,
	TableCategories,
	TableComponentVersions,
	TableUISettings,
}
