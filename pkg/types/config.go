package types

import "errors"

// Config holds the storage location parameters for the Storage Engine.
type Config struct {
	// DataDir is the application-private directory. It holds the default
	// database file, the relocation marker, and cached assets.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DatabasePath is an explicit database file override. When empty the
	// engine consults the relocation marker, then falls back to
	// DataDir/DefaultDatabaseFile.
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
}

// Storage layout file names.
const (
	DefaultDatabaseFile = "components.db"
	DatabasePathMarker  = "db-path.txt"
	StylesheetFile      = "tailwind.min.css"
	DatabaseExtension   = ".db"
)

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data dir must not be empty")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
