// Package sqlite provides the public API for the SQLite Storage Engine.
// This package exposes the factory function for creating engines while
// keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/internal/sqlite"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Engine is the Storage Engine owning one library database file.
type Engine = sqlite.Engine

// NewEngine creates a Storage Engine. The database is opened on the first
// statement or an explicit Open.
//
// Example:
//
//	engine := sqlite.NewEngine(types.Config{DataDir: dataDir}, log)
//	defer engine.Close()
//	rows, err := engine.SelectAll(ctx, "SELECT id, name FROM components", nil)
func NewEngine(config types.Config, log zerolog.Logger) *Engine {
	return sqlite.NewEngine(config, log)
}

// SchemaSQL returns the idempotent library schema script.
func SchemaSQL() string {
	return sqlite.SchemaSQL()
}
