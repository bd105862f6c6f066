// Package assets persists the cached preview stylesheet in the data directory.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Cache stores the stylesheet text as a single file under the data dir.
type Cache struct {
	dir string
	log zerolog.Logger
}

// NewCache returns a Cache rooted at dataDir.
func NewCache(dataDir string, log zerolog.Logger) *Cache {
	return &Cache{
		dir: dataDir,
		log: log.With().Str("component", "assets").Logger(),
	}
}

// Path returns the stylesheet file location.
func (c *Cache) Path() string {
	return filepath.Join(c.dir, types.StylesheetFile)
}

// Save replaces the cached stylesheet with css.
func (c *Cache) Save(css string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.log.Error().Err(err).Msg("create data dir")
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(c.Path(), []byte(css), 0o644); err != nil {
		c.log.Error().Err(err).Msg("save stylesheet")
		return fmt.Errorf("save stylesheet: %w", err)
	}
	c.log.Debug().Int("bytes", len(css)).Msg("stylesheet saved")
	return nil
}

// Load returns the cached stylesheet. The boolean is false when nothing has
// been saved yet.
func (c *Cache) Load() (string, bool, error) {
	data, err := os.ReadFile(c.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		c.log.Error().Err(err).Msg("load stylesheet")
		return "", false, fmt.Errorf("load stylesheet: %w", err)
	}
	return string(data), true, nil
}
