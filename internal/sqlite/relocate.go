package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/componentry/internal/paths"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Relocate switches the engine to the database file at newPath.
//
// An existing file at newPath must open as a database containing every
// required table, otherwise ErrInvalidStorageTarget is returned and the
// current connection is left untouched. When no file exists at newPath the
// current database file is copied there first. Only then is the current
// connection closed, the new file opened, and the choice recorded in the
// relocation marker. Relocating to the current path is a no-op.
//
// Relocate holds the engine exclusively, so no statement is in flight while
// the file is copied or the connection is switched. Restarting the consuming
// process afterwards is the caller's decision.
func (e *Engine) Relocate(ctx context.Context, newPath string) error {
	if newPath == "" {
		return fmt.Errorf("%w: empty path", types.ErrInvalidStorageTarget)
	}
	target, err := filepath.Abs(newPath)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidStorageTarget, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrEngineClosed
	}

	current := e.path
	if current == "" {
		current, _, err = paths.ResolveDatabasePath(e.config.DatabasePath, e.config.DataDir)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
		}
	}
	if target == current {
		e.log.Info().Str("path", target).Msg("relocation target is the current database")
		return nil
	}

	log := e.log.With().Str("from", current).Str("to", target).Logger()

	info, statErr := os.Stat(target)
	switch {
	case statErr == nil:
		if info.IsDir() {
			log.Error().Msg("relocation target is a directory")
			return fmt.Errorf("%w: %s is a directory", types.ErrInvalidStorageTarget, target)
		}
		if err := validateTarget(ctx, target); err != nil {
			log.Error().Err(err).Msg("relocation target rejected")
			return err
		}
	case errors.Is(statErr, os.ErrNotExist):
		if _, err := os.Stat(current); err == nil {
			if err := copyFile(current, target); err != nil {
				log.Error().Err(err).Msg("copy database")
				return fmt.Errorf("%w: copy database: %w", types.ErrStorageUnavailable, err)
			}
		}
	default:
		log.Error().Err(statErr).Msg("stat relocation target")
		return fmt.Errorf("%w: %w", types.ErrInvalidStorageTarget, statErr)
	}

	if e.db != nil {
		if err := e.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close previous database")
		}
		e.db = nil
	}

	db, err := openDatabase(ctx, target)
	if err != nil {
		log.Error().Err(err).Msg("open relocated database")
		// Fall back to the previous file so the engine stays usable.
		if prev, perr := openDatabase(ctx, current); perr == nil {
			e.db = prev
			e.path = current
		}
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	e.db = db
	e.path = target
	e.source = paths.SourceMarker

	if err := paths.WriteMarker(e.config.DataDir, target); err != nil {
		log.Error().Err(err).Msg("persist database path")
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	log.Info().Msg("database relocated")
	return nil
}

// validateTarget opens the file at path and checks that every required table
// is present. The file is not modified.
func validateTarget(ctx context.Context, path string) error {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidStorageTarget, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	args := make([]any, len(types.RequiredTables))
	placeholders := ""
	for i, name := range types.RequiredTables {
		args[i] = name
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ("+placeholders+")",
		args...).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: not a database: %w", types.ErrInvalidStorageTarget, err)
	}
	if count < len(types.RequiredTables) {
		return fmt.Errorf("%w: found %d of %d required tables",
			types.ErrInvalidStorageTarget, count, len(types.RequiredTables))
	}
	return nil
}

// copyFile copies src to dst through a temporary file in dst's directory, so
// dst either appears complete or not at all.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".relocate-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
