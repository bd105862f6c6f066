// Package paths resolves configuration, data directory, and database file
// locations, and persists the relocation marker that records the last chosen
// database path.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// appName is the directory name used under the platform config/data roots.
const appName = "componentry"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "COMPONENTRY_CONFIG_DIR"
	EnvDataDir   = "COMPONENTRY_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/componentry (fallback ~/.config/componentry)
// macOS:   ~/Library/Application Support/componentry
// Windows: %APPDATA%/componentry
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
}

// DefaultDataDir returns the platform-specific application-private data directory.
//
// Linux:   $XDG_DATA_HOME/componentry (fallback ~/.local/share/componentry)
// macOS:   ~/Library/Application Support/componentry
// Windows: %APPDATA%/componentry
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > COMPONENTRY_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > COMPONENTRY_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// PathSource says which rule produced a database path.
type PathSource string

// Database path sources, in precedence order.
const (
	SourceOverride PathSource = "override"
	SourceMarker   PathSource = "marker"
	SourceDefault  PathSource = "default"
)

// ResolveDatabasePath returns the database file path following the precedence
// chain: explicit override > relocation marker in dataDir (only when the
// recorded file still exists) > dataDir/components.db.
func ResolveDatabasePath(override, dataDir string) (string, PathSource, error) {
	if override != "" {
		p, err := filepath.Abs(override)
		return p, SourceOverride, err
	}
	saved, err := ReadMarker(dataDir)
	if err != nil {
		return "", "", err
	}
	if saved != "" {
		if _, err := os.Stat(saved); err == nil {
			return saved, SourceMarker, nil
		}
	}
	p, err := filepath.Abs(filepath.Join(dataDir, types.DefaultDatabaseFile))
	return p, SourceDefault, err
}

// MarkerPath returns the location of the relocation marker file.
func MarkerPath(dataDir string) string {
	return filepath.Join(dataDir, types.DatabasePathMarker)
}

// ReadMarker returns the database path recorded in dataDir, or "" when no
// marker has been written.
func ReadMarker(dataDir string) (string, error) {
	data, err := os.ReadFile(MarkerPath(dataDir))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read database path marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteMarker records dbPath in dataDir so the next start uses it.
func WriteMarker(dataDir, dbPath string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(MarkerPath(dataDir), []byte(dbPath), 0o644); err != nil {
		return fmt.Errorf("write database path marker: %w", err)
	}
	return nil
}

// HasDatabaseExtension reports whether path names a database file.
func HasDatabaseExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), types.DatabaseExtension)
}
