package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/componentry", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "componentry"), got)
	})
}

func TestDefaultDataDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_DATA_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/componentry", got)
	})

	t.Run("falls back to ~/.local/share when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".local", "share", "componentry"), got)
	})

	t.Run("home lookup failure is returned", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "", os.ErrNotExist }
		defer func() { platformDir.homeDir = orig }()

		_, err := DefaultDataDir()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			flag:    "",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
		{
			name:    "platform default when both empty",
			flag:    "",
			envVal:  "",
			wantSub: "componentry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
		wantContains  string // use instead of want for partial match
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/data",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/flag/data",
		},
		{
			name:          "config.yaml wins over env",
			configYAMLVal: "/config/data",
			envVal:        "/env/data",
			want:          "/config/data",
		},
		{
			name:   "env wins when flag and config empty",
			envVal: "/env/data",
			want:   "/env/data",
		},
		{
			name:         "platform default when all empty",
			wantContains: "componentry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			if tt.wantContains != "" {
				assert.Contains(t, got, tt.wantContains)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolveDataDir_AbsolutePath(t *testing.T) {
	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("relative/path", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})

	t.Run("relative config value becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "relative/config")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveDatabasePath(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		dataDir := t.TempDir()
		other := filepath.Join(t.TempDir(), "other.db")
		require.NoError(t, os.WriteFile(other, nil, 0o644))
		require.NoError(t, WriteMarker(dataDir, other))

		explicit := filepath.Join(t.TempDir(), "explicit.db")
		got, src, err := ResolveDatabasePath(explicit, dataDir)
		require.NoError(t, err)
		assert.Equal(t, explicit, got)
		assert.Equal(t, SourceOverride, src)
	})

	t.Run("marker used when its file exists", func(t *testing.T) {
		dataDir := t.TempDir()
		saved := filepath.Join(t.TempDir(), "saved.db")
		require.NoError(t, os.WriteFile(saved, nil, 0o644))
		require.NoError(t, WriteMarker(dataDir, saved))

		got, src, err := ResolveDatabasePath("", dataDir)
		require.NoError(t, err)
		assert.Equal(t, saved, got)
		assert.Equal(t, SourceMarker, src)
	})

	t.Run("marker ignored when its file is gone", func(t *testing.T) {
		dataDir := t.TempDir()
		require.NoError(t, WriteMarker(dataDir, filepath.Join(t.TempDir(), "gone.db")))

		got, src, err := ResolveDatabasePath("", dataDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dataDir, "components.db"), got)
		assert.Equal(t, SourceDefault, src)
	})

	t.Run("default under data dir", func(t *testing.T) {
		dataDir := t.TempDir()
		got, src, err := ResolveDatabasePath("", dataDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dataDir, "components.db"), got)
		assert.Equal(t, SourceDefault, src)
	})
}

func TestMarker(t *testing.T) {
	t.Run("missing marker reads empty", func(t *testing.T) {
		got, err := ReadMarker(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("write creates data dir and round trips", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "nested", "data")
		require.NoError(t, WriteMarker(dataDir, "/somewhere/lib.db"))

		got, err := ReadMarker(dataDir)
		require.NoError(t, err)
		assert.Equal(t, "/somewhere/lib.db", got)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		dataDir := t.TempDir()
		require.NoError(t, os.WriteFile(MarkerPath(dataDir), []byte("  /x/lib.db\n"), 0o644))

		got, err := ReadMarker(dataDir)
		require.NoError(t, err)
		assert.Equal(t, "/x/lib.db", got)
	})
}

func TestHasDatabaseExtension(t *testing.T) {
	assert.True(t, HasDatabaseExtension("/a/b/lib.db"))
	assert.True(t, HasDatabaseExtension("LIB.DB"))
	assert.False(t, HasDatabaseExtension("/a/b/lib.sqlite"))
	assert.False(t, HasDatabaseExtension("/a/b/db"))
}
