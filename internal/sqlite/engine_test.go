package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

func newTestEngine(t *testing.T, cfg types.Config) *Engine {
	t.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	e := NewEngine(cfg, zerolog.Nop())
	t.Cleanup(func() { e.Close() })
	return e
}

func insertComponent(t *testing.T, e *Engine, id, code string) {
	t.Helper()
	now := types.FormatTime(time.Now())
	_, err := e.Execute(context.Background(),
		`INSERT INTO components (id, name, description, code, category, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		[]any{id, "name-" + id, nil, code, "buttons", "[]", now, now})
	require.NoError(t, err)
}

func insertVersion(t *testing.T, e *Engine, id, componentID, code string) {
	t.Helper()
	_, err := e.Execute(context.Background(),
		"INSERT INTO component_versions (id, component_id, code, created_at) VALUES (?, ?, ?, ?)",
		[]any{id, componentID, code, types.FormatTime(time.Now())})
	require.NoError(t, err)
}

func countRows(t *testing.T, e *Engine, table string) int64 {
	t.Helper()
	rows, err := e.SelectAll(context.Background(), "SELECT COUNT(*) AS n FROM "+table, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]["n"].(int64)
}

func TestEngine_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the file under the data dir", func(t *testing.T) {
		dataDir := t.TempDir()
		e := newTestEngine(t, types.Config{DataDir: dataDir})
		require.NoError(t, e.Open(ctx))

		want := filepath.Join(dataDir, types.DefaultDatabaseFile)
		assert.Equal(t, want, e.Path())
		_, err := os.Stat(want)
		assert.NoError(t, err)
	})

	t.Run("second open keeps the same connection", func(t *testing.T) {
		e := newTestEngine(t, types.Config{})
		require.NoError(t, e.Open(ctx))
		first := e.db

		require.NoError(t, e.Open(ctx))
		assert.Same(t, first, e.db)
	})

	t.Run("reopening an initialized file keeps tables and data", func(t *testing.T) {
		dataDir := t.TempDir()
		e := NewEngine(types.Config{DataDir: dataDir}, zerolog.Nop())
		require.NoError(t, e.Open(ctx))
		insertComponent(t, e, "c1", "<div/>")
		before, err := e.Tables(ctx)
		require.NoError(t, err)
		require.NoError(t, e.Close())

		again := newTestEngine(t, types.Config{DataDir: dataDir})
		require.NoError(t, again.Open(ctx))
		after, err := again.Tables(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, int64(1), countRows(t, again, "components"))
	})

	t.Run("applies every table", func(t *testing.T) {
		e := newTestEngine(t, types.Config{})
		tables, err := e.Tables(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"bookmarks", "categories", "component_versions", "components", "ui_settings",
		}, tables)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		explicit := filepath.Join(t.TempDir(), "lib", "explicit.db")
		e := newTestEngine(t, types.Config{DatabasePath: explicit})
		require.NoError(t, e.Open(ctx))
		assert.Equal(t, explicit, e.Path())
	})

	t.Run("unwritable location is unavailable", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		e := newTestEngine(t, types.Config{DataDir: t.TempDir(), DatabasePath: filepath.Join(blocker, "lib.db")})
		err := e.Open(ctx)
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
	})

	t.Run("corrupt file is unavailable", func(t *testing.T) {
		corrupt := filepath.Join(t.TempDir(), "corrupt.db")
		require.NoError(t, os.WriteFile(corrupt, []byte("this is not a database file at all, just text"), 0o644))

		e := newTestEngine(t, types.Config{DataDir: t.TempDir(), DatabasePath: corrupt})
		err := e.Open(ctx)
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
	})

	t.Run("missing data dir is unavailable", func(t *testing.T) {
		e := NewEngine(types.Config{}, zerolog.Nop())
		err := e.Open(ctx)
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
		assert.ErrorIs(t, err, types.ErrDataDirEmpty)
	})
}

func TestEngine_Close(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(types.Config{DataDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, e.Open(ctx))

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "second Close should not error")

	_, err := e.Execute(ctx, "DELETE FROM components", nil)
	assert.ErrorIs(t, err, types.ErrEngineClosed)
	assert.ErrorIs(t, e.Open(ctx), types.ErrEngineClosed)
}

func TestEngine_LazyOpen(t *testing.T) {
	dataDir := t.TempDir()
	e := newTestEngine(t, types.Config{DataDir: dataDir})

	insertComponent(t, e, "c1", "<div/>")
	assert.FileExists(t, filepath.Join(dataDir, types.DefaultDatabaseFile))
}

func TestEngine_ExecuteAndSelect(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, types.Config{})

	res, err := e.Execute(ctx,
		"INSERT INTO categories (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		[]any{"cat1", "Buttons", nil, types.FormatTime(time.Now())})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Changes)
	assert.NotZero(t, res.LastInsertID)

	rows, err := e.SelectAll(ctx, "SELECT id, name, description FROM categories WHERE id = ?", []any{"cat1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cat1", rows[0]["id"])
	assert.Equal(t, "Buttons", rows[0]["name"])
	assert.Nil(t, rows[0]["description"])

	t.Run("no match is an empty slice", func(t *testing.T) {
		rows, err := e.SelectAll(ctx, "SELECT * FROM categories WHERE id = ?", []any{"missing"})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("update reports affected rows", func(t *testing.T) {
		res, err := e.Execute(ctx, "UPDATE categories SET name = ? WHERE id = ?", []any{"Btn", "cat1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Changes)

		res, err = e.Execute(ctx, "UPDATE categories SET name = ? WHERE id = ?", []any{"Btn", "nope"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Changes)
	})
}

func TestEngine_StatementErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, types.Config{})

	tests := []struct {
		name   string
		sql    string
		params []any
	}{
		{"malformed sql", "INSERT INTO nowhere VALUES (", nil},
		{"unknown table", "SELECT * FROM missing_table", nil},
		{"not null violation", "INSERT INTO categories (id, name, created_at) VALUES (?, NULL, ?)", []any{"x", "t"}},
		{"foreign key violation", "INSERT INTO component_versions (id, component_id, code, created_at) VALUES (?, ?, ?, ?)",
			[]any{"v1", "no-such-component", "code", "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(ctx, tt.sql, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrStatement)
		})
	}

	t.Run("select error", func(t *testing.T) {
		_, err := e.SelectAll(ctx, "SELEKT 1", nil)
		assert.ErrorIs(t, err, types.ErrStatement)
	})
}

func TestEngine_ExecuteBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("all statements commit", func(t *testing.T) {
		e := newTestEngine(t, types.Config{})
		now := types.FormatTime(time.Now())
		results, err := e.ExecuteBatch(ctx, []types.Statement{
			{SQL: "INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)", Params: []any{"a", "A", now}},
			{SQL: "INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)", Params: []any{"b", "B", now}},
			{SQL: "UPDATE categories SET name = 'X'"},
		})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, int64(2), results[2].Changes)
		assert.Equal(t, int64(2), countRows(t, e, "categories"))
	})

	t.Run("failure in the middle rolls everything back", func(t *testing.T) {
		e := newTestEngine(t, types.Config{})
		now := types.FormatTime(time.Now())
		_, err := e.ExecuteBatch(ctx, []types.Statement{
			{SQL: "INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)", Params: []any{"a", "A", now}},
			{SQL: "INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)", Params: []any{"a", "duplicate", now}},
			{SQL: "INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)", Params: []any{"c", "C", now}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrStatement)
		assert.Contains(t, err.Error(), "statement 1")
		assert.Equal(t, int64(0), countRows(t, e, "categories"))
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		e := newTestEngine(t, types.Config{})
		results, err := e.ExecuteBatch(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEngine_DeleteCascadesVersions(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, types.Config{})

	insertComponent(t, e, "c1", "v1")
	insertVersion(t, e, "v1", "c1", "v1")
	insertVersion(t, e, "v2", "c1", "v2")
	insertComponent(t, e, "c2", "other")
	insertVersion(t, e, "v3", "c2", "other")

	_, err := e.Execute(ctx, "INSERT INTO bookmarks (id, component_id, created_at) VALUES (?, ?, ?)",
		[]any{"b1", "c1", types.FormatTime(time.Now())})
	require.NoError(t, err)

	_, err = e.Execute(ctx, "DELETE FROM components WHERE id = ?", []any{"c1"})
	require.NoError(t, err)

	rows, err := e.SelectAll(ctx, "SELECT id FROM component_versions WHERE component_id = ?", []any{"c1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(1), countRows(t, e, "component_versions"))
	assert.Equal(t, int64(0), countRows(t, e, "bookmarks"))
}

func TestEngine_Init(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, types.Config{})

	require.NoError(t, e.Init(ctx, SchemaSQL()), "re-applying the schema is a no-op")
	require.NoError(t, e.Init(ctx, "CREATE TABLE IF NOT EXISTS notes (id TEXT PRIMARY KEY);"))

	tables, err := e.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "notes")

	err = e.Init(ctx, "CREATE TABLE (")
	assert.ErrorIs(t, err, types.ErrStatement)
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int64", int64(7), int64(7)},
		{"int", 7, int64(7)},
		{"float", 1.5, 1.5},
		{"string", "s", "s"},
		{"bytes", []byte("ab"), []byte("ab")},
		{"true", true, int64(1)},
		{"false", false, int64(0)},
		{"time", ts, types.FormatTime(ts)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in))
		})
	}
}

func TestSchemaSQL(t *testing.T) {
	s := SchemaSQL()
	for _, name := range types.RequiredTables {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS "+name+" (")
	}
	assert.Contains(t, s, "ON DELETE CASCADE")
}

func TestEngine_TimestampDefaults(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, types.Config{})

	_, err := e.Execute(ctx,
		"INSERT INTO components (id, name, code, category) VALUES (?, ?, ?, ?)",
		[]any{"c1", "Card", "<div/>", "layout"})
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO bookmarks (id, component_id) VALUES (?, ?)", []any{"b1", "c1"})
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO component_versions (id, component_id, code) VALUES (?, ?, ?)",
		[]any{"v1", "c1", "<div/>"})
	require.NoError(t, err)

	rows, err := e.SelectAll(ctx, `SELECT c.created_at, c.updated_at, b.created_at AS bookmarked_at
		FROM components c JOIN bookmarks b ON b.component_id = c.id`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	for _, col := range []string{"created_at", "updated_at", "bookmarked_at"} {
		v, ok := rows[0][col].(string)
		require.True(t, ok, "%s is %T", col, rows[0][col])
		assert.Len(t, v, len(types.TimeLayout), col)
		ts, err := time.Parse(types.TimeLayout, v)
		require.NoError(t, err, col)
		assert.WithinDuration(t, time.Now(), ts, time.Minute, col)
	}

	t.Run("defaults order after earlier stored values", func(t *testing.T) {
		earlier := types.FormatTime(time.Now().Add(-time.Hour))
		rows, err := e.SelectAll(ctx, "SELECT created_at > ? AS later FROM components WHERE id = ?",
			[]any{earlier, "c1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows[0]["later"])
	})
}
