// Package sqlite implements the Storage Engine: the sole owner of the
// component library database file and its connection.
//
// The engine resolves where the file lives, creates it on first access,
// applies the idempotent schema on every open, executes parameterized
// statements and atomic batches, and relocates the file on request.
// Every failure is logged here and returned wrapped in one of the storage
// sentinels from pkg/types.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/componentry/internal/paths"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// dsnPragmas are applied by the driver to every new connection.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Engine owns the database connection and file location.
// Create one per process with NewEngine and pass it to whatever serves
// storage requests.
type Engine struct {
	mu     sync.RWMutex
	config types.Config
	log    zerolog.Logger
	db     *sql.DB
	path   string
	source paths.PathSource
	closed bool
}

// NewEngine creates a Storage Engine for the given configuration.
// The database is not opened until Open or the first statement.
func NewEngine(config types.Config, log zerolog.Logger) *Engine {
	return &Engine{
		config: config,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// Open resolves the database path, opens or creates the file, and applies
// the schema. Open is idempotent: when the engine is already open it returns
// nil and keeps the existing connection.
// Returns ErrStorageUnavailable wrapping the cause on failure.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openLocked(ctx)
}

func (e *Engine) openLocked(ctx context.Context) error {
	if e.closed {
		return types.ErrEngineClosed
	}
	if e.db != nil {
		return nil
	}

	if err := e.config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	path := e.path
	source := e.source
	if path == "" {
		var err error
		path, source, err = paths.ResolveDatabasePath(e.config.DatabasePath, e.config.DataDir)
		if err != nil {
			e.log.Error().Err(err).Msg("resolve database path")
			return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
		}
	}

	db, err := openDatabase(ctx, path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("open database")
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	e.db = db
	e.path = path
	e.source = source
	e.log.Info().Str("path", path).Str("source", string(source)).Msg("database opened")
	return nil
}

// openDatabase opens or creates the file at path with a single pooled
// connection, enables foreign keys, and applies the schema.
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open(driverName, path+dsnPragmas)
	if err != nil {
		return nil, err
	}

	// One connection: statements are processed one at a time, and the
	// connection-scoped pragmas below hold for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates missing tables and indexes.
func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply indexes: %w", err)
		}
	}
	return nil
}

// Close releases the connection. After Close every operation returns
// ErrEngineClosed. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	if err != nil {
		e.log.Error().Err(err).Msg("close database")
		return err
	}
	e.log.Info().Str("path", e.path).Msg("database closed")
	return nil
}

// Path returns the database path in use, or the path Open would use when
// the engine has not been opened yet.
func (e *Engine) Path() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.path != "" {
		return e.path
	}
	path, _, err := paths.ResolveDatabasePath(e.config.DatabasePath, e.config.DataDir)
	if err != nil {
		return filepath.Join(e.config.DataDir, types.DefaultDatabaseFile)
	}
	return path
}

// DataDir returns the application-private data directory.
func (e *Engine) DataDir() string {
	return e.config.DataDir
}

// acquire returns the open connection, opening it on first use. The caller
// must call release when the statement is done; relocation waits for every
// outstanding release.
func (e *Engine) acquire(ctx context.Context) (db *sql.DB, release func(), err error) {
	for {
		e.mu.RLock()
		if e.closed {
			e.mu.RUnlock()
			return nil, nil, types.ErrEngineClosed
		}
		if e.db != nil {
			return e.db, e.mu.RUnlock, nil
		}
		e.mu.RUnlock()

		if err := e.Open(ctx); err != nil {
			return nil, nil, err
		}
	}
}

// Init executes an idempotent schema script.
func (e *Engine) Init(ctx context.Context, schema string) error {
	db, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		e.log.Error().Err(err).Msg("init schema")
		return fmt.Errorf("%w: %w", types.ErrStatement, err)
	}
	return nil
}

// Execute runs one parameterized mutating statement.
// Returns ErrStatement wrapping the cause on failure.
func (e *Engine) Execute(ctx context.Context, query string, params []any) (types.Result, error) {
	db, release, err := e.acquire(ctx)
	if err != nil {
		return types.Result{}, err
	}
	defer release()

	res, err := db.ExecContext(ctx, query, params...)
	if err != nil {
		e.log.Error().Err(err).Str("sql", query).Msg("execute")
		return types.Result{}, fmt.Errorf("%w: %w", types.ErrStatement, err)
	}
	return resultOf(res), nil
}

// SelectAll runs one parameterized read statement and returns every row.
// Returns an empty slice when nothing matches.
func (e *Engine) SelectAll(ctx context.Context, query string, params []any) ([]types.Row, error) {
	db, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		e.log.Error().Err(err).Str("sql", query).Msg("select")
		return nil, fmt.Errorf("%w: %w", types.ErrStatement, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		e.log.Error().Err(err).Str("sql", query).Msg("scan rows")
		return nil, fmt.Errorf("%w: %w", types.ErrStatement, err)
	}
	return out, nil
}

// ExecuteBatch runs the statements in order inside one transaction. If any
// statement fails the transaction is rolled back and the error of the failing
// statement is returned; none of the batch's effects remain.
func (e *Engine) ExecuteBatch(ctx context.Context, stmts []types.Statement) ([]types.Result, error) {
	db, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		e.log.Error().Err(err).Msg("begin batch")
		return nil, fmt.Errorf("%w: begin: %w", types.ErrStatement, err)
	}
	defer tx.Rollback()

	results := make([]types.Result, 0, len(stmts))
	for i, stmt := range stmts {
		res, err := tx.ExecContext(ctx, stmt.SQL, stmt.Params...)
		if err != nil {
			e.log.Error().Err(err).Int("index", i).Str("sql", stmt.SQL).Msg("batch statement")
			return nil, fmt.Errorf("%w: statement %d: %w", types.ErrStatement, i, err)
		}
		results = append(results, resultOf(res))
	}

	if err := tx.Commit(); err != nil {
		e.log.Error().Err(err).Msg("commit batch")
		return nil, fmt.Errorf("%w: commit: %w", types.ErrStatement, err)
	}
	return results, nil
}

// Tables returns the names of the user tables in the open database.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	rows, err := e.SelectAll(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name", nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		name, ok := r["name"].(string)
		if !ok {
			return nil, errors.New("unexpected table name value")
		}
		names = append(names, name)
	}
	return names, nil
}

// resultOf extracts change metadata. SQLite always supports both values.
func resultOf(res sql.Result) types.Result {
	var r types.Result
	if n, err := res.RowsAffected(); err == nil {
		r.Changes = n
	}
	if id, err := res.LastInsertId(); err == nil {
		r.LastInsertID = id
	}
	return r
}
