// Package client is the Storage Client: the only way UI-facing code reaches
// storage. Every call is forwarded across the message boundary; nothing is
// retried or cached, and every failure is logged and returned.
package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/internal/ipc"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

var _ types.Executor = (*Client)(nil)

// Client forwards storage requests over a Transport.
type Client struct {
	transport ipc.Transport
	log       zerolog.Logger
}

// New creates a Client over transport.
func New(transport ipc.Transport, log zerolog.Logger) *Client {
	return &Client{
		transport: transport,
		log:       log.With().Str("component", "client").Logger(),
	}
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if err := c.transport.Call(ctx, method, params, result); err != nil {
		c.log.Error().Err(err).Str("method", method).Msg("storage call failed")
		return err
	}
	return nil
}

// Init applies an idempotent schema script.
func (c *Client) Init(ctx context.Context, schema string) error {
	return c.call(ctx, ipc.MethodInit, ipc.InitParams{Schema: schema}, nil)
}

// Mutate runs one mutating statement.
func (c *Client) Mutate(ctx context.Context, sql string, params ...any) (types.Result, error) {
	var res types.Result
	err := c.call(ctx, ipc.MethodExecute, types.Statement{SQL: sql, Params: params}, &res)
	return res, err
}

// Query runs one read statement. No match yields an empty slice.
func (c *Client) Query(ctx context.Context, sql string, params ...any) ([]types.Row, error) {
	var rows []types.Row
	if err := c.call(ctx, ipc.MethodSelect, types.Statement{SQL: sql, Params: params}, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []types.Row{}
	}
	return rows, nil
}

// Batch runs the statements atomically.
func (c *Client) Batch(ctx context.Context, stmts []types.Statement) ([]types.Result, error) {
	var results []types.Result
	if err := c.call(ctx, ipc.MethodExecuteMany, ipc.BatchParams{Statements: stmts}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// DatabasePath returns the database file in use.
func (c *Client) DatabasePath(ctx context.Context) (string, error) {
	var res ipc.PathResult
	err := c.call(ctx, ipc.MethodGetDatabasePath, nil, &res)
	return res.Path, err
}

// SetDatabasePath relocates the database to path and returns the path in use
// afterwards. The owning process restarts once the database has switched.
func (c *Client) SetDatabasePath(ctx context.Context, path string) (string, error) {
	var res ipc.PathResult
	err := c.call(ctx, ipc.MethodSetDatabasePath, ipc.PathParams{Path: path}, &res)
	return res.Path, err
}

// SelectDatabasePath asks the owning process to let the user pick a database
// file. ok is false when nothing was chosen.
func (c *Client) SelectDatabasePath(ctx context.Context) (path string, ok bool, err error) {
	var res ipc.SelectPathResult
	if err := c.call(ctx, ipc.MethodSelectDatabasePath, nil, &res); err != nil {
		return "", false, err
	}
	return res.Path, res.Selected, nil
}

// SaveStylesheet caches the preview stylesheet.
func (c *Client) SaveStylesheet(ctx context.Context, css string) error {
	return c.call(ctx, ipc.MethodSaveStylesheet, ipc.StylesheetParams{CSS: css}, nil)
}

// LoadStylesheet returns the cached preview stylesheet; ok is false when
// none has been saved.
func (c *Client) LoadStylesheet(ctx context.Context) (css string, ok bool, err error) {
	var res ipc.StylesheetResult
	if err := c.call(ctx, ipc.MethodLoadStylesheet, nil, &res); err != nil {
		return "", false, err
	}
	return res.CSS, res.Found, nil
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
