package types

import (
	"context"
	"errors"
)

// Statement is one parameterized SQL statement.
type Statement struct {
	SQL    string `cbor:"sql" json:"sql"`
	Params []any  `cbor:"params" json:"params"`
}

// Result is the metadata returned by a mutating statement.
type Result struct {
	Changes      int64 `cbor:"changes" json:"changes"`
	LastInsertID int64 `cbor:"lastInsertId" json:"lastInsertId"`
}

// Row maps column names to values. Values are one of nil, int64, float64,
// string, or []byte.
type Row map[string]any

// Executor is the narrow storage contract the domain stores are written
// against. The Storage Client implements it by forwarding every call across
// the message boundary; the Storage Engine implements it directly.
type Executor interface {
	// Mutate runs one mutating statement.
	Mutate(ctx context.Context, sql string, params ...any) (Result, error)

	// Query runs one read statement and returns every matching row.
	// An empty result is an empty slice, not an error.
	Query(ctx context.Context, sql string, params ...any) ([]Row, error)

	// Batch runs the statements in one all-or-nothing transaction.
	Batch(ctx context.Context, stmts []Statement) ([]Result, error)
}

// Storage errors. Engine failures wrap one of these together with the
// underlying cause, so both are visible to errors.Is.
var (
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrStatement            = errors.New("statement error")
	ErrInvalidStorageTarget = errors.New("invalid storage target")
	ErrEngineClosed         = errors.New("storage engine is closed")
)

// Message boundary errors.
var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrBadRequest    = errors.New("bad request")
)
