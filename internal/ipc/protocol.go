// Package ipc defines the message boundary between storage consumers and the
// process that owns the Storage Engine: operation names, request and response
// envelopes, error codes, the CBOR codec, the server dispatch, and the
// websocket and in-process transports.
package ipc

import (
	"errors"

	"github.com/fxamacker/cbor/v2"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Method names accepted by the server.
const (
	MethodInit               = "db:init"
	MethodExecute            = "db:execute"
	MethodSelect             = "db:select"
	MethodExecuteMany        = "db:executeMany"
	MethodGetDatabasePath    = "get-database-path"
	MethodSetDatabasePath    = "set-database-path"
	MethodSelectDatabasePath = "select-database-path"
	MethodSaveStylesheet     = "save:tailwindcss"
	MethodLoadStylesheet     = "load:tailwindcss"
)

// Request is one call across the boundary.
type Request struct {
	ID     string          `cbor:"id"`
	Method string          `cbor:"method"`
	Params cbor.RawMessage `cbor:"params,omitempty"`
}

// Response answers the request with the same ID. Exactly one of Error and
// Result is set.
type Response struct {
	ID     string          `cbor:"id"`
	Error  *Error          `cbor:"error,omitempty"`
	Result cbor.RawMessage `cbor:"result,omitempty"`
}

// Error codes carried in Response.Error.
const (
	CodeStorageUnavailable   = "storage_unavailable"
	CodeStatement            = "statement_error"
	CodeInvalidStorageTarget = "invalid_storage_target"
	CodeNotFound             = "not_found"
	CodeBadRequest           = "bad_request"
	CodeUnknownMethod        = "unknown_method"
	CodeEngineClosed         = "engine_closed"
	CodeInternal             = "internal"
)

// Error is a failure reported by the server.
type Error struct {
	Code    string `cbor:"code"`
	Message string `cbor:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel matching the code, so errors.Is works on the
// consumer side of the boundary.
func (e *Error) Unwrap() error {
	for _, c := range errorCodes {
		if c.code == e.Code {
			return c.sentinel
		}
	}
	return nil
}

var errorCodes = []struct {
	sentinel error
	code     string
}{
	{types.ErrStorageUnavailable, CodeStorageUnavailable},
	{types.ErrStatement, CodeStatement},
	{types.ErrInvalidStorageTarget, CodeInvalidStorageTarget},
	{types.ErrNotFound, CodeNotFound},
	{types.ErrBadRequest, CodeBadRequest},
	{types.ErrUnknownMethod, CodeUnknownMethod},
	{types.ErrEngineClosed, CodeEngineClosed},
}

// errorFrom converts a server-side failure into its wire form.
func errorFrom(err error) *Error {
	for _, c := range errorCodes {
		if errors.Is(err, c.sentinel) {
			return &Error{Code: c.code, Message: err.Error()}
		}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}

// InitParams carries the schema script for db:init.
type InitParams struct {
	Schema string `cbor:"schema"`
}

// BatchParams carries the statements for db:executeMany.
type BatchParams struct {
	Statements []types.Statement `cbor:"statements"`
}

// PathParams carries a database path.
type PathParams struct {
	Path string `cbor:"path"`
}

// PathResult reports a database path.
type PathResult struct {
	Path string `cbor:"path"`
}

// SelectPathResult reports the outcome of select-database-path. Selected is
// false when the user cancelled or picked a file without the .db extension.
type SelectPathResult struct {
	Path     string `cbor:"path,omitempty"`
	Selected bool   `cbor:"selected"`
}

// StylesheetParams carries the stylesheet text for save:tailwindcss.
type StylesheetParams struct {
	CSS string `cbor:"css"`
}

// StylesheetResult answers load:tailwindcss. Found is false when nothing has
// been cached.
type StylesheetResult struct {
	CSS   string `cbor:"css,omitempty"`
	Found bool   `cbor:"found"`
}
