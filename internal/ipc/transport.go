package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Transport carries one request to the server and decodes its response into
// result. Implementations are safe for concurrent use.
type Transport interface {
	Call(ctx context.Context, method string, params, result any) error
	Close() error
}

// ErrTransportClosed is returned by Call after Close.
var ErrTransportClosed = errors.New("transport closed")

func newRequest(method string, params any) (Request, error) {
	raw, err := rawParams(params)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s params: %w", method, err)
	}
	return Request{
		ID:     uuid.NewString(),
		Method: method,
		Params: raw,
	}, nil
}

// finishResponse turns a decoded response into the caller's result or error.
func finishResponse(method string, resp Response, result any) error {
	if resp.Error != nil {
		return resp.Error
	}
	if err := decodeRaw(resp.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
