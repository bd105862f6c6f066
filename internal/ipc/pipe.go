package ipc

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Pipe is an in-process Transport. Requests are encoded and decoded exactly
// as on the network, then handed straight to the server.
type Pipe struct {
	server *Server
	closed atomic.Bool
}

// NewPipe connects a Pipe to server.
func NewPipe(server *Server) *Pipe {
	return &Pipe{server: server}
}

// Call implements Transport.
func (p *Pipe) Call(ctx context.Context, method string, params, result any) error {
	if p.closed.Load() {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req, err := newRequest(method, params)
	if err != nil {
		return err
	}
	data, err := Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	out, restart := p.server.handle(ctx, data)
	if restart {
		defer p.server.requestRestart()
	}

	var resp Response
	if err := Unmarshal(out, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	return finishResponse(method, resp, result)
}

// Close implements Transport. It does not close the server's storage.
func (p *Pipe) Close() error {
	p.closed.Store(true)
	return nil
}
