package ipc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// WSClient is a Transport over a websocket connection to a Server. Calls may
// be issued concurrently; responses are matched to requests by ID.
type WSClient struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response
	err     error
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
}

// RPCURL turns a listen address such as 127.0.0.1:7420 into the websocket
// endpoint URL. Full ws:// or wss:// URLs are returned unchanged.
func RPCURL(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + "/rpc"
}

// DialWS connects to the server at addr.
func DialWS(ctx context.Context, addr string, log zerolog.Logger) (*WSClient, error) {
	url := RPCURL(addr)
	conn, res, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", types.ErrStorageUnavailable, url, err)
	}
	res.Body.Close()

	c := &WSClient{
		conn:    conn,
		log:     log.With().Str("component", "wsclient").Str("url", url).Logger(),
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call implements Transport.
func (c *WSClient) Call(ctx context.Context, method string, params, result any) error {
	req, err := newRequest(method, params)
	if err != nil {
		return err
	}
	data, err := Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer c.forget(req.ID)

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.BinaryMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: write request: %w", types.ErrStorageUnavailable, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-ch:
		return finishResponse(method, resp, result)
	case <-c.done:
		return c.closeErr()
	}
}

func (c *WSClient) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *WSClient) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("%w: connection lost: %w", types.ErrStorageUnavailable, err))
			return
		}

		var resp Response
		if err := Unmarshal(data, &resp); err != nil {
			c.log.Error().Err(err).Msg("decode response")
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			c.log.Warn().Str("id", resp.ID).Msg("response for unknown request")
			continue
		}
		ch <- resp
	}
}

// fail records the first terminal error and wakes every waiting Call.
func (c *WSClient) fail(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *WSClient) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a close frame and releases the connection. Pending and later
// calls return ErrTransportClosed.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	c.fail(ErrTransportClosed)

	c.writeMu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.log.Debug().Err(err).Msg("write close frame")
	}
	return c.conn.Close()
}
