package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/internal/paths"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Storage is the engine surface the server dispatches to.
type Storage interface {
	Init(ctx context.Context, schema string) error
	Execute(ctx context.Context, query string, params []any) (types.Result, error)
	SelectAll(ctx context.Context, query string, params []any) ([]types.Row, error)
	ExecuteBatch(ctx context.Context, stmts []types.Statement) ([]types.Result, error)
	Path() string
	Relocate(ctx context.Context, newPath string) error
}

// Stylesheets persists the cached preview stylesheet.
type Stylesheets interface {
	Save(css string) error
	Load() (string, bool, error)
}

// PathPicker asks the user for a database file. ok is false when the user
// cancelled.
type PathPicker interface {
	Pick(ctx context.Context) (path string, ok bool, err error)
}

type noPicker struct{}

func (noPicker) Pick(context.Context) (string, bool, error) { return "", false, nil }

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log.With().Str("component", "ipc").Logger() }
}

// WithStylesheets enables the stylesheet methods.
func WithStylesheets(st Stylesheets) Option {
	return func(s *Server) { s.styles = st }
}

// WithPathPicker sets the picker behind select-database-path.
func WithPathPicker(p PathPicker) Option {
	return func(s *Server) { s.picker = p }
}

// WithRestart sets the hook called after a set-database-path response that
// switched the database has been delivered.
func WithRestart(fn func()) Option {
	return func(s *Server) { s.restart = fn }
}

// Server dispatches requests to the Storage Engine. Requests arriving on one
// connection are handled one at a time in arrival order.
type Server struct {
	storage  Storage
	styles   Stylesheets
	picker   PathPicker
	restart  func()
	log      zerolog.Logger
	upgrader websocket.Upgrader

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

// NewServer creates a Server for storage.
func NewServer(storage Storage, opts ...Option) *Server {
	s := &Server{
		storage: storage,
		picker:  noPicker{},
		log:     zerolog.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// handle decodes one encoded request, dispatches it, and returns the encoded
// response. restart reports whether the restart hook is due once the response
// has been delivered.
func (s *Server) handle(ctx context.Context, data []byte) (out []byte, restart bool) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		s.log.Warn().Err(err).Msg("decode request")
		return s.encode(Response{Error: &Error{Code: CodeBadRequest, Message: "decode request: " + err.Error()}}), false
	}

	start := time.Now()
	result, restart, err := s.dispatch(ctx, req)
	resp := Response{ID: req.ID}
	if err != nil {
		resp.Error = errorFrom(err)
		s.log.Warn().Err(err).Str("method", req.Method).Str("code", resp.Error.Code).Msg("request failed")
		return s.encode(resp), false
	}
	if result != nil {
		raw, err := Marshal(result)
		if err != nil {
			resp.Error = &Error{Code: CodeInternal, Message: "encode result: " + err.Error()}
			return s.encode(resp), false
		}
		resp.Result = raw
	}
	s.log.Debug().Str("method", req.Method).Dur("elapsed", time.Since(start)).Msg("request handled")
	return s.encode(resp), restart
}

func (s *Server) encode(resp Response) []byte {
	out, err := Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Str("id", resp.ID).Msg("encode response")
		out, _ = Marshal(Response{ID: resp.ID, Error: &Error{Code: CodeInternal, Message: err.Error()}})
	}
	return out
}

func decodeParams(req Request, v any) error {
	if err := decodeRaw(req.Params, v); err != nil {
		return fmt.Errorf("%w: %s params: %w", types.ErrBadRequest, req.Method, err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, bool, error) {
	switch req.Method {
	case MethodInit:
		var p InitParams
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		return nil, false, s.storage.Init(ctx, p.Schema)

	case MethodExecute:
		var p types.Statement
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		if p.SQL == "" {
			return nil, false, fmt.Errorf("%w: empty statement", types.ErrBadRequest)
		}
		res, err := s.storage.Execute(ctx, p.SQL, p.Params)
		return res, false, err

	case MethodSelect:
		var p types.Statement
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		if p.SQL == "" {
			return nil, false, fmt.Errorf("%w: empty statement", types.ErrBadRequest)
		}
		rows, err := s.storage.SelectAll(ctx, p.SQL, p.Params)
		return rows, false, err

	case MethodExecuteMany:
		var p BatchParams
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		results, err := s.storage.ExecuteBatch(ctx, p.Statements)
		return results, false, err

	case MethodGetDatabasePath:
		return PathResult{Path: s.storage.Path()}, false, nil

	case MethodSetDatabasePath:
		var p PathParams
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		before := s.storage.Path()
		if err := s.storage.Relocate(ctx, p.Path); err != nil {
			return nil, false, err
		}
		after := s.storage.Path()
		return PathResult{Path: after}, after != before, nil

	case MethodSelectDatabasePath:
		path, ok, err := s.picker.Pick(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok || !paths.HasDatabaseExtension(path) {
			return SelectPathResult{}, false, nil
		}
		return SelectPathResult{Path: path, Selected: true}, false, nil

	case MethodSaveStylesheet:
		if s.styles == nil {
			return nil, false, fmt.Errorf("%w: %s", types.ErrUnknownMethod, req.Method)
		}
		var p StylesheetParams
		if err := decodeParams(req, &p); err != nil {
			return nil, false, err
		}
		return nil, false, s.styles.Save(p.CSS)

	case MethodLoadStylesheet:
		if s.styles == nil {
			return nil, false, fmt.Errorf("%w: %s", types.ErrUnknownMethod, req.Method)
		}
		css, found, err := s.styles.Load()
		if err != nil {
			return nil, false, err
		}
		return StylesheetResult{CSS: css, Found: found}, false, nil

	default:
		return nil, false, fmt.Errorf("%w: %q", types.ErrUnknownMethod, req.Method)
	}
}

func (s *Server) requestRestart() {
	if s.restart == nil {
		return
	}
	s.log.Info().Msg("database switched, restart requested")
	s.restart()
}

// Router returns the HTTP routes: the websocket endpoint at /rpc and a
// health check at /healthz.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/rpc", s.serveRPC)
	r.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":        "ok",
		"database_path": s.storage.Path(),
	})
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	log := s.log.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("connection opened")

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("connection lost")
			} else {
				log.Debug().Msg("connection closed")
			}
			return
		}

		out, restart := s.handle(ctx, data)
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			log.Warn().Err(err).Msg("write response")
			return
		}
		if restart {
			s.requestRestart()
		}
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	conn.Close()
}

func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// and closes every open websocket.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeConns()
		s.log.Info().Msg("server stopped")
		return err
	}
}
