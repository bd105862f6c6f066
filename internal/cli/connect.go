package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/componentry/internal/assets"
	"github.com/mesh-intelligence/componentry/internal/client"
	"github.com/mesh-intelligence/componentry/internal/ipc"
	"github.com/mesh-intelligence/componentry/internal/sqlite"
	"github.com/mesh-intelligence/componentry/internal/store"
)

// session is one command's connection to storage.
type session struct {
	client    *client.Client
	notices   *store.Collector
	engine    *sqlite.Engine
	transport ipc.Transport
}

// connect opens a session. With --addr the client dials the running server;
// otherwise an engine is started in-process behind a Pipe.
func (a *app) connect(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	s := &session{notices: store.NewCollector(store.DefaultNotificationTTL)}

	if a.flags.addr != "" {
		ws, err := ipc.DialWS(ctx, a.flags.addr, a.log)
		if err != nil {
			return nil, err
		}
		s.transport = ws
	} else {
		s.engine = sqlite.NewEngine(a.storageConfig(), a.log)
		server := ipc.NewServer(s.engine,
			ipc.WithLogger(a.log),
			ipc.WithStylesheets(assets.NewCache(a.dataDir, a.log)),
			ipc.WithPathPicker(linePicker{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}),
		)
		s.transport = ipc.NewPipe(server)
	}

	s.client = client.New(s.transport, a.log)
	if err := s.client.Init(ctx, sqlite.SchemaSQL()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) components(a *app) *store.Components {
	return store.NewComponents(s.client, s.notices, a.log)
}

func (s *session) bookmarks(a *app) *store.Bookmarks {
	return store.NewBookmarks(s.client, s.notices, a.log)
}

func (s *session) categories(a *app) *store.Categories {
	return store.NewCategories(s.client, s.notices, a.log)
}

func (s *session) settings(a *app) *store.Settings {
	return store.NewSettings(s.client, a.log)
}

// Close releases the transport and, in-process, the engine.
func (s *session) Close() error {
	err := s.client.Close()
	if s.engine != nil {
		err = errors.Join(err, s.engine.Close())
	}
	return err
}

// linePicker reads a database path from the command's input. An empty line
// or end of input cancels.
type linePicker struct {
	in  io.Reader
	out io.Writer
}

func (p linePicker) Pick(context.Context) (string, bool, error) {
	fmt.Fprint(p.out, "Database file (.db): ")
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("read path: %w", err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", false, nil
	}
	return path, true, nil
}
