package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/componentry/internal/client"
	"github.com/mesh-intelligence/componentry/internal/ipc"
	"github.com/mesh-intelligence/componentry/internal/sqlite"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// newExecutor returns a Storage Client talking to a fresh engine through the
// in-process transport.
func newExecutor(t *testing.T) *client.Client {
	t.Helper()
	engine := sqlite.NewEngine(types.Config{DataDir: t.TempDir()}, zerolog.Nop())
	t.Cleanup(func() { engine.Close() })
	c := client.New(ipc.NewPipe(ipc.NewServer(engine)), zerolog.Nop())
	require.NoError(t, c.Init(context.Background(), sqlite.SchemaSQL()))
	return c
}

// ticker returns a clock that advances one millisecond per reading.
func ticker() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

func messages(c *Collector) []string {
	var out []string
	for _, n := range c.List() {
		out = append(out, string(n.Kind)+":"+n.Message)
	}
	return out
}
