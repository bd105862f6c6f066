package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/componentry/internal/assets"
	"github.com/mesh-intelligence/componentry/internal/ipc"
	"github.com/mesh-intelligence/componentry/internal/sqlite"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	var noRestart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the component library over websocket",
		Long: "Serve owns the library database and answers storage requests from\n" +
			"clients started with --addr. After the database is relocated the\n" +
			"process restarts itself so every client reconnects to the new file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.GetString(cfgKeyListenAddr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			engine := sqlite.NewEngine(a.storageConfig(), a.log)
			if err := engine.Open(ctx); err != nil {
				return err
			}

			var restart atomic.Bool
			opts := []ipc.Option{
				ipc.WithLogger(a.log),
				ipc.WithStylesheets(assets.NewCache(a.dataDir, a.log)),
			}
			if !noRestart {
				opts = append(opts, ipc.WithRestart(func() {
					restart.Store(true)
					cancel()
				}))
			}
			server := ipc.NewServer(engine, opts...)

			serveErr := server.ListenAndServe(ctx, listen)
			if err := engine.Close(); err != nil {
				a.log.Error().Err(err).Msg("close engine")
			}
			if serveErr != nil {
				return serveErr
			}
			if restart.Load() {
				return relaunch(a)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config listen_addr)")
	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "keep running after the database is relocated")
	return cmd
}

// relaunch starts a fresh copy of this process with the same arguments. The
// new process resolves the relocated database through the marker file.
func relaunch(a *app) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	child := exec.Command(exe, os.Args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	a.log.Info().Int("pid", child.Process.Pid).Msg("relaunched")
	return nil
}
