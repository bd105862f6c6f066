// Package cli implements the componentry command-line interface.
//
// Commands that touch the library reach storage only through the Storage
// Client. With --addr they talk to a running "componentry serve" over
// websocket; without it they start an engine in-process behind the same
// message boundary.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/componentry/internal/logging"
	"github.com/mesh-intelligence/componentry/internal/paths"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	dbPath    string
	addr      string
	jsonMode  bool
}

// app is the state shared by one command tree.
type app struct {
	flags     rootFlags
	configDir string
	dataDir   string
	cfg       *viper.Viper
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "componentry" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "componentry",
		Short: "A local library of versioned UI components",
		Long: "Componentry stores reusable UI components with version history,\n" +
			"bookmarks, and UI preferences in a relocatable SQLite library.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	pf.StringVar(&a.flags.dbPath, "db", "", "database file, overriding the saved location")
	pf.StringVar(&a.flags.addr, "addr", "", "address of a running server; empty runs storage in-process")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newDBCmd(a))
	root.AddCommand(newComponentCmd(a))
	root.AddCommand(newBookmarkCmd(a))
	root.AddCommand(newSettingsCmd(a))
	root.AddCommand(newCategoryCmd(a))
	root.AddCommand(newStylesheetCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "componentry:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to the process exit status. Problems with the
// user's input are user errors; everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrEmptyCode),
		errors.Is(err, types.ErrInvalidStorageTarget),
		errors.Is(err, types.ErrUnknownSetting),
		errors.Is(err, types.ErrInvalidSetting),
		errors.Is(err, types.ErrBadRequest):
		return exitUserError
	default:
		return exitSysError
	}
}

// setup resolves directories, loads config.yaml, and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	a.dataDir = dataDir

	log, err := logging.New(cmd.ErrOrStderr(), cfg.GetString(cfgKeyLogLevel), cfg.GetString(cfgKeyLogFormat))
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// storageConfig returns the engine configuration. The --db flag wins over
// database_path from config.yaml.
func (a *app) storageConfig() types.Config {
	dbPath := a.flags.dbPath
	if dbPath == "" {
		dbPath = a.cfg.GetString(cfgKeyDatabasePath)
	}
	return types.Config{
		DataDir:      a.dataDir,
		DatabasePath: dbPath,
	}
}

func (a *app) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
