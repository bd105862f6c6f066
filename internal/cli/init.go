package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/componentry/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the component library",
		Long: "Create the configuration and data directories, write config.yaml when\n" +
			"missing, and create the library database with its schema.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfigFile()
			cfg.DataDir = a.dataDir
			written, err := writeConfigIfMissing(a.configDir, cfg)
			if err != nil {
				return err
			}
			if written {
				a.log.Info().Str("dir", a.configDir).Msg("config written")
			}

			engine := sqlite.NewEngine(a.storageConfig(), a.log)
			if err := engine.Open(cmd.Context()); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			path := engine.Path()
			if err := engine.Close(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{
					"config_dir":    a.configDir,
					"data_dir":      a.dataDir,
					"database_path": path,
				})
			}
			fmt.Fprintf(a.out(cmd), "Component library initialized at %s\n", path)
			return nil
		},
	}
}
