package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and relocate the library database",
	}
	cmd.AddCommand(newDBPathCmd(a), newDBRelocateCmd(a), newDBSelectCmd(a), newDBTablesCmd(a))
	return cmd
}

func newDBPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the database file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			path, err := s.client.DatabasePath(cmd.Context())
			if err != nil {
				return err
			}
			return printPath(cmd, a.flags.jsonMode, path)
		},
	}
}

func newDBRelocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relocate <path>",
		Short: "Move the library to another database file",
		Long: "Relocate switches the library to the file at <path>. An existing file\n" +
			"must already hold a component library. When no file exists the current\n" +
			"library is copied there. The choice is remembered for later runs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			path, err := s.client.SetDatabasePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printPath(cmd, a.flags.jsonMode, path)
		},
	}
}

func newDBSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Choose a database file and relocate to it",
		Long: "Select prompts for a .db file and relocates the library to it. An empty\n" +
			"answer or a file without the .db extension leaves the library where it is.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			chosen, ok, err := s.client.SelectDatabasePath(ctx)
			if err != nil {
				return err
			}
			if !ok {
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]any{"selected": false})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No database selected")
				return nil
			}
			path, err := s.client.SetDatabasePath(ctx, chosen)
			if err != nil {
				return err
			}
			return printPath(cmd, a.flags.jsonMode, path)
		},
	}
}

func newDBTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables in the library database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := s.client.Query(cmd.Context(),
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
			if err != nil {
				return err
			}
			names := make([]string, 0, len(rows))
			for _, r := range rows {
				if name, ok := r["name"].(string); ok {
					names = append(names, name)
				}
			}
			if a.flags.jsonMode {
				return printJSON(cmd, names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func printPath(cmd *cobra.Command, jsonMode bool, path string) error {
	if jsonMode {
		return printJSON(cmd, map[string]string{"database_path": path})
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
