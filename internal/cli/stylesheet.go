package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newStylesheetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stylesheet",
		Short: "Manage the cached preview stylesheet",
	}

	save := &cobra.Command{
		Use:   "save <file|->",
		Short: "Cache a stylesheet for offline previews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read stylesheet: %w", err)
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.client.SaveStylesheet(cmd.Context(), string(data)); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]int{"bytes": len(data)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes\n", len(data))
			return nil
		},
	}

	load := &cobra.Command{
		Use:   "load",
		Short: "Print the cached stylesheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			css, ok, err := s.client.LoadStylesheet(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"found": ok, "css": css})
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "No cached stylesheet")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), css)
			return nil
		},
	}

	cmd.AddCommand(save, load)
	return cmd
}
