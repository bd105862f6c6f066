package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"setting"},
		Short:   "Read and change UI preferences",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show every preference, with defaults for unset keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.settings(a).Load(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, st)
			}
			tw := newTable(cmd)
			fmt.Fprintf(tw, "sidebarCollapsed\t%t\n", st.SidebarCollapsed)
			fmt.Fprintf(tw, "versionHistoryExpanded\t%t\n", st.VersionHistoryExpanded)
			fmt.Fprintf(tw, "previewWidth\t%d\n", st.PreviewWidth)
			fmt.Fprintf(tw, "lastActiveTab\t%s\n", st.LastActiveTab)
			return tw.Flush()
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long: "Set validates and stores one preference. Keys: sidebarCollapsed,\n" +
			"versionHistoryExpanded, previewWidth, lastActiveTab.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			settings := s.settings(a)
			if _, err := settings.Load(ctx); err != nil {
				return err
			}
			if err := settings.Set(ctx, args[0], args[1]); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, settings.Snapshot())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
