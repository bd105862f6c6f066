package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage the category reference list",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			cats, err := s.categories(a).Fetch(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, cats)
			}
			tw := newTable(cmd)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return tw.Flush()
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.categories(a).Create(cmd.Context(), args[0], description)
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "category description")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.categories(a).Delete(cmd.Context(), args[0])
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}
