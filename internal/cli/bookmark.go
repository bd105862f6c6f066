package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBookmarkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmark",
		Aliases: []string{"bookmarks"},
		Short:   "Manage bookmarked components",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bookmarked components, most recently bookmarked first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			comps, err := s.bookmarks(a).Fetch(cmd.Context())
			if err != nil {
				return err
			}
			return printComponents(cmd, a.flags.jsonMode, comps)
		},
	}

	cmd.AddCommand(list,
		newBookmarkChangeCmd(a, "add", "Bookmark a component"),
		newBookmarkChangeCmd(a, "remove", "Remove a component's bookmark"),
		newBookmarkChangeCmd(a, "toggle", "Flip a component's bookmark"),
	)
	return cmd
}

// newBookmarkChangeCmd builds add, remove, and toggle, which differ only in
// the store call.
func newBookmarkChangeCmd(a *app, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <component-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			id := args[0]
			if _, err := s.components(a).Get(ctx, id); err != nil {
				return err
			}

			bookmarks := s.bookmarks(a)
			var bookmarked bool
			switch verb {
			case "add":
				bookmarked = true
				err = bookmarks.Add(ctx, id)
			case "remove":
				err = bookmarks.Remove(ctx, id)
			default:
				bookmarked, err = bookmarks.Toggle(ctx, id)
			}
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"componentId": id, "bookmarked": bookmarked})
			}
			state := "not bookmarked"
			if bookmarked {
				state = "bookmarked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, state)
			return nil
		},
	}
}
