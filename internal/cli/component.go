package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// componentFlags holds the field flags shared by create and update.
type componentFlags struct {
	name        string
	description string
	code        string
	codeFile    string
	category    string
	tags        []string
}

func (f *componentFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "component name")
	fl.StringVar(&f.description, "description", "", "component description")
	fl.StringVar(&f.code, "code", "", "component source code")
	fl.StringVar(&f.codeFile, "code-file", "", "read source code from a file (- for stdin)")
	fl.StringVar(&f.category, "category", "", "component category")
	fl.StringArrayVar(&f.tags, "tag", nil, "component tag (repeatable, taken verbatim)")
	cmd.MarkFlagsMutuallyExclusive("code", "code-file")
}

// readCode returns the code from --code or --code-file. ok is false when
// neither flag was given.
func (f *componentFlags) readCode(cmd *cobra.Command) (code string, ok bool, err error) {
	if cmd.Flags().Changed("code") {
		return f.code, true, nil
	}
	if !cmd.Flags().Changed("code-file") {
		return "", false, nil
	}
	var data []byte
	if f.codeFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(f.codeFile)
	}
	if err != nil {
		return "", false, fmt.Errorf("read code: %w", err)
	}
	return string(data), true, nil
}

func newComponentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "component",
		Aliases: []string{"components", "c"},
		Short:   "Manage components and their version history",
	}
	cmd.AddCommand(
		newComponentListCmd(a),
		newComponentShowCmd(a),
		newComponentCreateCmd(a),
		newComponentUpdateCmd(a),
		newComponentDeleteCmd(a),
		newComponentDuplicateCmd(a),
		newComponentVersionsCmd(a),
		newComponentSaveVersionCmd(a),
		newComponentRestoreCmd(a),
	)
	return cmd
}

func newComponentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List components, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.components(a).Fetch(cmd.Context())
			if err != nil {
				return err
			}
			return printComponents(cmd, a.flags.jsonMode, list)
		},
	}
}

func newComponentShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.components(a).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printComponent(cmd, a.flags.jsonMode, c)
		},
	}
}

func newComponentCreateCmd(a *app) *cobra.Command {
	var f componentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a component with its initial version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _, err := f.readCode(cmd)
			if err != nil {
				return err
			}
			in := types.ComponentCreate{
				Name:        f.name,
				Description: f.description,
				Code:        code,
				Category:    f.category,
				Tags:        f.tags,
			}
			if err := in.Validate(); err != nil {
				return err
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.components(a).Create(cmd.Context(), in)
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			return printComponent(cmd, a.flags.jsonMode, c)
		},
	}
	f.register(cmd)
	return cmd
}

func newComponentUpdateCmd(a *app) *cobra.Command {
	var f componentFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a component",
		Long: "Update changes only the fields whose flags are given. Changing the code\n" +
			"also records a new version.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch types.ComponentPatch
			fl := cmd.Flags()
			if fl.Changed("name") {
				patch.Name = &f.name
			}
			if fl.Changed("description") {
				patch.Description = &f.description
			}
			if fl.Changed("category") {
				patch.Category = &f.category
			}
			if fl.Changed("tag") {
				tags := append([]string{}, f.tags...)
				patch.Tags = &tags
			}
			code, ok, err := f.readCode(cmd)
			if err != nil {
				return err
			}
			if ok {
				patch.Code = &code
			}
			if patch.Empty() {
				return fmt.Errorf("%w: no fields to update", types.ErrBadRequest)
			}
			if err := patch.Validate(); err != nil {
				return err
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			components := s.components(a)
			err = components.Update(ctx, args[0], patch, true)
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			c, err := components.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printComponent(cmd, a.flags.jsonMode, c)
		},
	}
	f.register(cmd)
	return cmd
}

func newComponentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a component with its versions and bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.components(a).Delete(cmd.Context(), args[0])
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
}

func newComponentDuplicateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Create a copy of a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			components := s.components(a)
			src, err := components.Get(ctx, args[0])
			if err != nil {
				return err
			}
			dup, err := components.Duplicate(ctx, src)
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			return printComponent(cmd, a.flags.jsonMode, dup)
		},
	}
}

func newComponentVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <id>",
		Short: "List the version history of a component, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			components := s.components(a)
			if _, err := components.Get(ctx, args[0]); err != nil {
				return err
			}
			versions, err := components.FetchVersions(ctx, args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, versions)
			}
			tw := newTable(cmd)
			fmt.Fprintln(tw, "VERSION\tCREATED\tSIZE")
			for _, v := range versions {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", v.ID, types.FormatTime(v.CreatedAt), len(v.Code))
			}
			return tw.Flush()
		},
	}
}

func newComponentSaveVersionCmd(a *app) *cobra.Command {
	var f componentFlags
	cmd := &cobra.Command{
		Use:   "save-version <id>",
		Short: "Record a version snapshot without changing the component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, ok, err := f.readCode(cmd)
			if err != nil {
				return err
			}
			if !ok || code == "" {
				return types.ErrEmptyCode
			}

			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := s.components(a).CreateVersion(cmd.Context(), args[0], code)
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.code, "code", "", "version source code")
	cmd.Flags().StringVar(&f.codeFile, "code-file", "", "read source code from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("code", "code-file")
	return cmd
}

func newComponentRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <version-id>",
		Short: "Restore a version's code as a new edit of its component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.components(a).RestoreVersion(cmd.Context(), args[0])
			printNotices(cmd, s.notices)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"restored": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			return nil
		},
	}
}
