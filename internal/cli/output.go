package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/componentry/internal/store"
	"github.com/mesh-intelligence/componentry/pkg/types"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func printComponents(cmd *cobra.Command, jsonMode bool, list []types.Component) error {
	if jsonMode {
		return printJSON(cmd, list)
	}
	tw := newTable(cmd)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTAGS\tUPDATED")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Category, strings.Join(c.Tags, ","), types.FormatTime(c.UpdatedAt))
	}
	return tw.Flush()
}

func printComponent(cmd *cobra.Command, jsonMode bool, c types.Component) error {
	if jsonMode {
		return printJSON(cmd, c)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", c.ID)
	fmt.Fprintf(out, "Name:        %s\n", c.Name)
	fmt.Fprintf(out, "Description: %s\n", c.Description)
	fmt.Fprintf(out, "Category:    %s\n", c.Category)
	fmt.Fprintf(out, "Tags:        %s\n", strings.Join(c.Tags, ", "))
	fmt.Fprintf(out, "Created:     %s\n", types.FormatTime(c.CreatedAt))
	fmt.Fprintf(out, "Updated:     %s\n", types.FormatTime(c.UpdatedAt))
	fmt.Fprintf(out, "\n%s\n", c.Code)
	return nil
}

// printNotices writes store notifications to stderr so stdout stays
// machine-readable.
func printNotices(cmd *cobra.Command, notices *store.Collector) {
	for _, n := range notices.List() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Kind, n.Message)
	}
}
