package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/soyeahso/aiosforge/internal/catalog"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the built-in agents and orchestration patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents := catalog.Native()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"agents": agents})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tROLE\tCOMMANDS")
			for _, a := range agents {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Slug, a.Name, a.Role, strings.Join(a.Commands, " "))
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "PATTERN\tTITLE")
			for _, p := range domain.Patterns() {
				fmt.Fprintf(tw, "%s\t%s\n", p, p.Title())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
