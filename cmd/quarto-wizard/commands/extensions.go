// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quarto-wizard/quarto-wizard/cmd/quarto-wizard/internal/clierr"
	"github.com/quarto-wizard/quarto-wizard/internal/extensions"
)

func newExtensionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extensions [dir]",
		Short: "List installed Quarto extensions",
		Long:  "Discovers _extension.yml manifests under the given directory (default: current directory) and lists the installed extensions.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			infos, err := extensions.Discover(dir)
			if err != nil {
				return clierr.Wrap(1, "discovering extensions", err)
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no extensions found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tVERSION\tCONTRIBUTES")
			for _, info := range infos {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					info.ID, info.Manifest.Title, info.Manifest.Version,
					contributesSummary(info.Manifest))
			}
			return w.Flush()
		},
	}
	return cmd
}

func contributesSummary(m extensions.Manifest) string {
	if len(m.Contributes) == 0 {
		return "-"
	}
	kinds := make([]string, 0, len(m.Contributes))
	for k := range m.Contributes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ",")
}
