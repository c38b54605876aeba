package cmd

import (
	"strings"

	"github.com/rzbill/navlaunch/pkg/cli/format"
	"github.com/rzbill/navlaunch/pkg/navigation"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available workflows",
		Long: `List the available workflows, their launch arguments and whether the
packages they need are installed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := a.cfg.Resolver()

			rows := [][]string{{"WORKFLOW", "STATUS", "ARGUMENTS", "DESCRIPTION"}}
			for _, name := range navigation.Names() {
				desc, err := navigation.Lookup(name)
				if err != nil {
					return err
				}

				var missing []string
				for _, pkg := range desc.Packages() {
					if _, err := resolver.PackagePrefix(pkg); err != nil {
						missing = append(missing, pkg)
					}
				}
				status := format.Success("ready")
				if len(missing) > 0 {
					status = format.Warning("missing %s", strings.Join(missing, ", "))
				}

				names := make([]string, 0, len(desc.Arguments))
				for _, arg := range desc.Arguments {
					names = append(names, arg.Name)
				}
				rows = append(rows, []string{name, status, strings.Join(names, ", "), desc.Description})
			}
			return renderTable(cmd.OutOrStdout(), rows)
		},
	}
}
