package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rzbill/navlaunch/pkg/types"
	"github.com/rzbill/navlaunch/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the navlaunch version information",
		Long:  `Display detailed version information about the navlaunch binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case "", "text":
				fmt.Fprintln(cmd.OutOrStdout(), version.Info())
				return nil
			case "json":
				data, err := json.MarshalIndent(version.Map(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			default:
				return types.NewValidationError("unsupported output format %q, expected text or json", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}
