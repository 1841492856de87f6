package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/cluster"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/prereq"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the deployment and fileshares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := prereq.Check(prereq.GCloud).Error(); err != nil {
				return err
			}

			status := cluster.Status(cmd.Context(), cfg, newRunner())

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, color.CyanString("Resource                         State"))
			fmt.Fprintln(w, color.CyanString("────────────────────────────────────────────────"))
			printResourceStatus(cmd, "deployment "+status.Deployment.Name, status.Deployment.State)
			for _, fs := range status.Fileshares {
				printResourceStatus(cmd, "fileshare "+fs.Name, fs.State)
			}
			return nil
		},
	}
}

func printResourceStatus(cmd *cobra.Command, name string, state cluster.ResourceState) {
	var text string
	switch state {
	case cluster.StateReady:
		text = color.GreenString("✓ %s", state)
	case cluster.StatePending:
		text = color.YellowString("⚠ %s", state)
	default:
		text = color.RedString("✗ %s", state)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", name, text)
}
