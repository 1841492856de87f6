package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/cluster"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/prereq"
)

func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Delete the Slurm deployment, fileshares and network",
		Long: `Delete everything start created, in reverse order: the deployment, the
Filestore instances, every firewall rule on the network, the subnetwork and
the network. Failed steps do not stop the teardown; they are reported at the
end and the command exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := prereq.Check(prereq.GCloud).Error(); err != nil {
				return err
			}
			if err := printSettings(cmd, cfg, nil); err != nil {
				return err
			}

			failFast, _ := cmd.Flags().GetBool(flagFailFast)

			color.Cyan("Stopping Slurm cluster %s...", cfg.DeploymentName)

			p := cluster.New(cfg, newRunner(), cluster.Options{
				FailFast: failFast,
				Observer: observer(cmd),
			})
			report, err := cluster.Run(cmd.Context(), p, cluster.ModeDown)
			if report != nil {
				printReport(cmd, report)
			}
			if err != nil {
				return err
			}

			color.Green("✓ Cluster %s removed", cfg.DeploymentName)
			return nil
		},
	}

	cmd.Flags().Bool(flagFailFast, false, "stop at the first failed step")

	return cmd
}
