package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/cluster"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/prereq"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/ui"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create the network, fileshares and Slurm deployment",
		Long: `Create the cluster: VPC network, subnetwork, firewall rules, Filestore
instances, then a Deployment Manager deployment rendered from the slurm-gcp
templates.

The templates come from --repo-root (or REPO_ROOT / repo_root) when set;
otherwise repo_url is cloned at repo_ref into --repo-output-dir or a temporary
directory that is removed afterwards. slurm.jinja is copied next to the
rendered config so the config can be resubmitted after that removal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}

			tools := []prereq.Tool{prereq.GCloud}
			if cfg.Repo.Root == "" {
				tools = append(tools, prereq.Git)
			}
			if err := prereq.Check(tools...).Error(); err != nil {
				return err
			}

			if err := printSettings(cmd, cfg, nil); err != nil {
				return err
			}

			repoOutputDir, _ := cmd.Flags().GetString(flagRepoOutputDir)
			outputDir, _ := cmd.Flags().GetString(flagOutputDir)
			failFast, _ := cmd.Flags().GetBool(flagFailFast)

			color.Cyan("Starting Slurm cluster %s in %s...", cfg.DeploymentName, cfg.GCloud.Zone)

			p := cluster.New(cfg, newRunner(), cluster.Options{
				RepoOutputDir: repoOutputDir,
				OutputDir:     outputDir,
				FailFast:      failFast,
				Observer:      observer(cmd),
			})
			report, err := cluster.Run(cmd.Context(), p, cluster.ModeUp)
			if report != nil {
				printReport(cmd, report)
			}
			if err != nil {
				return err
			}

			if err := printSettings(cmd, cfg, report.Derived); err != nil {
				return err
			}
			color.Green("✓ Cluster %s submitted", cfg.DeploymentName)
			color.Cyan("\nRun 'slurm-gcp status' to follow the deployment")
			return nil
		},
	}

	cmd.Flags().String(flagRepoRoot, "", "local slurm-gcp checkout (overrides REPO_ROOT and repo_root)")
	cmd.Flags().String(flagRepoOutputDir, "", "clone the templates here instead of a temporary directory")
	cmd.Flags().String(flagOutputDir, "", "directory for the rendered deployment config (default: current directory)")
	cmd.Flags().Bool(flagFailFast, false, "stop at the first failed step")

	return cmd
}

func observer(cmd *cobra.Command) cluster.Observer {
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && f == os.Stderr {
		return ui.NewProgress()
	}
	return ui.NewPlainProgress(cmd.ErrOrStderr())
}

// printReport summarizes failures and leftovers of a run.
func printReport(cmd *cobra.Command, report *cluster.Report) {
	if failed := report.Failed(); len(failed) > 0 {
		color.Yellow("⚠ %d steps failed:", len(failed))
		for _, s := range failed {
			color.Yellow("  - %s", s.Name)
			log.Error("step failed", "mode", report.Mode, "step", s.Name, "error", s.Err)
		}
	}
	if len(report.Unresolved) > 0 {
		color.Yellow("⚠ Bootstrap tokens left unreplaced: %v", report.Unresolved)
	}
	if report.DeploymentConfig != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Deployment config: %s\n", report.DeploymentConfig)
	}
}
