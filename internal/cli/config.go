package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			return printSettings(cmd, cfg, nil)
		},
	}
	show.Flags().String(flagRepoRoot, "", "local slurm-gcp checkout (overrides REPO_ROOT and repo_root)")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a settings file with the default values",
		Long: `Write a settings file holding every default value. The format follows the
extension (.json for JSON, YAML otherwise). gcloud_user and gcloud_project have
no default and must be filled in before running start.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "slurm-gcp.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			s := config.Defaults()
			s[config.KeyGCloudUser] = ""
			s[config.KeyGCloudProject] = ""
			if err := config.Save(s, path); err != nil {
				return err
			}

			color.Green("✓ Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
