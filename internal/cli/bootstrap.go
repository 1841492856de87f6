package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/render"
)

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Work with node bootstrap scripts",
	}

	var in, out string
	var ips map[string]string
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Replace @KEY@ tokens in a bootstrap script",
		Long: `Replace every @KEY@ token in a bootstrap script with the value derived
from the resolved settings. Share addresses are not looked up; pass them
with --ip mount=address. Unknown tokens are left in place with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}

			vals := render.Values{
				DeploymentName: cfg.DeploymentName,
				Project:        cfg.GCloud.Project,
				User:           cfg.GCloud.User,
				Zone:           cfg.GCloud.Zone,
				Region:         cfg.GCloud.Region,
				Network:        cfg.Network.Name,
				Subnetwork:     cfg.Network.Subnetwork,
				MachineType:    cfg.MachineType,
			}
			for _, s := range cfg.Filestore.Shares() {
				vals.Shares = append(vals.Shares, render.Share{Instance: s.Instance, Mount: s.Mount, IP: ips[s.Mount]})
			}

			src, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open bootstrap script: %w", err)
			}
			defer src.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			unresolved, err := render.Bootstrap(src, w, render.BootstrapValues(vals))
			if err != nil {
				return err
			}
			if len(unresolved) > 0 {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ Tokens left unreplaced: %v\n", unresolved)
			}
			return nil
		},
	}
	renderCmd.Flags().StringVar(&in, "in", "", "bootstrap script template")
	renderCmd.Flags().StringVar(&out, "out", "-", "rendered script (- for stdout)")
	renderCmd.Flags().StringToStringVar(&ips, "ip", nil, "share address as mount=address (repeatable)")
	_ = renderCmd.MarkFlagRequired("in")

	cmd.AddCommand(renderCmd)
	return cmd
}
