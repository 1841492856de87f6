package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/prereq"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that gcloud and git are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := prereq.Check(prereq.GCloud, prereq.Git)

			w := cmd.OutOrStdout()
			for _, r := range results.Results {
				if r.Found {
					fmt.Fprintf(w, "%s %-8s %s\n", color.GreenString("✓"), r.Tool.Name, r.Path)
				} else {
					fmt.Fprintf(w, "%s %-8s not found, see %s\n", color.RedString("✗"), r.Tool.Name, r.Tool.InstallURL)
				}
			}
			return results.Error()
		},
	}
}
