// Package cli defines the slurm-gcp command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// Names of flags shared by several commands.
const (
	flagConfig        = "config"
	flagRepoRoot      = "repo-root"
	flagRepoOutputDir = "repo-output-dir"
	flagOutputDir     = "output-dir"
	flagFailFast      = "fail-fast"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
)

// newRunner is swapped in tests.
var newRunner = func() runner.Runner { return runner.Exec{} }

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "slurm-gcp",
		Short: "Provision and tear down a Slurm cluster on Google Cloud",
		Long: `slurm-gcp creates a VPC network, firewall rules, Filestore shares and a
Deployment Manager deployment running Slurm, and removes them again.

Settings are resolved from defaults, then environment variables (the
upper-cased key, e.g. GCLOUD_ZONE), then the --config file, then flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(os.Stderr, viper.GetString(flagLogLevel), viper.GetString(flagLogFormat))
		},
	}

	root.PersistentFlags().StringP(flagConfig, "c", "", "path to a settings file (yaml, json, toml)")
	root.PersistentFlags().AddFlagSet(logFlags())

	root.AddCommand(newStartCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newBootstrapCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// logFlags holds the logging knobs. They are bound to the global viper
// (env SLURM_GCP_LOG_LEVEL, SLURM_GCP_LOG_FORMAT); cluster settings go
// through config.Resolve instead.
func logFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.String(flagLogLevel, "warn", "minimum log level (debug, info, warn, error)")
	fs.String(flagLogFormat, "text", "log format (text, json)")

	viper.SetEnvPrefix("slurm_gcp")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	lo.Must0(viper.BindPFlags(fs))

	return fs
}

// Execute runs the root command. Errors are printed here.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		return err
	}
	return nil
}

// resolve reads the shared --config flag and, if the command defines it,
// --repo-root.
func resolve(cmd *cobra.Command) (*config.Config, error) {
	opts := config.Options{}
	opts.ConfigFile, _ = cmd.Flags().GetString(flagConfig)
	if cmd.Flags().Lookup(flagRepoRoot) != nil {
		opts.RepoRoot, _ = cmd.Flags().GetString(flagRepoRoot)
	}
	return config.Resolve(opts)
}

// printSettings shows the resolved settings, plus any derived values.
func printSettings(cmd *cobra.Command, cfg *config.Config, derived map[string]string) error {
	s := cfg.Settings()
	for k, v := range derived {
		s[k] = v
	}
	out, err := config.Display(s, cfg.ConfigFile)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
