package main

import (
	"os"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/cli"
)

var version = "dev"

func main() {
	// Execute root command; errors are printed by cli.Execute
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
