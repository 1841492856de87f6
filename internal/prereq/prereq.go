// Package prereq checks that the external tools driven by slurm-gcp are on PATH.
package prereq

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is a client binary slurm-gcp shells out to.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name        string
	Description string
	InstallURL  string
}

// GCloud is required by every provisioning command.
var GCloud = Tool{
	Name:        "gcloud",
	Description: "Creates and deletes networks, firewall rules, Filestore instances and deployments",
	InstallURL:  "https://cloud.google.com/sdk/docs/install",
}

// Git is required when no local repository root is configured.
var Git = Tool{
	Name:        "git",
	Description: "Clones the deployment templates",
	InstallURL:  "https://git-scm.com/downloads",
}

// CheckResult is the outcome for one tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// Error returns an error naming every missing tool, nil if none are missing.
func (r *CheckResults) Error() error {
	if len(r.Missing) == 0 {
		return nil
	}
	missing := make([]string, len(r.Missing))
	for i, tool := range r.Missing {
		missing[i] = fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL)
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// LookPath is swapped in tests.
var LookPath = exec.LookPath

// Check verifies that the specified tools are available.
func Check(tools ...Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		if path, err := LookPath(tool.Name); err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}
