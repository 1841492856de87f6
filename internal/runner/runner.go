// Package runner executes external commands as argument lists and reports the
// outcome as an explicit Result instead of swallowing failures.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
)

// Command is a single invocation. Args never pass through a shell.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// String renders the command shell-quoted, for display only.
func (c Command) String() string {
	return shellescape.QuoteCommand(append([]string{c.Name}, c.Args...))
}

// Result is the outcome of a Command.
type Result struct {
	Command Command
	// Output is the trimmed stdout of the command.
	Output string
	// Stderr is kept for error reporting.
	Stderr string
	Err    error
}

// OK reports whether the command exited successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Error wraps Err with the command line and its stderr, nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	if r.Stderr != "" {
		return fmt.Errorf("%s failed: %w\n%s", r.Command, r.Err, r.Stderr)
	}
	return fmt.Errorf("%s failed: %w", r.Command, r.Err)
}

// Lines splits Output into non-empty lines.
func (r Result) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Exec runs commands on the local machine.
type Exec struct{}

// Run blocks until the command exits or ctx is cancelled.
func (Exec) Run(ctx context.Context, c Command) Result {
	log.DebugContext(ctx, "running command", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Command: c,
		Output:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
		Err:     err,
	}
	if err != nil {
		log.DebugContext(ctx, "command failed", "cmd", c.String(), "error", err, "stderr", res.Stderr)
	}
	return res
}
