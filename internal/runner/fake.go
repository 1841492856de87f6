package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Fake records commands and answers them from scripted responses. It is used
// by tests across the module.
type Fake struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []Command
}

type fakeResponse struct {
	prefix string
	output string
	err    error
}

// ErrFake is returned by OnFail responses.
var ErrFake = errors.New("exit status 1")

// On answers every command whose display line starts with prefix with output.
// Later registrations win over earlier ones.
func (f *Fake) On(prefix, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, output: output})
	return f
}

// OnFail makes every command whose display line starts with prefix fail.
func (f *Fake) OnFail(prefix string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{prefix: prefix, err: ErrFake})
	return f
}

// Run records cmd. Unmatched commands succeed with empty output.
func (f *Fake) Run(_ context.Context, cmd Command) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	line := cmd.String()
	for i := len(f.responses) - 1; i >= 0; i-- {
		r := f.responses[i]
		if strings.HasPrefix(line, r.prefix) {
			return Result{Command: cmd, Output: r.output, Err: r.err}
		}
	}
	return Result{Command: cmd}
}

// Calls returns the recorded commands.
func (f *Fake) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Lines returns the recorded commands rendered with Command.String.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
