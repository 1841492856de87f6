// Package cluster brings a Slurm cluster up and tears it down.
//
// A cluster is an ordered list of components (network, subnetwork, firewall,
// fileshares, deployment). Up creates them in order; Down deletes them in the
// exact reverse order so dependents go before their dependencies.
//
// Every external call is a step with an explicit outcome recorded in a
// Report. During Up, failures to create infrastructure that may already
// exist are recorded and the sequence continues; failures that would corrupt
// later steps (a missing share address, a render error, a rejected
// deployment) halt it. Down always runs to the end and returns the joined
// failures. Nothing is retried or rolled back.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/gcloud"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/render"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/repo"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// Mode selects the direction of a run.
type Mode string

const (
	ModeUp   Mode = "up"
	ModeDown Mode = "down"
)

// Orchestrator provisions and deprovisions a cluster.
type Orchestrator interface {
	Up(ctx context.Context) (*Report, error)
	Down(ctx context.Context) (*Report, error)
}

// Run dispatches to o according to mode.
func Run(ctx context.Context, o Orchestrator, mode Mode) (*Report, error) {
	switch mode {
	case ModeUp:
		return o.Up(ctx)
	case ModeDown:
		return o.Down(ctx)
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// Observer is notified around every step.
type Observer interface {
	StepStarted(name string)
	StepFinished(name string, err error)
}

type nopObserver struct{}

func (nopObserver) StepStarted(string)         {}
func (nopObserver) StepFinished(string, error) {}

// Options tunes a Provisioner.
type Options struct {
	// RepoOutputDir receives the template clone; empty means a temporary
	// directory removed when Up returns.
	RepoOutputDir string
	// OutputDir receives the rendered deployment config and bootstrap script;
	// empty means the current working directory.
	OutputDir string
	// FailFast halts on the first failed step of any kind.
	FailFast bool
	// Template overrides render.DeploymentTemplate.
	Template string
	Observer Observer
	Now      func() time.Time
}

// Provisioner is the gcloud-backed Orchestrator.
type Provisioner struct {
	cfg        *config.Config
	runner     runner.Runner
	gcloud     *gcloud.Client
	opts       Options
	components []component
	report     *Report
}

var _ Orchestrator = (*Provisioner)(nil)

// New returns a Provisioner for cfg that issues commands through r.
func New(cfg *config.Config, r runner.Runner, opts Options) *Provisioner {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Template == "" {
		opts.Template = render.DeploymentTemplate
	}
	return &Provisioner{
		cfg:    cfg,
		runner: r,
		gcloud: gcloud.New(r, cfg.GCloud.Project, cfg.GCloud.User),
		opts:   opts,
		components: []component{
			network{},
			subnetwork{},
			firewall{},
			fileshares{},
			deployment{},
		},
	}
}

// Up creates every component in order.
func (p *Provisioner) Up(ctx context.Context) (*Report, error) {
	start := time.Now()
	p.report = &Report{Mode: ModeUp}
	st := &state{}

	if err := p.step("acquire deployment templates", halt, func() error {
		co, err := repo.Acquire(ctx, p.runner, p.cfg.Repo, p.opts.RepoOutputDir)
		st.checkout = co
		return err
	}); err != nil {
		return p.report, err
	}
	defer func() {
		if err := st.checkout.Close(); err != nil {
			log.Warn("failed to remove temporary checkout", "dir", st.checkout.Root, "error", err)
		}
	}()

	outDir, err := p.outputDir()
	if err != nil {
		return p.report, err
	}
	st.outDir = outDir
	st.stamp = render.Stamp(p.opts.Now())

	for _, c := range p.components {
		phaseStart := time.Now()
		if err := c.create(ctx, p, st); err != nil {
			log.Info("component failed", "component", c.Name(), "error", err)
			return p.report, fmt.Errorf("%s: %w", c.Name(), err)
		}
		log.Info("component created", "component", c.Name(), "duration", time.Since(phaseStart).Round(time.Millisecond))
	}

	log.Info("cluster up", "duration", time.Since(start).Round(time.Millisecond))
	return p.report, nil
}

// Down deletes every component in reverse order.
func (p *Provisioner) Down(ctx context.Context) (*Report, error) {
	start := time.Now()
	p.report = &Report{Mode: ModeDown}
	st := &state{}

	for i := len(p.components) - 1; i >= 0; i-- {
		c := p.components[i]
		if err := c.delete(ctx, p, st); err != nil {
			return p.report, fmt.Errorf("%s: %w", c.Name(), err)
		}
	}

	log.Info("cluster down", "duration", time.Since(start).Round(time.Millisecond))

	if failed := p.report.Failed(); len(failed) > 0 {
		errs := make([]error, len(failed))
		for i, s := range failed {
			errs[i] = s.Err
		}
		return p.report, fmt.Errorf("teardown finished with %d failed steps: %w", len(failed), errors.Join(errs...))
	}
	return p.report, nil
}

// outputDir returns an absolute path; the rendered config refers to the
// bootstrap script by path.
func (p *Provisioner) outputDir() (string, error) {
	if p.opts.OutputDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		return dir, nil
	}

	dir, err := filepath.Abs(p.opts.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

type policy int

const (
	// tolerate records a failure and lets the sequence continue.
	tolerate policy = iota
	// halt stops the sequence on failure.
	halt
)

// StepError is returned when a step halts a sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (p *Provisioner) step(name string, pol policy, fn func() error) error {
	p.opts.Observer.StepStarted(name)
	err := fn()
	p.report.Steps = append(p.report.Steps, StepResult{Name: name, Err: err})
	p.opts.Observer.StepFinished(name, err)

	if err == nil {
		return nil
	}
	if pol == halt || p.opts.FailFast {
		return &StepError{Step: name, Err: err}
	}
	log.Warn("step failed, continuing", "step", name, "error", err)
	return nil
}

// call runs a gcloud step and converts its Result.
func (p *Provisioner) call(name string, pol policy, fn func() runner.Result) error {
	return p.step(name, pol, func() error { return fn().Error() })
}
