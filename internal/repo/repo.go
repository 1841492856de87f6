// Package repo locates the deployment templates on disk, cloning them when no
// local checkout is configured.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// Marker files that identify a usable checkout, relative to its root.
const (
	DeploymentTemplate = "slurm.jinja"
	BootstrapScript    = "scripts/startup.sh"
)

// Markers lists every file a checkout must contain.
var Markers = []string{DeploymentTemplate, BootstrapScript}

// Checkout is an acquired repository.
type Checkout struct {
	// Root is the absolute path of the repository.
	Root string

	temporary bool
}

// Path joins rel onto the checkout root.
func (c *Checkout) Path(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// Close removes the checkout if it was cloned into a temporary directory.
func (c *Checkout) Close() error {
	if c == nil || !c.temporary {
		return nil
	}
	log.Debug("removing temporary checkout", "dir", c.Root)
	return os.RemoveAll(c.Root)
}

// Acquire returns cfg.Root if set, verifying its markers. Otherwise it clones
// cfg.URL into outputDir, or a temporary directory when outputDir is empty, and
// checks out cfg.Ref. The caller must Close the checkout.
func Acquire(ctx context.Context, r runner.Runner, cfg config.RepoConfig, outputDir string) (*Checkout, error) {
	if cfg.Root != "" {
		root, err := filepath.Abs(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve repo root: %w", err)
		}
		co := &Checkout{Root: root}
		if err := Verify(co.Root); err != nil {
			return nil, err
		}
		return co, nil
	}

	co, err := clone(ctx, r, cfg, outputDir)
	if err != nil {
		return nil, err
	}

	if err := Verify(co.Root); err != nil {
		return nil, errors.Join(err, co.Close())
	}
	return co, nil
}

func clone(ctx context.Context, r runner.Runner, cfg config.RepoConfig, outputDir string) (*Checkout, error) {
	co := &Checkout{}

	if outputDir == "" {
		dir, err := os.MkdirTemp("", "slurm-gcp-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary directory: %w", err)
		}
		co.Root, co.temporary = dir, true
	} else {
		dir, err := filepath.Abs(outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve repo output directory: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create repo output directory: %w", err)
		}
		co.Root = dir
	}

	// git clone refuses a non-empty target; MkdirTemp leaves it empty.
	if res := r.Run(ctx, runner.Command{Name: "git", Args: []string{"clone", cfg.URL, co.Root}}); !res.OK() {
		return nil, errors.Join(fmt.Errorf("failed to clone %s: %w", cfg.URL, res.Error()), co.Close())
	}

	if res := r.Run(ctx, runner.Command{Name: "git", Args: []string{"checkout", cfg.Ref}, Dir: co.Root}); !res.OK() {
		return nil, errors.Join(fmt.Errorf("failed to check out %s: %w", cfg.Ref, res.Error()), co.Close())
	}

	return co, nil
}

// Verify checks that root contains every marker file.
func Verify(root string) error {
	var missing []string
	for _, m := range Markers {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(m)))
		if err != nil || info.IsDir() {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is not a slurm-gcp checkout: missing %v", root, missing)
	}
	return nil
}
