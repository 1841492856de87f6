package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	c := Command{Name: "gcloud", Args: []string{"compute", "networks", "create", "net; rm -rf /"}}
	assert.Equal(t, `gcloud compute networks create 'net; rm -rf /'`, c.String())
}

func TestResultLines(t *testing.T) {
	r := Result{Output: "fw-a\n\n  fw-b  \n"}
	assert.Equal(t, []string{"fw-a", "fw-b"}, r.Lines())
	assert.Nil(t, Result{}.Lines())
}

func TestResultError(t *testing.T) {
	ok := Result{Command: Command{Name: "true"}}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Error())

	failed := Result{Command: Command{Name: "gcloud", Args: []string{"x"}}, Err: ErrFake, Stderr: "denied"}
	assert.False(t, failed.OK())
	require.Error(t, failed.Error())
	assert.ErrorIs(t, failed.Error(), ErrFake)
	assert.Contains(t, failed.Error().Error(), "gcloud x failed")
	assert.Contains(t, failed.Error().Error(), "denied")
}

func TestExecRun(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0644))

	res := Exec{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "ls; echo oops >&2"}, Dir: dir})
	require.True(t, res.OK())
	assert.Equal(t, "marker", res.Output)
	assert.Equal(t, "oops", res.Stderr)

	res = Exec{}.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	assert.False(t, res.OK())
	assert.Empty(t, res.Output)
}

func TestExecRunMissingBinary(t *testing.T) {
	res := Exec{}.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	assert.False(t, res.OK())
}

func TestExecRunCancelled(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := Exec{}.Run(ctx, Command{Name: "sleep", Args: []string{"5"}})

	assert.False(t, res.OK())
	assert.Less(t, time.Since(start), 3*time.Second, "the command is killed when ctx is done")
}

func TestFake(t *testing.T) {
	f := (&Fake{}).
		On("gcloud filestore", "10.0.0.2").
		OnFail("gcloud filestore instances describe slurm-apps")

	ctx := context.Background()
	home := f.Run(ctx, Command{Name: "gcloud", Args: []string{"filestore", "instances", "describe", "slurm-home"}})
	apps := f.Run(ctx, Command{Name: "gcloud", Args: []string{"filestore", "instances", "describe", "slurm-apps"}})
	other := f.Run(ctx, Command{Name: "git", Args: []string{"status"}})

	assert.Equal(t, "10.0.0.2", home.Output)
	assert.ErrorIs(t, apps.Err, ErrFake)
	assert.True(t, other.OK())
	assert.Equal(t, []string{
		"gcloud filestore instances describe slurm-home",
		"gcloud filestore instances describe slurm-apps",
		"git status",
	}, f.Lines())
}
