package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/cluster"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/prereq"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// setup isolates the environment, stubs tool lookup and installs fake.
func setup(t *testing.T, fake *runner.Fake) {
	t.Helper()
	for _, k := range config.Keys() {
		t.Setenv(config.EnvName(k), "")
	}
	t.Setenv("GCLOUD_USER", "ops@example.com")
	t.Setenv("GCLOUD_PROJECT", "hpc-sandbox")

	origLookPath, origRunner := prereq.LookPath, newRunner
	t.Cleanup(func() { prereq.LookPath, newRunner = origLookPath, origRunner })
	prereq.LookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	newRunner = func() runner.Runner { return fake }
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seedRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "slurm.jinja"), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scripts", "startup.sh"), []byte("IP=@HOME_IP@\n"), 0644))
	return root
}

func TestConfigShow(t *testing.T) {
	setup(t, &runner.Fake{})
	t.Setenv("GCLOUD_ZONE", "europe-west1-b")

	out, _, err := execute(t, "config", "show", "--repo-root", "/srv/slurm-gcp")
	require.NoError(t, err)

	assert.Contains(t, out, "gcloud_zone: europe-west1-b")
	assert.Contains(t, out, "gcloud_region: us-central1")
	assert.Contains(t, out, "repo_root: /srv/slurm-gcp")
}

func TestValidationFailure(t *testing.T) {
	setup(t, &runner.Fake{})
	t.Setenv("GCLOUD_USER", "")
	t.Setenv("GCLOUD_PROJECT", "")
	fake := &runner.Fake{}
	newRunner = func() runner.Runner { return fake }

	_, _, err := execute(t, "start")
	require.Error(t, err)

	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 2)
	assert.Empty(t, fake.Calls(), "nothing is provisioned with invalid settings")
}

func TestStartMissingTools(t *testing.T) {
	fake := &runner.Fake{}
	setup(t, fake)
	prereq.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, _, err := execute(t, "start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required tools: gcloud")
	assert.Empty(t, fake.Calls())
}

func TestStart(t *testing.T) {
	fake := (&runner.Fake{}).
		On("gcloud filestore instances describe slurm-home", "10.0.0.2").
		On("gcloud filestore instances describe slurm-apps", "10.0.0.3")
	setup(t, fake)
	outDir := t.TempDir()

	out, stderr, err := execute(t, "start", "--repo-root", seedRepo(t), "--output-dir", outDir)
	require.NoError(t, err)

	assert.Contains(t, out, "home_ip: 10.0.0.2")
	assert.Contains(t, out, "Deployment config: "+outDir)
	assert.Contains(t, stderr, "create deployment slurm")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "deployment config, bootstrap script and cluster template")
}

func TestStop(t *testing.T) {
	fake := (&runner.Fake{}).OnFail("gcloud filestore instances delete slurm-home")
	setup(t, fake)

	_, stderr, err := execute(t, "stop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teardown finished with 1 failed steps")
	assert.Contains(t, stderr, "delete network slurm-network")
	assert.Contains(t, fake.Lines()[len(fake.Lines())-1], "gcloud compute networks delete slurm-network")
}

func TestStatus(t *testing.T) {
	fake := (&runner.Fake{}).On("gcloud deployment-manager", "DONE").On("gcloud filestore", "READY")
	setup(t, fake)

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "deployment slurm")
	assert.Contains(t, out, "fileshare slurm-home")
	assert.Contains(t, out, "fileshare slurm-apps")
}

func TestConfigInit(t *testing.T) {
	setup(t, &runner.Fake{})
	path := filepath.Join(t.TempDir(), "cluster.yaml")

	_, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gcloud_zone: us-central1-a")

	_, _, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing files need --force")

	_, _, err = execute(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestBootstrapRender(t *testing.T) {
	setup(t, &runner.Fake{})
	in := filepath.Join(t.TempDir(), "startup.sh")
	require.NoError(t, os.WriteFile(in, []byte("Z=@ZONE@\nH=@HOME_IP@\nK=@MUNGE_KEY@\n"), 0644))

	out, stderr, err := execute(t, "bootstrap", "render", "--in", in, "--ip", "home=10.0.0.2")
	require.NoError(t, err)

	assert.Equal(t, "Z=us-central1-a\nH=10.0.0.2\nK=@MUNGE_KEY@\n", out)
	assert.Contains(t, stderr, "MUNGE_KEY")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "slurm-gcp version test\n", out)
}

func TestPrintReportLogsFailedSteps(t *testing.T) {
	var logs bytes.Buffer
	require.NoError(t, log.Init(&logs, "error", "text"))
	t.Cleanup(func() { _ = log.Init(os.Stderr, "warn", "text") })

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	printReport(cmd, &cluster.Report{
		Mode: cluster.ModeDown,
		Steps: []cluster.StepResult{
			{Name: "delete network slurm-network", Err: errors.New("resource in use")},
			{Name: "delete subnetwork slurm-subnetwork"},
		},
	})

	assert.Contains(t, logs.String(), "step failed")
	assert.Contains(t, logs.String(), `step="delete network slurm-network"`)
	assert.Contains(t, logs.String(), "resource in use")
	assert.NotContains(t, logs.String(), "delete subnetwork")
}
