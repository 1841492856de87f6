package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every mapped variable; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range Keys() {
		t.Setenv(EnvName(k), "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultsOnly(t *testing.T) {
	clearEnv(t)

	s := Defaults()
	applyEnv(s)
	used, err := applyFile(s, "")
	require.NoError(t, err)

	assert.Empty(t, used)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, "us-central1-a", s.Value(KeyGCloudZone))
	assert.Equal(t, "us-central1", s.Value(KeyGCloudRegion))
	assert.Equal(t, "slurm-network", s.Value(KeyNetworkName))
	assert.Equal(t, []string{"slurm-home", "slurm-apps"}, s.List(KeyFilestoreInstances))
	assert.Equal(t, []string{"home", "apps"}, s.List(KeyFilestoreMounts))
	assert.Empty(t, s.Value(KeyRepoRoot))
}

func TestDefaultsAreCopied(t *testing.T) {
	a := Defaults()
	a.List(KeyFilestoreMounts)[0] = "changed"

	assert.Equal(t, "home", Defaults().List(KeyFilestoreMounts)[0])
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		file     string
		repoRoot string
		key      string
		want     any
	}{
		{
			name: "env overrides default",
			env:  map[string]string{"GCLOUD_ZONE": "europe-west4-a"},
			key:  KeyGCloudZone,
			want: "europe-west4-a",
		},
		{
			name: "file overrides env",
			env:  map[string]string{"GCLOUD_ZONE": "europe-west4-a"},
			file: "gcloud_zone: asia-east1-b\n",
			key:  KeyGCloudZone,
			want: "asia-east1-b",
		},
		{
			name:     "flag overrides env and file",
			env:      map[string]string{"REPO_ROOT": "/from/env"},
			file:     "repo_root: /from/file\n",
			repoRoot: "/from/flag",
			key:      KeyRepoRoot,
			want:     "/from/flag",
		},
		{
			name: "env repo root without flag",
			env:  map[string]string{"REPO_ROOT": "/from/env"},
			key:  KeyRepoRoot,
			want: "/from/env",
		},
		{
			name: "env list is comma separated",
			env:  map[string]string{"FILESTORE_MOUNTS": "home, apps ,scratch"},
			key:  KeyFilestoreMounts,
			want: []string{"home", "apps", "scratch"},
		},
		{
			name: "file list as sequence",
			file: "filestore_instances:\n  - a-home\n  - a-apps\n",
			key:  KeyFilestoreInstances,
			want: []string{"a-home", "a-apps"},
		},
		{
			name: "file list as string",
			file: "filestore_instances: a-home,a-apps\n",
			key:  KeyFilestoreInstances,
			want: []string{"a-home", "a-apps"},
		},
		{
			name: "unrecognized file keys are ignored",
			file: "not_a_key: value\nmachine_type: n2-standard-4\n",
			key:  KeyMachineType,
			want: "n2-standard-4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			t.Setenv("GCLOUD_USER", "ops@example.com")
			t.Setenv("GCLOUD_PROJECT", "hpc-sandbox")

			opts := Options{RepoRoot: tt.repoRoot}
			if tt.file != "" {
				opts.ConfigFile = writeFile(t, "config.yaml", tt.file)
			}

			cfg, err := Resolve(opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Settings()[tt.key])
		})
	}
}

func TestResolveZoneFromFileKeepsRegionDefault(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cluster.yaml", `
gcloud_zone: europe-west1-b
gcloud_user: ops@example.com
gcloud_project: hpc-sandbox
`)

	cfg, err := Resolve(Options{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "europe-west1-b", cfg.GCloud.Zone)
	assert.Equal(t, "us-central1", cfg.GCloud.Region)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestResolveJSONAndUnknownExtension(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCLOUD_USER", "ops@example.com")
	t.Setenv("GCLOUD_PROJECT", "hpc-sandbox")

	jsonPath := writeFile(t, "cluster.json", `{"deployment_name": "hpc"}`)
	cfg, err := Resolve(Options{ConfigFile: jsonPath})
	require.NoError(t, err)
	assert.Equal(t, "hpc", cfg.DeploymentName)

	confPath := writeFile(t, "cluster.conf", "deployment_name: hpc2\n")
	cfg, err = Resolve(Options{ConfigFile: confPath})
	require.NoError(t, err)
	assert.Equal(t, "hpc2", cfg.DeploymentName)
}

func TestResolveMissingFileIsTolerated(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCLOUD_USER", "ops@example.com")
	t.Setenv("GCLOUD_PROJECT", "hpc-sandbox")

	cfg, err := Resolve(Options{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	require.NoError(t, err)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, "slurm", cfg.DeploymentName)
}

func TestResolveMalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "broken.yaml", "gcloud_zone: [unterminated\n")

	_, err := Resolve(Options{ConfigFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestResolveReportsEveryMissingKey(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "gcloud_zone: \"\"\nfilestore_mounts: []\n")

	_, err := Resolve(Options{ConfigFile: path})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Problems, 4)
	assert.Contains(t, verr.Problems[0], KeyGCloudUser)
	assert.Contains(t, verr.Problems[1], KeyGCloudProject)
	assert.Contains(t, verr.Problems[2], KeyGCloudZone)
	assert.Contains(t, verr.Problems[3], KeyFilestoreMounts)

	assert.Contains(t, err.Error(), "1. gcloud_user is required")
	assert.Contains(t, err.Error(), "4. filestore_mounts is required")
}

func TestValidateShareLengthMismatch(t *testing.T) {
	s := Defaults()
	s[KeyGCloudUser] = "ops@example.com"
	s[KeyGCloudProject] = "hpc-sandbox"
	s[KeyFilestoreMounts] = []string{"home"}

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filestore_instances has 2 entries but filestore_mounts has 1")
}

func TestShares(t *testing.T) {
	f := FilestoreConfig{
		Instances: []string{"slurm-home", "slurm-apps"},
		Mounts:    []string{"home", "apps"},
	}

	assert.Equal(t, []Share{
		{Instance: "slurm-home", Mount: "home"},
		{Instance: "slurm-apps", Mount: "apps"},
	}, f.Shares())
}

func TestDisplayAndSave(t *testing.T) {
	s := Defaults()
	s[KeyGCloudUser] = "ops@example.com"
	s[IPKey("home")] = "10.0.0.2"

	out, err := Display(s, "")
	require.NoError(t, err)
	assert.Contains(t, out, "gcloud_user: ops@example.com")
	assert.Contains(t, out, "home_ip: 10.0.0.2")
	assert.Contains(t, out, "Config file:        (none)")

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(s, path))

	clearEnv(t)
	reloaded := Defaults()
	_, err = applyFile(reloaded, path)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", reloaded.Value(KeyGCloudUser))
	assert.NotContains(t, reloaded, IPKey("home"))
}
