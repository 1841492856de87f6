// Package config resolves the settings that drive cluster provisioning.
//
// Viper stays contained in this package and the rest of the codebase receives
// an explicit Config struct. Sources are layered in this order, each one
// overwriting the previous: defaults < environment < config file < flags.
// That is not viper's built-in precedence (env above file), so every layer is
// read from its own viper instance and merged here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
)

// Recognized settings keys.
const (
	KeyDeploymentName     = "deployment_name"
	KeyRepoURL            = "repo_url"
	KeyRepoRef            = "repo_ref"
	KeyRepoRoot           = "repo_root"
	KeyGCloudUser         = "gcloud_user"
	KeyGCloudProject      = "gcloud_project"
	KeyGCloudZone         = "gcloud_zone"
	KeyGCloudRegion       = "gcloud_region"
	KeyNetworkName        = "network_name"
	KeySubnetworkName     = "subnetwork_name"
	KeySubnetworkRange    = "subnetwork_range"
	KeyFilestoreInstances = "filestore_instances"
	KeyFilestoreMounts    = "filestore_mounts"
	KeyFilestoreTier      = "filestore_tier"
	KeyFilestoreCapacity  = "filestore_capacity"
	KeyMachineType        = "machine_type"
)

type keySpec struct {
	name     string
	def      any
	env      bool
	required bool
	list     bool
}

// keys is ordered; validation problems are reported in this order.
var keys = []keySpec{
	{name: KeyDeploymentName, def: "slurm", env: true, required: true},
	{name: KeyRepoURL, def: "https://github.com/SchedMD/slurm-gcp.git", env: true, required: true},
	{name: KeyRepoRef, def: "master", env: true, required: true},
	{name: KeyRepoRoot, env: true},
	{name: KeyGCloudUser, env: true, required: true},
	{name: KeyGCloudProject, env: true, required: true},
	{name: KeyGCloudZone, def: "us-central1-a", env: true, required: true},
	{name: KeyGCloudRegion, def: "us-central1", env: true, required: true},
	{name: KeyNetworkName, def: "slurm-network", env: true, required: true},
	{name: KeySubnetworkName, def: "slurm-subnetwork", env: true, required: true},
	{name: KeySubnetworkRange, def: "10.10.0.0/16", env: true, required: true},
	{name: KeyFilestoreInstances, def: []string{"slurm-home", "slurm-apps"}, env: true, required: true, list: true},
	{name: KeyFilestoreMounts, def: []string{"home", "apps"}, env: true, required: true, list: true},
	{name: KeyFilestoreTier, def: "BASIC_HDD", env: true, required: true},
	{name: KeyFilestoreCapacity, def: "1TB", env: true, required: true},
	{name: KeyMachineType, def: "n1-standard-2", env: true, required: true},
}

// Keys returns every recognized settings key.
func Keys() []string {
	return lo.Map(keys, func(k keySpec, _ int) string { return k.name })
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return strings.ToUpper(key)
}

// IPKey returns the runtime-derived key holding the address of the share
// mounted at mount.
func IPKey(mount string) string {
	return mount + "_ip"
}

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	DeploymentName string
	MachineType    string
	Repo           RepoConfig
	GCloud         GCloudConfig
	Network        NetworkConfig
	Filestore      FilestoreConfig

	// ConfigFile is the file that contributed values, empty if none did.
	ConfigFile string
}

// RepoConfig locates the deployment templates.
type RepoConfig struct {
	URL  string
	Ref  string
	Root string
}

// GCloudConfig selects the account and location used for every gcloud call.
type GCloudConfig struct {
	User    string
	Project string
	Zone    string
	Region  string
}

// NetworkConfig names the VPC network and its single subnetwork.
type NetworkConfig struct {
	Name            string
	Subnetwork      string
	SubnetworkRange string
}

// FilestoreConfig lists the shares; Instances[i] is mounted at Mounts[i].
type FilestoreConfig struct {
	Instances []string
	Mounts    []string
	Tier      string
	Capacity  string
}

// Share pairs an instance with its mount name.
type Share struct {
	Instance string
	Mount    string
}

// Shares returns the instance/mount pairs in configuration order.
func (f FilestoreConfig) Shares() []Share {
	return lo.Map(lo.Zip2(f.Instances, f.Mounts), func(t lo.Tuple2[string, string], _ int) Share {
		return Share{Instance: t.A, Mount: t.B}
	})
}

// Options carries the command-line layer.
type Options struct {
	// ConfigFile is read if non-empty and present on disk.
	ConfigFile string
	// RepoRoot, if non-empty, overrides repo_root from every other source.
	RepoRoot string
}

// Resolve merges all sources and validates the result.
func Resolve(opts Options) (*Config, error) {
	settings := Defaults()
	applyEnv(settings)

	used, err := applyFile(settings, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		settings[KeyRepoRoot] = opts.RepoRoot
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	cfg := settings.Config()
	cfg.ConfigFile = used
	return cfg, nil
}

// Defaults returns the compiled-in settings.
func Defaults() Settings {
	s := make(Settings, len(keys))
	for _, k := range keys {
		switch def := k.def.(type) {
		case nil:
		case []string:
			s[k.name] = append([]string(nil), def...)
		default:
			s[k.name] = def
		}
	}
	return s
}

func applyEnv(s Settings) {
	v := viper.New()
	for _, k := range keys {
		if !k.env {
			continue
		}
		lo.Must0(v.BindEnv(k.name, EnvName(k.name)))
		if !v.IsSet(k.name) {
			continue
		}
		if k.list {
			s[k.name] = splitList(v.GetString(k.name))
		} else {
			s[k.name] = v.GetString(k.name)
		}
	}
}

func applyFile(s Settings, path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("config file not found, continuing without it", "path", path)
			return "", nil
		}
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); !lo.Contains(viper.SupportedExts, ext) {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file: %w", err)
	}

	for _, k := range keys {
		if !v.IsSet(k.name) {
			continue
		}
		if k.list {
			s[k.name] = listValue(v.Get(k.name))
		} else {
			s[k.name] = v.GetString(k.name)
		}
	}

	return v.ConfigFileUsed(), nil
}

// listValue accepts both a YAML sequence and a comma separated string.
func listValue(raw any) []string {
	if str, ok := raw.(string); ok {
		return splitList(str)
	}
	return lo.Compact(lo.Map(cast.ToStringSlice(raw), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
