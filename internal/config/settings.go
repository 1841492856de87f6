package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings maps settings keys to a string or a []string.
type Settings map[string]any

// Value returns the string value of key, empty if unset.
func (s Settings) Value(key string) string {
	v, _ := s[key].(string)
	return v
}

// List returns the list value of key, nil if unset.
func (s Settings) List(key string) []string {
	v, _ := s[key].([]string)
	return v
}

// ValidationError lists every problem found in a settings map.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration (%d problems):", len(e.Problems))
	for i, p := range e.Problems {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, p)
	}
	return b.String()
}

// Validate ensures every required key has a value.
func (s Settings) Validate() error {
	var problems []string

	for _, k := range keys {
		if !k.required {
			continue
		}
		var missing bool
		if k.list {
			missing = len(s.List(k.name)) == 0
		} else {
			missing = s.Value(k.name) == ""
		}
		if missing {
			problems = append(problems, fmt.Sprintf("%s is required (set it in the config file or %s)", k.name, EnvName(k.name)))
		}
	}

	instances, mounts := s.List(KeyFilestoreInstances), s.List(KeyFilestoreMounts)
	if len(instances) > 0 && len(mounts) > 0 && len(instances) != len(mounts) {
		problems = append(problems, fmt.Sprintf("%s has %d entries but %s has %d", KeyFilestoreInstances, len(instances), KeyFilestoreMounts, len(mounts)))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Config converts a validated settings map.
func (s Settings) Config() *Config {
	return &Config{
		DeploymentName: s.Value(KeyDeploymentName),
		MachineType:    s.Value(KeyMachineType),
		Repo: RepoConfig{
			URL:  s.Value(KeyRepoURL),
			Ref:  s.Value(KeyRepoRef),
			Root: s.Value(KeyRepoRoot),
		},
		GCloud: GCloudConfig{
			User:    s.Value(KeyGCloudUser),
			Project: s.Value(KeyGCloudProject),
			Zone:    s.Value(KeyGCloudZone),
			Region:  s.Value(KeyGCloudRegion),
		},
		Network: NetworkConfig{
			Name:            s.Value(KeyNetworkName),
			Subnetwork:      s.Value(KeySubnetworkName),
			SubnetworkRange: s.Value(KeySubnetworkRange),
		},
		Filestore: FilestoreConfig{
			Instances: s.List(KeyFilestoreInstances),
			Mounts:    s.List(KeyFilestoreMounts),
			Tier:      s.Value(KeyFilestoreTier),
			Capacity:  s.Value(KeyFilestoreCapacity),
		},
	}
}

// Settings converts back to a settings map. Unset optional keys are omitted.
func (c *Config) Settings() Settings {
	s := Settings{
		KeyDeploymentName:     c.DeploymentName,
		KeyMachineType:        c.MachineType,
		KeyRepoURL:            c.Repo.URL,
		KeyRepoRef:            c.Repo.Ref,
		KeyRepoRoot:           c.Repo.Root,
		KeyGCloudUser:         c.GCloud.User,
		KeyGCloudProject:      c.GCloud.Project,
		KeyGCloudZone:         c.GCloud.Zone,
		KeyGCloudRegion:       c.GCloud.Region,
		KeyNetworkName:        c.Network.Name,
		KeySubnetworkName:     c.Network.Subnetwork,
		KeySubnetworkRange:    c.Network.SubnetworkRange,
		KeyFilestoreInstances: c.Filestore.Instances,
		KeyFilestoreMounts:    c.Filestore.Mounts,
		KeyFilestoreTier:      c.Filestore.Tier,
		KeyFilestoreCapacity:  c.Filestore.Capacity,
	}
	for k, v := range s {
		if str, ok := v.(string); ok && str == "" {
			delete(s, k)
		}
	}
	return s
}

// Display renders settings for the operator. Nothing is redacted.
func Display(s Settings, configFile string) (string, error) {
	body, err := yaml.Marshal(map[string]any(s))
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}

	if configFile == "" {
		configFile = "(none)"
	}

	var b strings.Builder
	b.WriteString("Configuration:\n")
	for _, line := range strings.Split(strings.TrimRight(string(body), "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	fmt.Fprintf(&b, `
Sources:
  Config file:        %s
  Environment:        upper-cased key names (e.g. %s)
  Flags:              --repo-root
`, configFile, EnvName(KeyGCloudZone))

	return b.String(), nil
}

// Save writes settings to path (format determined by file extension).
func Save(s Settings, path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(map[string]any(s), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings JSON: %w", err)
		}
	default:
		data, err = yaml.Marshal(map[string]any(s))
		if err != nil {
			return fmt.Errorf("failed to marshal settings YAML: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
