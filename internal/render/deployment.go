// Package render produces the files submitted with a deployment: the
// Deployment Manager config and the node bootstrap script.
package render

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
)

// Share is a provisioned file share.
type Share struct {
	Instance string
	Mount    string
	IP       string
}

// Values fills the deployment template slots.
type Values struct {
	DeploymentName string
	Project        string
	User           string
	Zone           string
	Region         string
	Network        string
	Subnetwork     string
	MachineType    string
	// ClusterTemplate is the absolute path of the copied slurm.jinja.
	ClusterTemplate string
	// BootstrapScript is the absolute path of the rendered startup script.
	BootstrapScript string
	Shares          []Share
}

// Mounts returns the mount names in share order.
func (v Values) Mounts() []string {
	out := make([]string, len(v.Shares))
	for i, s := range v.Shares {
		out[i] = s.Mount
	}
	return out
}

// DeploymentTemplate is the Deployment Manager config for a Slurm cluster.
// Slots are substituted verbatim; nothing is escaped.
const DeploymentTemplate = `# Generated by slurm-gcp for deployment {{ .DeploymentName }}
imports:
- path: {{ .ClusterTemplate }}
  name: slurm.jinja
- path: {{ .BootstrapScript }}
  name: startup.sh

resources:
- name: slurm-cluster
  type: slurm.jinja
  properties:
    cluster_name: {{ .DeploymentName }}
    project: {{ .Project }}
    zone: {{ .Zone }}
    region: {{ .Region }}
    vpc_net: {{ .Network }}
    vpc_subnet: {{ .Subnetwork }}
    controller_machine_type: {{ .MachineType }}
    login_machine_type: {{ .MachineType }}
    default_users: {{ .User }}
    network_storage:
{{- range .Shares }}
    - server_ip: {{ .IP }}
      remote_mount: /{{ .Mount }}
      local_mount: /{{ .Mount }}
      fs_type: nfs
{{- end }}
    partitions:
    - name: debug
      machine_type: {{ .MachineType }}
      max_node_count: 10
      zone: {{ .Zone }}
    mounts: {{ join "," .Mounts | quote }}
`

// Deployment executes tmpl with vals.
func Deployment(w io.Writer, tmpl string, vals Values) error {
	t, err := template.New("deployment").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse deployment template: %w", err)
	}
	if err := t.Execute(w, vals); err != nil {
		return fmt.Errorf("failed to render deployment template: %w", err)
	}
	return nil
}

// Stamp returns the date plus a random numeric suffix, unique enough to keep
// repeated runs from overwriting each other's files.
func Stamp(now time.Time) string {
	return fmt.Sprintf("%s-%06d", now.Format("20060102"), rand.Intn(1_000_000))
}

// DeploymentFileName returns the file name for a rendered config with stamp.
func DeploymentFileName(stamp string) string {
	return "slurm-cluster-" + stamp + ".yaml"
}

// TemplateFileName returns the file name for the copied cluster template
// with stamp.
func TemplateFileName(stamp string) string {
	return "slurm-" + stamp + ".jinja"
}

// BootstrapFileName returns the file name for a rendered script with stamp.
func BootstrapFileName(stamp string) string {
	return "startup-" + stamp + ".sh"
}

// WriteFile creates dir/name and streams fill into it.
func WriteFile(dir, name string, mode os.FileMode, fill func(io.Writer) error) (string, error) {
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	return path, nil
}

// Unresolved reports leftover @KEY@ tokens and missing-value markers in a
// rendered document.
func Unresolved(doc string) []string {
	out := tokenPattern.FindAllString(doc, -1)
	if strings.Contains(doc, "<no value>") {
		out = append(out, "<no value>")
	}
	return out
}
