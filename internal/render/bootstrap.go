package render

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/log"
)

var (
	tokenPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)@`)
	nonWord      = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// placeholders fill tokens the cluster settings do not cover. They are not
// production values.
var placeholders = map[string]string{
	"SLURM_VERSION":   "19.05-latest",
	"DEFAULT_ACCOUNT": "default",
	"DEFAULT_USERS":   "",
}

// BootstrapValues returns the token map for a node bootstrap script: the
// placeholder defaults overlaid with vals.
func BootstrapValues(vals Values) map[string]string {
	m := make(map[string]string, len(placeholders)+8)
	for k, v := range placeholders {
		m[k] = v
	}
	m["CLUSTER_NAME"] = vals.DeploymentName
	m["PROJECT"] = vals.Project
	m["ZONE"] = vals.Zone
	m["REGION"] = vals.Region
	m["MACHINE_TYPE"] = vals.MachineType
	m["NETWORK"] = vals.Network
	m["SUBNETWORK"] = vals.Subnetwork
	for _, s := range vals.Shares {
		m[IPToken(s.Mount)] = s.IP
	}
	return m
}

// IPToken returns the bootstrap token key for the address of the share
// mounted at mount: upper-cased, with every character a token cannot hold
// replaced by an underscore ("home-dir" becomes HOME_DIR_IP).
func IPToken(mount string) string {
	return nonWord.ReplaceAllString(strings.ToUpper(mount), "_") + "_IP"
}

// Bootstrap copies r to w line by line, replacing every @KEY@ token whose KEY
// is in values. Unknown tokens are left in place and returned; they are logged
// as warnings, never treated as errors.
func Bootstrap(r io.Reader, w io.Writer, values map[string]string) ([]string, error) {
	var unresolved []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := tokenPattern.ReplaceAllStringFunc(scanner.Text(), func(token string) string {
			key := token[1 : len(token)-1]
			if v, ok := values[key]; ok {
				return v
			}
			log.Warn("unresolved bootstrap token", "token", token, "line", lineNo)
			if !seen[key] {
				seen[key] = true
				unresolved = append(unresolved, key)
			}
			return token
		})
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return unresolved, fmt.Errorf("failed to write bootstrap script: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return unresolved, fmt.Errorf("failed to read bootstrap script: %w", err)
	}

	return unresolved, nil
}
