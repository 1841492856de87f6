// Package gcloud builds the gcloud invocations used to provision a cluster.
//
// Every method is a single call through a runner.Runner; callers decide what a
// failed Result means for the surrounding sequence.
package gcloud

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// Binary is the gcloud executable name.
const Binary = "gcloud"

// Client scopes every call to one project and, if set, one account.
type Client struct {
	runner  runner.Runner
	project string
	account string
}

// New returns a Client. account may be empty to use gcloud's active account.
func New(r runner.Runner, project, account string) *Client {
	return &Client{runner: r, project: project, account: account}
}

func (c *Client) run(ctx context.Context, args ...string) runner.Result {
	args = append(args, "--project", c.project)
	if c.account != "" {
		args = append(args, "--account", c.account)
	}
	return c.runner.Run(ctx, runner.Command{Name: Binary, Args: args})
}

// CreateNetwork creates a custom-mode VPC network.
func (c *Client) CreateNetwork(ctx context.Context, name string) runner.Result {
	return c.run(ctx, "compute", "networks", "create", name, "--subnet-mode", "custom")
}

// DeleteNetwork deletes a VPC network.
func (c *Client) DeleteNetwork(ctx context.Context, name string) runner.Result {
	return c.run(ctx, "compute", "networks", "delete", name, "--quiet")
}

// CreateSubnetwork creates a subnetwork of network in region.
func (c *Client) CreateSubnetwork(ctx context.Context, name, network, region, cidr string) runner.Result {
	return c.run(ctx, "compute", "networks", "subnets", "create", name,
		"--network", network,
		"--region", region,
		"--range", cidr,
	)
}

// DeleteSubnetwork deletes a subnetwork.
func (c *Client) DeleteSubnetwork(ctx context.Context, name, region string) runner.Result {
	return c.run(ctx, "compute", "networks", "subnets", "delete", name, "--region", region, "--quiet")
}

// FirewallRule is an ingress rule attached to a network.
type FirewallRule struct {
	Name         string
	Network      string
	Allow        string
	SourceRanges string
}

// InternalRule allows all traffic between addresses of the subnetwork.
func InternalRule(network, cidr string) FirewallRule {
	return FirewallRule{
		Name:         network + "-allow-internal",
		Network:      network,
		Allow:        "tcp:0-65535,udp:0-65535,icmp",
		SourceRanges: cidr,
	}
}

// ManagementRule allows SSH and ICMP from anywhere.
func ManagementRule(network string) FirewallRule {
	return FirewallRule{
		Name:         network + "-allow-ssh",
		Network:      network,
		Allow:        "tcp:22,icmp",
		SourceRanges: "0.0.0.0/0",
	}
}

// CreateFirewallRule creates an ingress rule.
func (c *Client) CreateFirewallRule(ctx context.Context, rule FirewallRule) runner.Result {
	return c.run(ctx, "compute", "firewall-rules", "create", rule.Name,
		"--network", rule.Network,
		"--direction", "INGRESS",
		"--allow", rule.Allow,
		"--source-ranges", rule.SourceRanges,
	)
}

// ListFirewallRules returns the names of rules attached to network, one per line.
func (c *Client) ListFirewallRules(ctx context.Context, network string) runner.Result {
	return c.run(ctx, "compute", "firewall-rules", "list",
		"--filter", fmt.Sprintf("network~/networks/%s$", network),
		"--format", "value(name)",
	)
}

// DeleteFirewallRule deletes a rule by name.
func (c *Client) DeleteFirewallRule(ctx context.Context, name string) runner.Result {
	return c.run(ctx, "compute", "firewall-rules", "delete", name, "--quiet")
}
