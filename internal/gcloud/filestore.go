package gcloud

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// Fileshare describes a Filestore instance exporting a single share.
type Fileshare struct {
	Instance string
	// Share is the exported share name, also used as the mount name.
	Share    string
	Zone     string
	Network  string
	Tier     string
	Capacity string
}

// CreateFileshare creates a Filestore instance and blocks until it is ready.
func (c *Client) CreateFileshare(ctx context.Context, fs Fileshare) runner.Result {
	return c.run(ctx, "filestore", "instances", "create", fs.Instance,
		"--zone", fs.Zone,
		"--tier", fs.Tier,
		"--file-share", fmt.Sprintf("name=%s,capacity=%s", fs.Share, fs.Capacity),
		"--network", "name="+fs.Network,
	)
}

// FileshareIP returns the first reserved IP address of the instance.
func (c *Client) FileshareIP(ctx context.Context, instance, zone string) runner.Result {
	return c.run(ctx, "filestore", "instances", "describe", instance,
		"--zone", zone,
		"--format", "value(networks[0].ipAddresses[0])",
	)
}

// FileshareState returns the lifecycle state of the instance (READY, CREATING, ...).
func (c *Client) FileshareState(ctx context.Context, instance, zone string) runner.Result {
	return c.run(ctx, "filestore", "instances", "describe", instance,
		"--zone", zone,
		"--format", "value(state)",
	)
}

// DeleteFileshare deletes a Filestore instance.
func (c *Client) DeleteFileshare(ctx context.Context, instance, zone string) runner.Result {
	return c.run(ctx, "filestore", "instances", "delete", instance, "--zone", zone, "--quiet")
}
