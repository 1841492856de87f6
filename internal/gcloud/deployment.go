package gcloud

import (
	"context"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// CreateDeployment submits a Deployment Manager config.
func (c *Client) CreateDeployment(ctx context.Context, name, configPath string) runner.Result {
	return c.run(ctx, "deployment-manager", "deployments", "create", name, "--config", configPath)
}

// DeleteDeployment deletes a deployment and the resources it created.
func (c *Client) DeleteDeployment(ctx context.Context, name string) runner.Result {
	return c.run(ctx, "deployment-manager", "deployments", "delete", name, "--quiet")
}

// DeploymentStatus returns the status of the deployment's last operation.
func (c *Client) DeploymentStatus(ctx context.Context, name string) runner.Result {
	return c.run(ctx, "deployment-manager", "deployments", "describe", name,
		"--format", "value(deployment.operation.status)",
	)
}
