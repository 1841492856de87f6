package cluster

import (
	"context"
	"strings"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/gcloud"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// ResourceState is a coarse view of a cloud resource.
type ResourceState string

const (
	StateReady   ResourceState = "READY"
	StatePending ResourceState = "PENDING"
	StateFailed  ResourceState = "FAILED"
	// StateAbsent means the describe call failed, usually because the
	// resource does not exist.
	StateAbsent ResourceState = "ABSENT"
)

// ResourceStatus pairs a resource with its state and the raw provider value.
type ResourceStatus struct {
	Name  string
	State ResourceState
	Raw   string
}

// Summary is the state of every resource that outlives a run.
type Summary struct {
	Deployment ResourceStatus
	Fileshares []ResourceStatus
}

// Status describes the deployment and every fileshare of cfg.
func Status(ctx context.Context, cfg *config.Config, r runner.Runner) *Summary {
	gc := gcloud.New(r, cfg.GCloud.Project, cfg.GCloud.User)

	status := &Summary{
		Deployment: classify(cfg.DeploymentName, gc.DeploymentStatus(ctx, cfg.DeploymentName)),
	}
	for _, instance := range cfg.Filestore.Instances {
		status.Fileshares = append(status.Fileshares, classify(instance, gc.FileshareState(ctx, instance, cfg.GCloud.Zone)))
	}
	return status
}

func classify(name string, res runner.Result) ResourceStatus {
	st := ResourceStatus{Name: name, Raw: res.Output}
	if !res.OK() {
		st.State = StateAbsent
		return st
	}

	// Deployment Manager reports DONE/RUNNING/PENDING; Filestore reports
	// READY/CREATING/REPAIRING/DELETING/ERROR.
	switch strings.ToUpper(res.Output) {
	case "DONE", "READY":
		st.State = StateReady
	case "PENDING", "RUNNING", "CREATING", "REPAIRING", "RESTORING", "DELETING":
		st.State = StatePending
	default:
		st.State = StateFailed
	}
	return st
}
