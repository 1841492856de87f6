package cluster

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/config"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/gcloud"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/render"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/repo"
	"github.com/blackwell-systems/slurm-gcp-control-plane/internal/runner"
)

// state is shared between the components of a single run.
type state struct {
	checkout *repo.Checkout
	outDir   string
	stamp    string
	shares   []render.Share
}

type component interface {
	Name() string
	create(ctx context.Context, p *Provisioner, st *state) error
	delete(ctx context.Context, p *Provisioner, st *state) error
}

type network struct{}

func (network) Name() string { return "network" }

func (network) create(ctx context.Context, p *Provisioner, _ *state) error {
	name := p.cfg.Network.Name
	return p.call("create network "+name, tolerate, func() runner.Result {
		return p.gcloud.CreateNetwork(ctx, name)
	})
}

func (network) delete(ctx context.Context, p *Provisioner, _ *state) error {
	name := p.cfg.Network.Name
	return p.call("delete network "+name, tolerate, func() runner.Result {
		return p.gcloud.DeleteNetwork(ctx, name)
	})
}

type subnetwork struct{}

func (subnetwork) Name() string { return "subnetwork" }

func (subnetwork) create(ctx context.Context, p *Provisioner, _ *state) error {
	n := p.cfg.Network
	return p.call("create subnetwork "+n.Subnetwork, tolerate, func() runner.Result {
		return p.gcloud.CreateSubnetwork(ctx, n.Subnetwork, n.Name, p.cfg.GCloud.Region, n.SubnetworkRange)
	})
}

func (subnetwork) delete(ctx context.Context, p *Provisioner, _ *state) error {
	n := p.cfg.Network
	return p.call("delete subnetwork "+n.Subnetwork, tolerate, func() runner.Result {
		return p.gcloud.DeleteSubnetwork(ctx, n.Subnetwork, p.cfg.GCloud.Region)
	})
}

type firewall struct{}

func (firewall) Name() string { return "firewall" }

func (firewall) create(ctx context.Context, p *Provisioner, _ *state) error {
	n := p.cfg.Network
	for _, rule := range []gcloud.FirewallRule{
		gcloud.InternalRule(n.Name, n.SubnetworkRange),
		gcloud.ManagementRule(n.Name),
	} {
		if err := p.call("create firewall rule "+rule.Name, tolerate, func() runner.Result {
			return p.gcloud.CreateFirewallRule(ctx, rule)
		}); err != nil {
			return err
		}
	}
	return nil
}

// delete removes every rule attached to the network, not only the two this
// tool creates; the network cannot be deleted while any rule remains.
func (firewall) delete(ctx context.Context, p *Provisioner, _ *state) error {
	vpc := p.cfg.Network.Name

	var rules []string
	if err := p.call("list firewall rules of "+vpc, tolerate, func() runner.Result {
		res := p.gcloud.ListFirewallRules(ctx, vpc)
		rules = res.Lines()
		return res
	}); err != nil {
		return err
	}

	for _, rule := range rules {
		if err := p.call("delete firewall rule "+rule, tolerate, func() runner.Result {
			return p.gcloud.DeleteFirewallRule(ctx, rule)
		}); err != nil {
			return err
		}
	}
	return nil
}

type fileshares struct{}

func (fileshares) Name() string { return "fileshares" }

func (fileshares) create(ctx context.Context, p *Provisioner, st *state) error {
	zone := p.cfg.GCloud.Zone
	shares := p.cfg.Filestore.Shares()

	for _, s := range shares {
		fs := gcloud.Fileshare{
			Instance: s.Instance,
			Share:    s.Mount,
			Zone:     zone,
			Network:  p.cfg.Network.Name,
			Tier:     p.cfg.Filestore.Tier,
			Capacity: p.cfg.Filestore.Capacity,
		}
		if err := p.call("create fileshare "+s.Instance, tolerate, func() runner.Result {
			return p.gcloud.CreateFileshare(ctx, fs)
		}); err != nil {
			return err
		}
	}

	p.report.Derived = make(map[string]string, len(shares))
	for _, s := range shares {
		var ip string
		if err := p.step("look up address of fileshare "+s.Instance, halt, func() error {
			res := p.gcloud.FileshareIP(ctx, s.Instance, zone)
			if !res.OK() {
				return res.Error()
			}
			if res.Output == "" {
				return fmt.Errorf("fileshare %s reported no IP address", s.Instance)
			}
			ip = res.Output
			return nil
		}); err != nil {
			return err
		}
		st.shares = append(st.shares, render.Share{Instance: s.Instance, Mount: s.Mount, IP: ip})
		p.report.Derived[config.IPKey(s.Mount)] = ip
	}
	return nil
}

func (fileshares) delete(ctx context.Context, p *Provisioner, _ *state) error {
	zone := p.cfg.GCloud.Zone
	for _, instance := range p.cfg.Filestore.Instances {
		if err := p.call("delete fileshare "+instance, tolerate, func() runner.Result {
			return p.gcloud.DeleteFileshare(ctx, instance, zone)
		}); err != nil {
			return err
		}
	}
	return nil
}

type deployment struct{}

func (deployment) Name() string { return "deployment" }

func (deployment) create(ctx context.Context, p *Provisioner, st *state) error {
	vals := p.values(st)

	// The checkout may be temporary; the rendered config imports a copy that
	// outlives it.
	if err := p.step("copy cluster template", halt, func() error {
		src, err := os.Open(st.checkout.Path(repo.DeploymentTemplate))
		if err != nil {
			return fmt.Errorf("failed to open cluster template: %w", err)
		}
		defer src.Close()

		path, err := render.WriteFile(st.outDir, render.TemplateFileName(st.stamp), 0644, func(w io.Writer) error {
			_, err := io.Copy(w, src)
			return err
		})
		vals.ClusterTemplate = path
		return err
	}); err != nil {
		return err
	}

	if err := p.step("render bootstrap script", halt, func() error {
		src, err := os.Open(st.checkout.Path(repo.BootstrapScript))
		if err != nil {
			return fmt.Errorf("failed to open bootstrap script: %w", err)
		}
		defer src.Close()

		path, err := render.WriteFile(st.outDir, render.BootstrapFileName(st.stamp), 0755, func(w io.Writer) error {
			unresolved, err := render.Bootstrap(src, w, render.BootstrapValues(vals))
			p.report.Unresolved = unresolved
			return err
		})
		p.report.BootstrapScript = path
		return err
	}); err != nil {
		return err
	}
	vals.BootstrapScript = p.report.BootstrapScript

	if err := p.step("render deployment config", halt, func() error {
		path, err := render.WriteFile(st.outDir, render.DeploymentFileName(st.stamp), 0644, func(w io.Writer) error {
			return render.Deployment(w, p.opts.Template, vals)
		})
		p.report.DeploymentConfig = path
		return err
	}); err != nil {
		return err
	}

	name := p.cfg.DeploymentName
	return p.call("create deployment "+name, halt, func() runner.Result {
		return p.gcloud.CreateDeployment(ctx, name, p.report.DeploymentConfig)
	})
}

func (deployment) delete(ctx context.Context, p *Provisioner, _ *state) error {
	name := p.cfg.DeploymentName
	return p.call("delete deployment "+name, tolerate, func() runner.Result {
		return p.gcloud.DeleteDeployment(ctx, name)
	})
}

func (p *Provisioner) values(st *state) render.Values {
	return render.Values{
		DeploymentName: p.cfg.DeploymentName,
		Project:        p.cfg.GCloud.Project,
		User:           p.cfg.GCloud.User,
		Zone:           p.cfg.GCloud.Zone,
		Region:         p.cfg.GCloud.Region,
		Network:        p.cfg.Network.Name,
		Subnetwork:     p.cfg.Network.Subnetwork,
		MachineType:    p.cfg.MachineType,
		Shares:         st.shares,
	}
}
