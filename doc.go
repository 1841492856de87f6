// Package slurmgcp provisions Slurm clusters on Google Cloud.
//
// The slurm-gcp CLI creates the infrastructure a Slurm deployment needs and
// hands the cluster itself to Deployment Manager using the slurm-gcp
// templates.
//
// # Overview
//
// A cluster consists of:
//   - a custom-mode VPC network and one subnetwork
//   - an internal firewall rule and an SSH management rule
//   - Filestore instances, one per shared mount (home and apps by default)
//   - a Deployment Manager deployment whose nodes mount those shares
//
// # Installation
//
//	go install github.com/blackwell-systems/slurm-gcp-control-plane/cmd/slurm-gcp@latest
//
// # Quick Start
//
//	slurm-gcp config init
//	slurm-gcp start --config slurm-gcp.yaml
//	slurm-gcp status --config slurm-gcp.yaml
//	slurm-gcp stop --config slurm-gcp.yaml
//
// # Configuration
//
// Settings are layered: compiled-in defaults, then environment variables
// (the upper-cased key, e.g. GCLOUD_ZONE), then the --config file, then
// --repo-root. See internal/config for the full key list.
//
// # Requirements
//
// gcloud must be installed and authenticated. git is needed unless a local
// slurm-gcp checkout is passed with --repo-root.
//
// # License
//
// Apache 2.0 - See LICENSE file for details.
package slurmgcp
