package cluster

// StepResult is the outcome of one step.
type StepResult struct {
	Name string
	Err  error
}

// Report describes a finished or halted run.
type Report struct {
	Mode  Mode
	Steps []StepResult

	// Derived maps config.IPKey(mount) to the share address, Up only.
	Derived map[string]string
	// DeploymentConfig is the rendered config path, Up only.
	DeploymentConfig string
	// BootstrapScript is the rendered startup script path, Up only.
	BootstrapScript string
	// Unresolved lists bootstrap tokens left in place.
	Unresolved []string
}

// Failed returns the steps that did not succeed.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}
