package scenario

import "dario.cat/mergo"

// ExecutionOverride is the caller-supplied subset of ExecutionConfig a
// decision request may override (§6.1 execution_mode_override). It is
// merged over the scenario's declared ExecutionConfig the same way the
// teacher merges built-in and user-supplied YAML configs
// (pkg/config/loader.go), rather than hand-rolling a field-by-field copy.
type ExecutionOverride struct {
	DefaultMode ExecutionMode
}

// ResolveExecution returns the ExecutionConfig in force for one request:
// the scenario's own config, with override applied on top when the
// scenario permits overriding and the caller supplied one. A disallowed
// or empty override is a no-op.
func (s *Scenario) ResolveExecution(override ExecutionOverride) (ExecutionConfig, error) {
	effective := s.Execution
	if override.DefaultMode == "" || !s.Execution.AllowModeOverride {
		return effective, nil
	}
	src := ExecutionConfig{DefaultMode: override.DefaultMode}
	if err := mergo.Merge(&effective, src, mergo.WithOverride); err != nil {
		return ExecutionConfig{}, err
	}
	return effective, nil
}
