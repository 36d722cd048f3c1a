package executor

import (
	"context"
	"strconv"
	"time"

	"github.com/adecorp/ade/internal/scenario"
)

// DeterministicExecutor is the built-in template renderer (§4.6). It is
// always available and never calls out to an LLM, so it also backs the
// deterministic-only execution mode. Stage 8's fallback synthesis uses the
// same template ladder and renderer (SelectTemplate, RenderTemplate).
type DeterministicExecutor struct{}

// NewDeterministicExecutor constructs the built-in executor.
func NewDeterministicExecutor() *DeterministicExecutor {
	return &DeterministicExecutor{}
}

// Type implements Executor.
func (d *DeterministicExecutor) Type() scenario.ExecutionMode {
	return scenario.ModeDeterministicOnly
}

// IsAvailable implements Executor — the template renderer has no external
// dependency and is always available.
func (d *DeterministicExecutor) IsAvailable() bool { return true }

// LatencyEstimate implements Executor.
func (d *DeterministicExecutor) LatencyEstimate() time.Duration { return time.Millisecond }

// Execute renders a template chosen by the same priority ladder Stage 8
// uses, keyed off the user state's churn/engagement signals.
func (d *DeterministicExecutor) Execute(_ context.Context, input SkillInputEnvelope, _ int) (Output, error) {
	start := time.Now()
	displayName := input.Decision.SelectedAction.ActionID
	key := SelectTemplate(conditionsFromState(input.State))
	rationale := RenderTemplate(key, displayName)

	payload := map[string]any{
		"rationale":     rationale,
		"display_title": displayName,
	}
	metadata := map[string]any{
		"template_key": string(key),
		"renderer":     "deterministic-template",
	}
	return Output{
		Success:     true,
		Payload:     payload,
		Metadata:    metadata,
		ExecutionMs: time.Since(start).Milliseconds(),
		TokenCount:  len(rationale) / 4, // rough token estimate, deterministic
	}, nil
}

// conditionsFromState derives the priority-ladder booleans from whatever
// churn/engagement/new-user signals the scenario's user state happens to
// expose under well-known core dimension names. Scenarios that don't derive
// these dimensions simply fall through to the default template.
func conditionsFromState(state UserStateView) map[TemplateKey]bool {
	return map[TemplateKey]bool{
		TemplateHighChurnRisk:  truthyAt(state.Core, "churn_risk"),
		TemplateNewUser:        truthyAt(state.Core, "is_new_user"),
		TemplateLowEngagement:  truthyAt(state.Core, "low_engagement"),
		TemplateHighEngagement: truthyAt(state.Core, "high_engagement"),
	}
}

func truthyAt(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	default:
		return false
	}
}
