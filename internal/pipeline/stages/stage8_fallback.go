package stages

import (
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/executor"
)

// Fallback is Stage 8 (§4.5 S8): a no-op when no earlier stage triggered a
// fallback, otherwise a deterministic template render that is guaranteed
// to succeed. It never reads the failed skill output and never itself
// triggers another fallback — the same priority ladder and renderer the
// built-in executor uses (internal/executor) back this stage directly, so
// there is only one template implementation to keep safe.
func Fallback(env envelope.Envelope, state envelope.StateArtifact, triggered bool, reasonCode string) envelope.FallbackArtifact {
	if !triggered {
		return envelope.FallbackArtifact{}
	}

	displayName := env.SelectedAction()
	conditions := map[executor.TemplateKey]bool{
		executor.TemplateHighChurnRisk:  boolFromAny(state.Core["churn_risk"]),
		executor.TemplateNewUser:        boolFromAny(state.Core["is_new_user"]),
		executor.TemplateLowEngagement:  boolFromAny(state.Core["low_engagement"]),
		executor.TemplateHighEngagement: boolFromAny(state.Core["high_engagement"]),
	}
	key := executor.SelectTemplate(conditions)
	rationale := executor.RenderTemplate(key, displayName)

	return envelope.FallbackArtifact{
		Triggered:  true,
		ReasonCode: reasonCode,
		Payload: map[string]any{
			"rationale":     rationale,
			"display_title": displayName,
		},
	}
}
