package pipeline

import (
	"time"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/envelope"
)

// buildResponse projects the locked envelope and the executed (or
// fallback) payload into the response shape (§6.1). request_id is not
// carried on DecisionRequest, so it is set equal to decision_id — the
// simpler of the two resolutions §9's open question allows.
func buildResponse(env envelope.Envelope, state envelope.StateArtifact, guardrails envelope.GuardrailsArtifact, resolution envelope.SkillResolutionArtifact, payload map[string]any, validationStatus string, fallbackUsed bool, fallbackReason string, options envelope.RequestOptions) audit.DecisionResponse {
	ranked := env.RankedOptions()
	if options.MaxRankedOptions > 0 && len(ranked) > options.MaxRankedOptions {
		ranked = ranked[:options.MaxRankedOptions]
	}

	rankedViews := make([]audit.RankedOptionView, 0, len(ranked))
	for _, r := range ranked {
		view := audit.RankedOptionView{ActionID: r.ActionID, Rank: r.Rank, Score: r.Score}
		if options.IncludeScoreBreakdown {
			view.ScoreBreakdown = r.Breakdown
		}
		rankedViews = append(rankedViews, view)
	}

	rationale, _ := payload["rationale"].(string)
	displayTitle, _ := payload["display_title"].(string)
	var displayParams map[string]any
	if dp, ok := payload["display_parameters"].(map[string]any); ok {
		displayParams = dp
	}

	guardrailsApplied := make([]string, 0, len(guardrails.RuleResults))
	for _, r := range guardrails.RuleResults {
		if r.Triggered {
			guardrailsApplied = append(guardrailsApplied, r.RuleID)
		}
	}

	return audit.DecisionResponse{
		Decision: audit.DecisionView{
			DecisionID:     env.DecisionID,
			SelectedAction: env.SelectedAction(),
			Payload: audit.PayloadView{
				Rationale:         rationale,
				DisplayTitle:      displayTitle,
				DisplayParameters: displayParams,
			},
			RankedOptions: rankedViews,
		},
		State: audit.StateView{
			Core:               state.Core,
			ScenarioExtensions: state.ScenarioExtensions,
		},
		Execution: audit.ExecutionView{
			ExecutionMode:      string(resolution.ExecutionMode),
			SkillID:            resolution.SkillID,
			SkillVersion:       resolution.SkillVersion,
			ValidationStatus:   validationStatus,
			FallbackUsed:       fallbackUsed,
			FallbackReasonCode: fallbackReason,
		},
		GuardrailsApplied: guardrailsApplied,
		Audit: audit.AuditView{
			DecisionID:      env.DecisionID,
			ScenarioID:      env.ScenarioID,
			ScenarioVersion: env.ScenarioVersion,
			ScenarioHash:    env.ScenarioHash,
		},
		Meta: audit.MetaView{
			RequestID:  env.DecisionID,
			Timestamp:  time.Now(),
			APIVersion: APIVersion,
		},
	}
}
