package stages

import (
	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/scenario"
)

// defaultSkillVersion is used when a scenario doesn't pin a skill version;
// the scenario data model (§3) only names skills, not versions.
const defaultSkillVersion = "v1"

// ResolveSkills is Stage 5 (§4.5 S5): pick the execution mode and the
// skill id that will run under it.
func ResolveSkills(ctx Context, env envelope.Envelope, guardrails envelope.GuardrailsArtifact, options envelope.RequestOptions) (envelope.SkillResolutionArtifact, error) {
	selectedID := env.SelectedAction()
	var selected *scenario.Action
	for i := range guardrails.EligibleActions {
		if guardrails.EligibleActions[i].ActionID == selectedID {
			selected = &guardrails.EligibleActions[i]
			break
		}
	}
	if selected == nil {
		return envelope.SkillResolutionArtifact{}, apperr.New(apperr.KindInternalError, "selected action not found among eligible actions")
	}

	primary, fallback := ctx.Scenario.ResolveSkill(selected.TypeID)

	effective, err := ctx.Scenario.ResolveExecution(scenario.ExecutionOverride{DefaultMode: scenario.ExecutionMode(options.ExecutionModeOverride)})
	if err != nil {
		return envelope.SkillResolutionArtifact{}, apperr.New(apperr.KindInternalError, err.Error())
	}
	mode := effective.DefaultMode
	reason := "primary"
	if options.ExecutionModeOverride != "" && ctx.Scenario.Execution.AllowModeOverride {
		reason = "mode_override"
	}

	var skillID string
	if mode == scenario.ModeDeterministicOnly {
		skillID = fallback
	} else {
		exec, available := ctx.Executors.Get(scenario.ModeSkillEnhanced)
		if available && exec.IsAvailable() && primary != "" {
			skillID = primary
		} else {
			skillID = fallback
			if reason != "mode_override" {
				reason = "fallback_unavailable"
			}
		}
	}

	return envelope.SkillResolutionArtifact{
		SkillID:          skillID,
		SkillVersion:     defaultSkillVersion,
		ExecutionMode:    mode,
		ResolutionReason: reason,
	}, nil
}
