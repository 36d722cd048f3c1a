package stages

import (
	"sort"

	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/expr"
	"github.com/adecorp/ade/internal/scenario"
)

// intensityOrdinal ranks the low/moderate/high scale used by both
// cap_intensity and the intensity_asc tie-breaker. Unknown or absent
// values return -1 so cap_intensity's "exceeds" comparison never blocks an
// action that declared no intensity at all.
func intensityOrdinal(s string) int {
	switch s {
	case "low":
		return 0
	case "moderate":
		return 1
	case "high":
		return 2
	default:
		return -1
	}
}

// EvaluateGuardrails is Stage 3 (§4.5 S3): sort rules by ascending
// priority, evaluate each condition, and apply its effect to the eligible
// action set.
func EvaluateGuardrails(ctx Context, ingest envelope.IngestArtifact, state envelope.StateArtifact) (envelope.GuardrailsArtifact, error) {
	rules := append([]scenario.GuardrailRule{}, ctx.Scenario.Guardrails.Rules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	resolver := expr.MapResolver{
		StateCore:       mapToValues(state.Core),
		StateExtensions: mapToValues(state.ScenarioExtensions),
		Signals:         mapToValues(ingest.Signals),
		Context:         mapToValues(ingest.Context),
	}

	eligible := append([]scenario.Action{}, ingest.NormalizedActions...)
	results := make([]envelope.RuleResult, 0, len(rules))
	forcedActionID := ""
	var triggeredRuleIDs, blockedActionIDs []string

	for _, rule := range rules {
		cond := expr.EvalFormula(rule.Condition, resolver, expr.BoolValue(false))
		triggered := cond.Truthy()
		results = append(results, envelope.RuleResult{RuleID: rule.RuleID, Triggered: triggered, Effect: rule.Effect})
		if !triggered {
			continue
		}
		triggeredRuleIDs = append(triggeredRuleIDs, rule.RuleID)

		switch rule.Effect {
		case scenario.EffectBlockAction, scenario.EffectRequireCooldown:
			// require_cooldown is treated as equivalent to block_action
			// absent a scenario-level time-delta extension (spec open
			// question, resolved in DESIGN.md).
			var kept []scenario.Action
			for _, a := range eligible {
				if (rule.TargetID != "" && a.ActionID == rule.TargetID) ||
					(rule.TargetType != "" && a.TypeID == rule.TargetType) {
					blockedActionIDs = append(blockedActionIDs, a.ActionID)
					continue
				}
				kept = append(kept, a)
			}
			eligible = kept
		case scenario.EffectCapIntensity:
			maxOrd := intensityOrdinal(rule.MaxIntensity)
			var kept []scenario.Action
			for _, a := range eligible {
				ord := intensityOrdinal(stringFromAny(a.Attributes["intensity"]))
				if ord > maxOrd {
					blockedActionIDs = append(blockedActionIDs, a.ActionID)
					continue
				}
				kept = append(kept, a)
			}
			eligible = kept
		case scenario.EffectForceAction:
			if forcedActionID == "" {
				forcedActionID = rule.ForceTarget
			}
		}
	}

	if len(eligible) == 0 {
		return envelope.GuardrailsArtifact{}, apperr.New(apperr.KindNoEligibleActions, "no actions remain eligible after guardrails").
			WithDetails(map[string]any{"triggered_rule_ids": triggeredRuleIDs, "blocked_action_ids": blockedActionIDs})
	}

	return envelope.GuardrailsArtifact{
		RuleResults:     results,
		EligibleActions: eligible,
		ForcedActionID:  forcedActionID,
	}, nil
}
