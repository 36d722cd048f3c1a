package stages

import (
	"context"
	"time"

	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/scenario"
)

var prohibitedSelectionKeys = []string{"selected_action", "recommended_action", "alternative_action", "action_choice"}

// ExecuteSkill is Stage 6 (§4.5 S6): build the skill input envelope, invoke
// the resolved executor under the scenario's skill timeout, and reject
// output that tries to alter or comment on the locked selection. Any
// failure here is non-terminal — callers route it to Stage 8.
func ExecuteSkill(ctx Context, env envelope.Envelope, state envelope.StateArtifact, guardrails envelope.GuardrailsArtifact, resolution envelope.SkillResolutionArtifact) (envelope.SkillExecutionArtifact, error) {
	if !env.SelectionLocked() {
		return envelope.SkillExecutionArtifact{}, apperr.New(apperr.KindExecutionError, "selection must be locked before skill execution")
	}

	exec, ok := ctx.Executors.Get(resolution.ExecutionMode)
	if !ok || !exec.IsAvailable() {
		exec, ok = ctx.Executors.Get(scenario.ModeDeterministicOnly)
		if !ok {
			return envelope.SkillExecutionArtifact{}, apperr.New(apperr.KindExecutionError, "no available executor")
		}
	}

	timeoutMs := ctx.Scenario.Execution.SkillExecutionMs
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	ranked := env.RankedOptions()
	rankedView := make([]executor.RankedOptionView, len(ranked))
	for i, r := range ranked {
		rankedView[i] = executor.RankedOptionView{ActionID: r.ActionID, Rank: r.Rank, Score: r.Score}
	}
	var triggered []string
	for _, r := range guardrails.RuleResults {
		if r.Triggered {
			triggered = append(triggered, r.RuleID)
		}
	}

	var selected scenario.Action
	for _, a := range guardrails.EligibleActions {
		if a.ActionID == env.SelectedAction() {
			selected = a
			break
		}
	}

	input := executor.SkillInputEnvelope{
		Decision: executor.DecisionContext{
			DecisionID:          env.DecisionID,
			SelectedAction:      selected,
			RankedOptions:       rankedView,
			TriggeredGuardrails: triggered,
		},
		State: executor.UserStateView{Core: state.Core, ScenarioExtensions: state.ScenarioExtensions},
		Skill: executor.SkillConfig{
			SkillID:         resolution.SkillID,
			Version:         resolution.SkillVersion,
			Mode:            resolution.ExecutionMode,
			MaxOutputTokens: executor.DefaultMaxOutputTokens,
			TimeoutMs:       timeoutMs,
		},
	}

	runCtx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	out, err := exec.Execute(runCtx, input, timeoutMs)
	if err != nil {
		return envelope.SkillExecutionArtifact{}, apperr.New(apperr.KindExecutionError, err.Error())
	}
	if !out.Success {
		return envelope.SkillExecutionArtifact{}, apperr.New(apperr.KindExecutionError, out.Err)
	}
	if key, found := findProhibitedTopLevelKey(out.Payload); found {
		return envelope.SkillExecutionArtifact{}, apperr.New(apperr.KindExecutionError, "skill payload contains prohibited key "+key)
	}

	return envelope.SkillExecutionArtifact{
		Payload:     out.Payload,
		Metadata:    out.Metadata,
		TokenCount:  out.TokenCount,
		ExecutionMs: out.ExecutionMs,
	}, nil
}

func findProhibitedTopLevelKey(payload map[string]any) (string, bool) {
	for _, k := range prohibitedSelectionKeys {
		if _, ok := payload[k]; ok {
			return k, true
		}
	}
	return "", false
}
