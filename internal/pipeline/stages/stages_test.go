package stages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/governance"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/scenario"
)

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		ScenarioID: "retention-nudge",
		Version:    "1.0.0",
		StateSchema: scenario.StateSchema{
			CoreDimensions: []scenario.DimensionDef{
				{Name: "churn_risk", Type: scenario.TypeBoolean, Default: false, Derivation: scenario.Derivation{Source: scenario.SourceSignal}},
				{Name: "engagement_score", Type: scenario.TypeFloat, Default: 0.5, Derivation: scenario.Derivation{Source: scenario.SourceSignal}},
			},
		},
		Actions: scenario.ActionsConfig{
			ActionTypes: []scenario.ActionTypeDef{
				{TypeID: "discount_offer", PrimarySkill: "skill.discount"},
				{TypeID: "check_in_message", PrimarySkill: "skill.checkin"},
			},
		},
		Guardrails: scenario.GuardrailsConfig{
			Rules: []scenario.GuardrailRule{
				{RuleID: "block-discount-for-vip", Priority: 1, Condition: `signals.is_vip == true`, Effect: scenario.EffectBlockAction, TargetType: "discount_offer"},
			},
		},
		Scoring: scenario.ScoringConfig{
			Objectives: []scenario.ScoringObjective{
				{Name: "relevance", Weight: 1.0, Formula: `state.core.engagement_score`},
			},
			TieBreakers: []scenario.TieBreaker{scenario.TieBreakActionIDAsc},
		},
		Skills: scenario.SkillsConfig{
			DefaultFallback: "skill.fallback",
		},
		Execution: scenario.ExecutionConfig{
			DefaultMode:       scenario.ModeDeterministicOnly,
			AllowModeOverride: true,
			SkillExecutionMs:  2000,
		},
	}
}

func testContext(t *testing.T) Context {
	t.Helper()
	tables, err := governance.Load()
	require.NoError(t, err)
	return Context{
		Scenario:    testScenario(),
		Tables:      tables,
		Executors:   executor.NewRegistry(executor.NewDeterministicExecutor()),
		MemoryStore: memory.NewInMemoryStore(),
		AuditStore:  audit.NewInMemoryStore(),
		Now:         time.Now(),
	}
}

func baseRequest() Request {
	return Request{
		ScenarioID: "retention-nudge",
		UserID:     "user-1",
		Actions: []RequestAction{
			{ActionID: "a1", TypeID: "discount_offer"},
			{ActionID: "a2", TypeID: "check_in_message"},
		},
		Signals: map[string]any{"is_vip": false, "engagement_score": 0.7},
		Context: map[string]any{"current_time": "2026-07-31T00:00:00Z"},
	}
}

func TestIngestRejectsMissingScenarioID(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.ScenarioID = ""
	_, err := Ingest(ctx, req)
	require.Error(t, err)
}

func TestIngestRejectsMissingCurrentTime(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.Context = map[string]any{}
	_, err := Ingest(ctx, req)
	require.Error(t, err)
}

func TestIngestRejectsUnknownActionType(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.Actions = append(req.Actions, RequestAction{ActionID: "a3", TypeID: "unknown_type"})
	_, err := Ingest(ctx, req)
	require.Error(t, err)
}

func TestIngestNormalizesActions(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	require.Len(t, ingest.NormalizedActions, 2)
	assert.Equal(t, "a1", ingest.NormalizedActions[0].ActionID)
	assert.NotNil(t, ingest.NormalizedActions[0].Attributes)
}

func TestDeriveStateEvaluatesSignalDimensions(t *testing.T) {
	ctx := testContext(t)
	ingest, err := Ingest(ctx, baseRequest())
	require.NoError(t, err)

	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	assert.Equal(t, false, state.Core["churn_risk"])
	assert.InDelta(t, 0.7, state.Core["engagement_score"].(float64), 1e-9)
	assert.NotEmpty(t, state.InputsHash)
}

func TestDeriveStateFallsBackToDefaultWhenSignalMissing(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.Signals = map[string]any{}
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)

	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	assert.Equal(t, false, state.Core["churn_risk"])
	assert.Equal(t, 0.5, state.Core["engagement_score"])
}

func TestEvaluateGuardrailsBlocksMatchingActionType(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.Signals["is_vip"] = true
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)

	guardrails, err := EvaluateGuardrails(ctx, ingest, state)
	require.NoError(t, err)
	require.Len(t, guardrails.EligibleActions, 1)
	assert.Equal(t, "a2", guardrails.EligibleActions[0].ActionID)
	assert.True(t, guardrails.RuleResults[0].Triggered)
}

func TestEvaluateGuardrailsFailsWhenNoEligibleActionsRemain(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	req.Signals["is_vip"] = true
	req.Actions = []RequestAction{{ActionID: "a1", TypeID: "discount_offer"}}
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)

	_, err = EvaluateGuardrails(ctx, ingest, state)
	require.Error(t, err)
}

func TestEvaluateGuardrailsForceActionLowestPriorityWins(t *testing.T) {
	ctx := testContext(t)
	sc := testScenario()
	sc.Guardrails.Rules = []scenario.GuardrailRule{
		{RuleID: "force-a1", Priority: 1, Condition: "true", Effect: scenario.EffectForceAction, ForceTarget: "a1"},
		{RuleID: "force-a2", Priority: 2, Condition: "true", Effect: scenario.EffectForceAction, ForceTarget: "a2"},
	}
	ctx.Scenario = sc
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)

	guardrails, err := EvaluateGuardrails(ctx, ingest, state)
	require.NoError(t, err)
	assert.Equal(t, "a1", guardrails.ForcedActionID)
}

func TestScoreAndRankLocksForcedActionWhenPresent(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{
		EligibleActions: ingest.NormalizedActions,
		ForcedActionID:  "a2",
	}

	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)
	assert.True(t, env.SelectionLocked())
	assert.Equal(t, "a2", env.SelectedAction())
}

func TestScoreAndRankAppliesTieBreakerOnEqualScores(t *testing.T) {
	ctx := testContext(t)
	sc := testScenario()
	sc.Scoring.Objectives = []scenario.ScoringObjective{
		{Name: "flat", Weight: 1.0, Formula: "0.5"},
	}
	ctx.Scenario = sc
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{EligibleActions: ingest.NormalizedActions}

	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)
	assert.Equal(t, "a1", env.SelectedAction())
	ranked := env.RankedOptions()
	require.Len(t, ranked, 2)
	assert.Equal(t, "a1", ranked[0].ActionID)
	assert.Equal(t, "a2", ranked[1].ActionID)
}

func TestScoreAndRankRejectsDoubleLock(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{EligibleActions: ingest.NormalizedActions}

	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)

	_, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.ErrorIs(t, err, envelope.ErrAlreadyLocked)
}

func TestResolveSkillsFallsBackWhenSkillEnhancedExecutorUnavailable(t *testing.T) {
	ctx := testContext(t)
	sc := testScenario()
	sc.Execution.DefaultMode = scenario.ModeSkillEnhanced
	ctx.Scenario = sc
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{EligibleActions: ingest.NormalizedActions}
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)

	resolution, err := ResolveSkills(ctx, env, guardrails, ingest.Options)
	require.NoError(t, err)
	assert.Equal(t, "skill.fallback", resolution.SkillID)
	assert.Equal(t, "fallback_unavailable", resolution.ResolutionReason)
}

func TestResolveSkillsUsesFallbackUnderDeterministicOnly(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{EligibleActions: ingest.NormalizedActions}
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)

	resolution, err := ResolveSkills(ctx, env, guardrails, ingest.Options)
	require.NoError(t, err)
	assert.Equal(t, scenario.ModeDeterministicOnly, resolution.ExecutionMode)
	assert.Equal(t, "skill.fallback", resolution.SkillID)
}

func TestExecuteSkillRejectsUnlockedSelection(t *testing.T) {
	ctx := testContext(t)
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	_, err := ExecuteSkill(ctx, env, envelope.StateArtifact{}, envelope.GuardrailsArtifact{}, envelope.SkillResolutionArtifact{ExecutionMode: scenario.ModeDeterministicOnly})
	require.Error(t, err)
}

func TestExecuteSkillRunsDeterministicExecutor(t *testing.T) {
	ctx := testContext(t)
	req := baseRequest()
	ingest, err := Ingest(ctx, req)
	require.NoError(t, err)
	state, err := DeriveState(ctx, ingest)
	require.NoError(t, err)
	guardrails := envelope.GuardrailsArtifact{EligibleActions: ingest.NormalizedActions}
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err = ScoreAndRank(ctx, env, ingest, state, guardrails)
	require.NoError(t, err)

	resolution := envelope.SkillResolutionArtifact{ExecutionMode: scenario.ModeDeterministicOnly, SkillID: "skill.fallback"}
	out, err := ExecuteSkill(ctx, env, state, guardrails, resolution)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Payload["rationale"])
}

func TestValidateOutputWrapsFourPhaseValidator(t *testing.T) {
	ctx := testContext(t)
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err := env.LockSelection("a1", []envelope.RankedOption{{ActionID: "a1", Rank: 1, Score: 1}}, 1)
	require.NoError(t, err)

	skillExec := envelope.SkillExecutionArtifact{
		Payload:  map[string]any{"rationale": "a perfectly ordinary message"},
		Metadata: map[string]any{},
	}
	validation := ValidateOutput(env, skillExec, ctx.Tables)
	assert.True(t, validation.Passed)
}

func TestValidateOutputFailsOnProhibitedKey(t *testing.T) {
	ctx := testContext(t)
	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err := env.LockSelection("a1", []envelope.RankedOption{{ActionID: "a1", Rank: 1, Score: 1}}, 1)
	require.NoError(t, err)

	skillExec := envelope.SkillExecutionArtifact{
		Payload:  map[string]any{"rationale": "hello there", "selected_action": "a1"},
		Metadata: map[string]any{},
	}
	validation := ValidateOutput(env, skillExec, ctx.Tables)
	assert.False(t, validation.Passed)
	require.NotNil(t, validation.FirstFailure)
	assert.Equal(t, "invariants", validation.FirstFailure.Phase)
}

func TestFallbackNoOpWhenNotTriggered(t *testing.T) {
	env := envelope.New("s", "1", "hash")
	fb := Fallback(env, envelope.StateArtifact{}, false, "")
	assert.False(t, fb.Triggered)
	assert.Nil(t, fb.Payload)
}

func TestFallbackRendersTemplateWhenTriggered(t *testing.T) {
	env := envelope.New("s", "1", "hash")
	env, err := env.LockSelection("a1", []envelope.RankedOption{{ActionID: "a1", Rank: 1, Score: 1}}, 1)
	require.NoError(t, err)

	state := envelope.StateArtifact{Core: map[string]any{"churn_risk": true}}
	fb := Fallback(env, state, true, "SKILL_VALIDATION_FAILED")
	assert.True(t, fb.Triggered)
	assert.Equal(t, "SKILL_VALIDATION_FAILED", fb.ReasonCode)
	assert.NotEmpty(t, fb.Payload["rationale"])
}

func TestAuditAndReplayStampsTokenAndStoresTrace(t *testing.T) {
	ctx := testContext(t)

	env := envelope.New(ctx.Scenario.ScenarioID, ctx.Scenario.Version, "hash")
	env, err := env.LockSelection("a1", []envelope.RankedOption{{ActionID: "a1", Rank: 1, Score: 1}}, 1)
	require.NoError(t, err)

	resp := audit.DecisionResponse{
		Decision: audit.DecisionView{DecisionID: env.DecisionID, SelectedAction: env.SelectedAction()},
		Audit: audit.AuditView{
			DecisionID:      env.DecisionID,
			ScenarioID:      env.ScenarioID,
			ScenarioVersion: env.ScenarioVersion,
			ScenarioHash:    env.ScenarioHash,
		},
	}
	_, stamped, err := AuditAndReplay(ctx, env, baseRequest(), map[string]any{}, resp, 42, "test-engine")
	require.NoError(t, err)
	assert.NotEmpty(t, stamped.Audit.ReplayToken)
	assert.NotEmpty(t, stamped.Audit.TraceID)
	assert.True(t, ctx.AuditStore.Exists(env.DecisionID))
}
