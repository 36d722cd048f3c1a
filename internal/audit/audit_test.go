package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace(decisionID string) Trace {
	return Trace{
		DecisionID:      decisionID,
		ScenarioID:      "notification-timing",
		ScenarioVersion: "1.0.0",
		ScenarioHash:    "sha256:abc123",
		EngineVersion:   "ade-0.1.0",
		CommittedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		OriginalRequest: map[string]any{"user_id": "u1"},
		StageArtifacts:  map[string]any{"ingest": map[string]any{"user_id": "u1"}},
		FinalResponse: DecisionResponse{
			Decision: DecisionView{
				DecisionID:     decisionID,
				SelectedAction: "send-now",
				RankedOptions: []RankedOptionView{
					{ActionID: "send-now", Rank: 1, Score: 0.9},
					{ActionID: "delay", Rank: 2, Score: 0.4},
				},
			},
			GuardrailsApplied: []string{"rule-1"},
			State: StateView{
				Core: map[string]any{"churn_risk": true},
			},
		},
		TotalDurationMs:     12,
		DeterminismVerified: DeterminismUnknown,
	}
}

func TestComputeReplayTokenIsStablePrefixedURLSafe(t *testing.T) {
	tok := ComputeReplayToken("decision-1", "sha256:abc123")
	assert.Equal(t, ReplayTokenPrefix, tok[:len(ReplayTokenPrefix)])
	assert.NotContains(t, tok, "=")
	assert.Equal(t, tok, ComputeReplayToken("decision-1", "sha256:abc123"))
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	trace := sampleTrace("decision-1")

	require.NoError(t, store.Store(trace))
	assert.True(t, store.Exists("decision-1"))

	got, err := store.Retrieve("decision-1")
	require.NoError(t, err)
	assert.Equal(t, trace.ScenarioID, got.ScenarioID)
	assert.Equal(t, trace.FinalResponse.Decision.SelectedAction, got.FinalResponse.Decision.SelectedAction)

	token := ComputeReplayToken(trace.DecisionID, trace.ScenarioHash)
	byToken, err := store.RetrieveByToken(token)
	require.NoError(t, err)
	assert.Equal(t, got.DecisionID, byToken.DecisionID)
}

func TestInMemoryStoreRejectsDuplicateDecisionID(t *testing.T) {
	store := NewInMemoryStore()
	trace := sampleTrace("decision-1")
	require.NoError(t, store.Store(trace))
	assert.ErrorIs(t, store.Store(trace), ErrAlreadyStored)
}

func TestInMemoryStoreRetrieveUnknownFails(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Retrieve("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.RetrieveByToken("rpl_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreDeepCopyIsolatesMutation(t *testing.T) {
	store := NewInMemoryStore()
	trace := sampleTrace("decision-1")
	require.NoError(t, store.Store(trace))

	trace.FinalResponse.Decision.SelectedAction = "mutated-after-store"
	got, err := store.Retrieve("decision-1")
	require.NoError(t, err)
	assert.Equal(t, "send-now", got.FinalResponse.Decision.SelectedAction)
}

func TestStoreVerificationUpdatesTrace(t *testing.T) {
	store := NewInMemoryStore()
	trace := sampleTrace("decision-1")
	require.NoError(t, store.Store(trace))

	require.NoError(t, store.StoreVerification("decision-1", DeterminismTrue))
	got, err := store.Retrieve("decision-1")
	require.NoError(t, err)
	assert.Equal(t, DeterminismTrue, got.DeterminismVerified)
}

func TestCompareDetectsCriticalSelectedActionDivergence(t *testing.T) {
	original := sampleTrace("d1").FinalResponse
	replay := sampleTrace("d2").FinalResponse
	replay.Decision.SelectedAction = "delay"

	result := Compare(original, replay)
	assert.False(t, result.DeterminismVerified)
	assert.Contains(t, result.CriticalDiffs, "decision.selected_action")
}

func TestCompareToleratesScoreWithinEpsilon(t *testing.T) {
	original := sampleTrace("d1").FinalResponse
	replay := sampleTrace("d2").FinalResponse
	replay.Decision.RankedOptions[0].Score += 1e-5

	result := Compare(original, replay)
	assert.True(t, result.DeterminismVerified)
}

func TestCompareDetectsScoreDivergenceBeyondEpsilon(t *testing.T) {
	original := sampleTrace("d1").FinalResponse
	replay := sampleTrace("d2").FinalResponse
	replay.Decision.RankedOptions[0].Score += 0.01

	result := Compare(original, replay)
	assert.False(t, result.DeterminismVerified)
}

func TestCompareIgnoresDecisionIDAndGuardrailOrder(t *testing.T) {
	original := sampleTrace("d1").FinalResponse
	original.GuardrailsApplied = []string{"rule-1", "rule-2"}
	replay := sampleTrace("d2").FinalResponse
	replay.GuardrailsApplied = []string{"rule-2", "rule-1"}

	result := Compare(original, replay)
	assert.True(t, result.DeterminismVerified)
	assert.NotContains(t, result.CriticalDiffs, "guardrails_applied")
}

func TestCompareDetectsGuardrailSetDivergence(t *testing.T) {
	original := sampleTrace("d1").FinalResponse
	original.GuardrailsApplied = []string{"rule-1"}
	replay := sampleTrace("d2").FinalResponse
	replay.GuardrailsApplied = []string{"rule-1", "rule-2"}

	result := Compare(original, replay)
	assert.False(t, result.DeterminismVerified)
	assert.Contains(t, result.CriticalDiffs, "guardrails_applied")
}
