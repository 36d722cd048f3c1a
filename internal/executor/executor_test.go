package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adecorp/ade/internal/scenario"
)

func TestSelectTemplateFollowsPriorityLadder(t *testing.T) {
	key := SelectTemplate(map[TemplateKey]bool{
		TemplateNewUser:       true,
		TemplateHighChurnRisk: false,
	})
	assert.Equal(t, TemplateNewUser, key)

	key = SelectTemplate(map[TemplateKey]bool{
		TemplateHighChurnRisk: true,
		TemplateNewUser:       true,
	})
	assert.Equal(t, TemplateHighChurnRisk, key)

	key = SelectTemplate(nil)
	assert.Equal(t, TemplateDefault, key)
}

func TestDeterministicExecutorAlwaysSucceeds(t *testing.T) {
	exec := NewDeterministicExecutor()
	assert.True(t, exec.IsAvailable())

	out, err := exec.Execute(context.Background(), SkillInputEnvelope{
		Decision: DecisionContext{SelectedAction: scenario.Action{ActionID: "send-now"}},
		State:    UserStateView{Core: map[string]any{"churn_risk": true}},
	}, 1000)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Payload["rationale"], "send-now")
}

func TestRegistryFallsBackToDeterministicWhenSkillEnhancedAbsent(t *testing.T) {
	det := NewDeterministicExecutor()
	reg := NewRegistry(det)

	best, err := reg.GetBestAvailable()
	require.NoError(t, err)
	assert.Equal(t, scenario.ModeDeterministicOnly, best.Type())
}
