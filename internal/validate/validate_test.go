package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adecorp/ade/internal/governance"
)

func tables(t *testing.T) *governance.Tables {
	t.Helper()
	tbl, err := governance.Load()
	require.NoError(t, err)
	return tbl
}

func cleanInput(t *testing.T) Input {
	return Input{
		Output: SkillOutput{
			Payload:    map[string]any{"rationale": "This option fits your recent activity.", "display_title": "send-now"},
			Metadata:   map[string]any{"renderer": "deterministic-template"},
			TokenCount: 40,
		},
		SelectionLocked: true,
		Tables:          tables(t),
	}
}

func TestRunPassesOnCleanOutput(t *testing.T) {
	res := Run(cleanInput(t))
	assert.True(t, res.Passed)
	assert.Nil(t, res.FirstFailure)
	assert.Len(t, res.Phases, 4)
}

func TestRunFailsSchemaOnMissingMetadata(t *testing.T) {
	in := cleanInput(t)
	in.Output.Metadata = nil

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "schema", res.FirstFailure.Phase)
	assert.Equal(t, "SCHEMA-missing-metadata", res.FirstFailure.CheckID)
}

func TestRunFailsSchemaOnShortRationale(t *testing.T) {
	in := cleanInput(t)
	in.Output.Payload["rationale"] = "hi"

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "SCHEMA-rationale-length", res.FirstFailure.CheckID)
}

func TestRunFailsInvariantsOnUnlockedSelection(t *testing.T) {
	in := cleanInput(t)
	in.SelectionLocked = false

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "invariants", res.FirstFailure.Phase)
	assert.Equal(t, "INVARIANT-selection-not-locked", res.FirstFailure.CheckID)
}

func TestRunFailsInvariantsOnProhibitedKey(t *testing.T) {
	in := cleanInput(t)
	in.Output.Payload["selected_action"] = "send-now"

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "INVARIANT-prohibited-key", res.FirstFailure.CheckID)
}

func TestRunFailsInvariantsOnTokenCountOverLimit(t *testing.T) {
	in := cleanInput(t)
	in.Output.TokenCount = 501

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "INVARIANT-token-count", res.FirstFailure.CheckID)
}

func TestRunPrioritizesAuthorityOverSimultaneousProhibitionFailure(t *testing.T) {
	in := cleanInput(t)
	in.Output.Payload["rationale"] = "I recommend you contact me at jane@example.com about this."

	res := Run(in)
	require.False(t, res.Passed)
	require.NotNil(t, res.FirstFailure)
	assert.Equal(t, "authority", res.FirstFailure.Phase)

	var prohibitionsFailed bool
	for _, p := range res.Phases {
		if p.Phase == "prohibitions" && !p.Passed {
			prohibitionsFailed = true
		}
	}
	assert.True(t, prohibitionsFailed, "expected the prohibitions phase to also fail on the embedded email")
}

func TestRunFlagsPIIEmailInProhibitionsPhase(t *testing.T) {
	in := cleanInput(t)
	in.Output.Payload["rationale"] = "Reach out to jane@example.com for more detail here."

	res := Run(in)
	require.False(t, res.Passed)

	var found bool
	for _, p := range res.Phases {
		if p.Phase == "prohibitions" && !p.Passed {
			found = true
			assert.Equal(t, "PROHIB-pii-email", p.CheckID)
		}
	}
	assert.True(t, found)
}
