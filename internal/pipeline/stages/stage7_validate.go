package stages

import (
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/governance"
	"github.com/adecorp/ade/internal/validate"
)

// ValidateOutput is Stage 7 (§4.5 S7): run the four-phase validator
// against the skill's output. A failing phase is not an error — it is
// reported through the artifact so the orchestrator can route to Stage 8.
func ValidateOutput(env envelope.Envelope, skillExec envelope.SkillExecutionArtifact, tables *governance.Tables) envelope.ValidationArtifact {
	result := validate.Run(validate.Input{
		Output: validate.SkillOutput{
			Payload:    skillExec.Payload,
			Metadata:   skillExec.Metadata,
			TokenCount: skillExec.TokenCount,
		},
		SelectionLocked: env.SelectionLocked(),
		Tables:          tables,
	})

	return envelope.ValidationArtifact{
		PhaseResults: result.Phases,
		FirstFailure: result.FirstFailure,
		Passed:       result.Passed,
	}
}
