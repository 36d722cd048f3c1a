package stages

import (
	"time"

	"github.com/google/uuid"

	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/envelope"
)

// AuditAndReplay is Stage 9 (§4.5 S9): compute the replay token and trace
// id, stamp them onto the response, and hand the assembled trace to the
// audit store (which deep-clones on write per §4.7).
func AuditAndReplay(ctx Context, env envelope.Envelope, originalRequest any, stageArtifacts map[string]any, response audit.DecisionResponse, totalDurationMs int64, engineVersion string) (envelope.AuditArtifact, audit.DecisionResponse, error) {
	token := audit.ComputeReplayToken(env.DecisionID, env.ScenarioHash)
	traceID := uuid.NewString()

	response.Audit.ReplayToken = token
	response.Audit.TraceID = traceID

	trace := audit.Trace{
		DecisionID:          env.DecisionID,
		ScenarioID:          env.ScenarioID,
		ScenarioVersion:     env.ScenarioVersion,
		ScenarioHash:        env.ScenarioHash,
		EngineVersion:       engineVersion,
		CommittedAt:         time.Now(),
		OriginalRequest:     originalRequest,
		StageArtifacts:      stageArtifacts,
		FinalResponse:       response,
		TotalDurationMs:     totalDurationMs,
		DeterminismVerified: audit.DeterminismUnknown,
	}

	if err := ctx.AuditStore.Store(trace); err != nil {
		return envelope.AuditArtifact{}, audit.DecisionResponse{}, apperr.New(apperr.KindInternalError, "audit store write failed: "+err.Error())
	}

	return envelope.AuditArtifact{ReplayToken: token, TraceID: traceID}, response, nil
}
