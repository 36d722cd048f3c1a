package stages

import (
	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/scenario"
)

// Ingest is Stage 1 (§4.5 S1): reject malformed requests, normalize
// actions, and reject unknown action types. A client-supplied decision_id
// is never read here — the envelope already carries the server-minted one.
func Ingest(ctx Context, req Request) (envelope.IngestArtifact, error) {
	if req.ScenarioID == "" {
		return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidRequest, "scenario_id is required")
	}
	if req.UserID == "" {
		return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidRequest, "user_id is required")
	}
	if len(req.Actions) == 0 {
		return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidRequest, "actions must be non-empty")
	}
	if stringFromAny(req.Context["current_time"]) == "" {
		return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidRequest, "context.current_time is required")
	}

	normalized := make([]scenario.Action, 0, len(req.Actions))
	for _, a := range req.Actions {
		if a.ActionID == "" || a.TypeID == "" {
			return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidRequest, "every action requires action_id and type_id")
		}
		if _, ok := ctx.Scenario.FindActionType(a.TypeID); !ok {
			return envelope.IngestArtifact{}, apperr.New(apperr.KindInvalidActionType, "unknown type_id "+a.TypeID).
				WithDetails(map[string]any{"type_id": a.TypeID, "action_id": a.ActionID})
		}
		attrs := a.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		normalized = append(normalized, scenario.Action{
			ActionID:   a.ActionID,
			TypeID:     a.TypeID,
			Attributes: attrs,
		})
	}

	return envelope.IngestArtifact{
		UserID:            req.UserID,
		OriginalRequest:   req,
		NormalizedActions: normalized,
		Signals:           req.Signals,
		Context:           req.Context,
		Options:           req.Options,
	}, nil
}
