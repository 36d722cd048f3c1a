package httpapi

import (
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/pipeline/stages"
)

// DecisionRequest is the wire shape of POST /v1/decide's body (§6.1). It has
// no decision_id field, so a client-supplied decision_id is dropped when the
// body is decoded and never reaches the pipeline.
type DecisionRequest struct {
	ScenarioID string                 `json:"scenario_id" binding:"required"`
	UserID     string                 `json:"user_id" binding:"required"`
	Actions    []DecisionRequestAction `json:"actions" binding:"required"`
	Signals    map[string]any         `json:"signals"`
	Context    map[string]any         `json:"context"`
	Options    DecisionRequestOptions `json:"options"`
}

// DecisionRequestAction is one candidate action in the request body.
type DecisionRequestAction struct {
	ActionID   string         `json:"action_id"`
	TypeID     string         `json:"type_id"`
	Attributes map[string]any `json:"attributes"`
}

// DecisionRequestOptions mirrors DecisionRequest.options (§6.1).
type DecisionRequestOptions struct {
	ExecutionModeOverride string `json:"execution_mode_override"`
	IncludeRationale      bool   `json:"include_rationale"`
	IncludeScoreBreakdown bool   `json:"include_score_breakdown"`
	MaxRankedOptions      int    `json:"max_ranked_options"`
}

// toStagesRequest converts the wire DTO into the pipeline's internal
// request shape.
func (r DecisionRequest) toStagesRequest() stages.Request {
	actions := make([]stages.RequestAction, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, stages.RequestAction{
			ActionID:   a.ActionID,
			TypeID:     a.TypeID,
			Attributes: a.Attributes,
		})
	}
	return stages.Request{
		ScenarioID: r.ScenarioID,
		UserID:     r.UserID,
		Actions:    actions,
		Signals:    r.Signals,
		Context:    r.Context,
		Options: envelope.RequestOptions{
			ExecutionModeOverride: r.Options.ExecutionModeOverride,
			IncludeRationale:      r.Options.IncludeRationale,
			IncludeScoreBreakdown: r.Options.IncludeScoreBreakdown,
			MaxRankedOptions:      r.Options.MaxRankedOptions,
		},
	}
}

// FeedbackRequest is the wire shape of POST /v1/feedback's body (§6.1).
type FeedbackRequest struct {
	DecisionID string         `json:"decision_id" binding:"required"`
	Outcome    map[string]any `json:"outcome"`
	Timestamp  string         `json:"timestamp"`
}
