package audit

import "time"

// DecisionResponse is the HTTP-facing shape of a completed decision (§6.1).
// It is also the unit the replay comparator operates on (§4.7), so it lives
// here rather than in internal/httpapi — the HTTP layer only marshals it.
type DecisionResponse struct {
	Decision          DecisionView  `json:"decision"`
	State             StateView     `json:"state"`
	Execution         ExecutionView `json:"execution"`
	GuardrailsApplied []string      `json:"guardrails_applied"`
	Audit             AuditView     `json:"audit"`
	Meta              MetaView      `json:"meta"`
}

// DecisionView is the selected action plus its ranked alternatives.
type DecisionView struct {
	DecisionID     string             `json:"decision_id"`
	SelectedAction string             `json:"selected_action"`
	Payload        PayloadView        `json:"payload"`
	RankedOptions  []RankedOptionView `json:"ranked_options"`
}

// PayloadView is the skill (or fallback) output surfaced to the caller.
type PayloadView struct {
	Rationale         string         `json:"rationale"`
	DisplayTitle      string         `json:"display_title,omitempty"`
	DisplayParameters map[string]any `json:"display_parameters,omitempty"`
}

// RankedOptionView is one ranked candidate action in the response.
type RankedOptionView struct {
	ActionID       string             `json:"action_id"`
	Rank           int                `json:"rank"`
	Score          float64            `json:"score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// StateView is the derived user state surfaced in the response.
type StateView struct {
	Core               map[string]any `json:"core"`
	ScenarioExtensions map[string]any `json:"scenario_extensions"`
}

// ExecutionView describes how the skill (or fallback) ran.
type ExecutionView struct {
	ExecutionMode      string `json:"execution_mode"`
	SkillID            string `json:"skill_id"`
	SkillVersion       string `json:"skill_version"`
	ValidationStatus   string `json:"validation_status"`
	FallbackUsed       bool   `json:"fallback_used"`
	FallbackReasonCode string `json:"fallback_reason_code,omitempty"`
}

// AuditView is the replay-addressing portion of the response.
type AuditView struct {
	DecisionID      string `json:"decision_id"`
	ReplayToken     string `json:"replay_token"`
	ScenarioID      string `json:"scenario_id"`
	ScenarioVersion string `json:"scenario_version"`
	ScenarioHash    string `json:"scenario_hash"`
	TraceID         string `json:"trace_id"`
}

// MetaView is request-framing metadata, not decision content.
type MetaView struct {
	RequestID        string           `json:"request_id"`
	Timestamp        time.Time        `json:"timestamp"`
	TotalDurationMs  int64            `json:"total_duration_ms"`
	APIVersion       string           `json:"api_version"`
	StageDurationsMs map[string]int64 `json:"stage_durations_ms,omitempty"`
}
