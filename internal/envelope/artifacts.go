package envelope

import "github.com/adecorp/ade/internal/scenario"

// IngestArtifact is Stage 1's output: the original request plus normalized
// actions (§4.5 S1).
type IngestArtifact struct {
	UserID           string
	OriginalRequest  any
	NormalizedActions []scenario.Action
	Signals          map[string]any
	Context          map[string]any
	Options          RequestOptions
}

// RequestOptions mirrors DecisionRequest.options (§6.1).
type RequestOptions struct {
	ExecutionModeOverride string
	IncludeRationale      bool
	IncludeScoreBreakdown bool
	MaxRankedOptions      int
}

// StateArtifact is Stage 2's output: the derived user state (§3, §4.5 S2).
type StateArtifact struct {
	Core               map[string]any
	ScenarioExtensions map[string]any
	ExecutionCapabilities map[string]any
	InputsHash         string
}

// RuleResult is one guardrail rule's evaluation outcome (§4.5 S3).
type RuleResult struct {
	RuleID    string
	Triggered bool
	Effect    scenario.GuardrailEffect
}

// GuardrailsArtifact is Stage 3's output (§4.5 S3).
type GuardrailsArtifact struct {
	RuleResults     []RuleResult
	EligibleActions []scenario.Action
	ForcedActionID  string
}

// SkillResolutionArtifact is Stage 5's output (§4.5 S5).
type SkillResolutionArtifact struct {
	SkillID          string
	SkillVersion     string
	ExecutionMode    scenario.ExecutionMode
	ResolutionReason string // primary | fallback_unavailable | mode_override
}

// SkillExecutionArtifact is Stage 6's output (§4.5 S6).
type SkillExecutionArtifact struct {
	Payload     map[string]any
	Metadata    map[string]any
	TokenCount  int
	ExecutionMs int64
}

// PhaseResult is one of the four validation phases' outcome (§4.5 S7).
type PhaseResult struct {
	Phase     string // schema | invariants | authority | prohibitions
	Passed    bool
	CheckID   string
	Detail    string
}

// ValidationArtifact is Stage 7's output (§4.5 S7).
type ValidationArtifact struct {
	PhaseResults []PhaseResult
	FirstFailure *PhaseResult
	Passed       bool
}

// FallbackArtifact is Stage 8's output (§4.5 S8).
type FallbackArtifact struct {
	Triggered  bool
	ReasonCode string
	Payload    map[string]any
}

// AuditArtifact is Stage 9's output (§4.5 S9).
type AuditArtifact struct {
	ReplayToken string
	TraceID     string
}
