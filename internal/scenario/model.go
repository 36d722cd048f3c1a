// Package scenario holds the Scenario data model (§3) and the registry that
// maps (scenario_id, version) to a hash-immutable scenario document (§4.2).
package scenario

// DimensionSource is where a dimension's value comes from.
type DimensionSource string

const (
	SourceSignal   DimensionSource = "signal"
	SourceContext  DimensionSource = "context"
	SourceComputed DimensionSource = "computed"
	SourceMemory   DimensionSource = "memory"
)

// DimensionType is the scalar type of a dimension definition.
type DimensionType string

const (
	TypeFloat   DimensionType = "float"
	TypeInteger DimensionType = "integer"
	TypeBoolean DimensionType = "boolean"
	TypeString  DimensionType = "string"
)

// Derivation describes how a dimension's value is computed.
type Derivation struct {
	Source DimensionSource `json:"source"`
	// Formula is consulted for computed dimensions only; signal/context/memory
	// sources fall back to the dimension's Default when the raw read misses.
	Formula string   `json:"formula,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
}

// DimensionDef is one entry in a state schema's ordered dimension map.
type DimensionDef struct {
	Name       string        `json:"name"`
	Type       DimensionType `json:"type"`
	Min        *float64      `json:"min,omitempty"`
	Max        *float64      `json:"max,omitempty"`
	Default    any           `json:"default"`
	Derivation Derivation    `json:"derivation"`
}

// StateSchema is the scenario's two ordered dimension lists. Order is
// significant: it is the declared evaluation order before topological
// reordering on computed dependencies (see TopologicalOrder).
type StateSchema struct {
	CoreDimensions     []DimensionDef `json:"core_dimensions"`
	ScenarioDimensions []DimensionDef `json:"scenario_dimensions"`
}

// AttributeSchema constrains one action-type attribute.
type AttributeSchema struct {
	Name string        `json:"name"`
	Type DimensionType `json:"type"`
	Min  *float64      `json:"min,omitempty"`
	Max  *float64      `json:"max,omitempty"`
	Enum []string      `json:"enum,omitempty"`
}

// ActionTypeDef declares one kind of action the scenario can offer.
type ActionTypeDef struct {
	TypeID       string            `json:"type_id"`
	Attributes   []AttributeSchema `json:"attributes,omitempty"`
	PrimarySkill string            `json:"primary_skill"`
}

// ActionsSource is where candidate actions for a request come from.
type ActionsSource string

const (
	ActionsSourceStatic  ActionsSource = "static"
	ActionsSourceDynamic ActionsSource = "dynamic"
)

// ActionsConfig describes the action types a scenario supports.
type ActionsConfig struct {
	Source      ActionsSource   `json:"source"`
	ActionTypes []ActionTypeDef `json:"action_types"`
}

// GuardrailEffect is what a triggered guardrail rule does.
type GuardrailEffect string

const (
	EffectBlockAction     GuardrailEffect = "block_action"
	EffectForceAction     GuardrailEffect = "force_action"
	EffectCapIntensity    GuardrailEffect = "cap_intensity"
	EffectRequireCooldown GuardrailEffect = "require_cooldown"
)

// GuardrailRule is one ordered rule in a scenario's guardrails config.
type GuardrailRule struct {
	RuleID      string          `json:"rule_id"`
	Priority    int             `json:"priority"`
	Condition   string          `json:"condition"`
	Effect      GuardrailEffect `json:"effect"`
	TargetType  string          `json:"target_type,omitempty"`  // block_action: type_id to block
	TargetID    string          `json:"target_id,omitempty"`    // block_action: action_id to block
	ForceTarget  string         `json:"force_target,omitempty"`  // force_action: action_id or type_id
	MaxIntensity string         `json:"max_intensity,omitempty"` // cap_intensity: low|moderate|high
}

// GuardrailsConfig is the scenario's ordered guardrail rule list.
type GuardrailsConfig struct {
	Rules []GuardrailRule `json:"rules"`
}

// ScoringObjective is one weighted formula in a scoring config.
type ScoringObjective struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Formula string  `json:"formula"`
}

// RiskFactor is one execution-risk penalty condition.
type RiskFactor struct {
	Name      string  `json:"name"`
	Condition string  `json:"condition"`
	Penalty   float64 `json:"penalty"`
}

// ExecutionRiskConfig optionally penalizes the weighted score.
type ExecutionRiskConfig struct {
	Enabled bool         `json:"enabled"`
	Weight  float64      `json:"weight"`
	Factors []RiskFactor `json:"factors,omitempty"`
}

// TieBreaker is one entry in the ordered tie-breaker list.
type TieBreaker string

const (
	TieBreakActionIDAsc  TieBreaker = "action_id_asc"
	TieBreakIntensityAsc TieBreaker = "intensity_asc"
	TieBreakDurationAsc  TieBreaker = "duration_asc"
)

// ScoringConfig is the scenario's ranking configuration.
type ScoringConfig struct {
	Objectives    []ScoringObjective  `json:"objectives"`
	ExecutionRisk ExecutionRiskConfig `json:"execution_risk"`
	TieBreakers   []TieBreaker        `json:"tie_breakers"`
	WeightSum     float64             `json:"weight_sum"` // declared expected sum, default 1.0
}

// SkillMapping pins primary/fallback skills for one action type.
type SkillMapping struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback"`
}

// SkillsConfig is the scenario's skill wiring.
type SkillsConfig struct {
	Available       []string                `json:"available"`
	ByActionType    map[string]SkillMapping `json:"by_action_type,omitempty"`
	DefaultFallback string                  `json:"default_fallback"`
}

// ExecutionMode selects whether skills run at all.
type ExecutionMode string

const (
	ModeDeterministicOnly ExecutionMode = "deterministic_only"
	ModeSkillEnhanced     ExecutionMode = "skill_enhanced"
)

// ExecutionConfig is the scenario's execution-mode and timeout policy.
type ExecutionConfig struct {
	DefaultMode       ExecutionMode `json:"default_mode"`
	AllowModeOverride bool          `json:"allow_mode_override"`
	SkillExecutionMs  int           `json:"skill_execution_ms"`
	TotalDecisionMs   int           `json:"total_decision_ms"`
	ValidationMs      int           `json:"validation_ms"`
}

// Scenario is the immutable, versioned policy document §3 describes.
type Scenario struct {
	ScenarioID string `json:"scenario_id"`
	Version    string `json:"version"`

	StateSchema StateSchema      `json:"state_schema"`
	Actions     ActionsConfig    `json:"actions"`
	Guardrails  GuardrailsConfig `json:"guardrails"`
	Scoring     ScoringConfig    `json:"scoring"`
	Skills      SkillsConfig     `json:"skills"`
	Execution   ExecutionConfig  `json:"execution"`
}

// Action is one candidate outcome offered to the engine for a single
// request. ActionID is the only identity used in ordering/comparison.
type Action struct {
	ActionID   string         `json:"action_id"`
	TypeID     string         `json:"type_id"`
	Attributes map[string]any `json:"attributes"`
}

// FindActionType returns the declared action-type definition for typeID.
func (s *Scenario) FindActionType(typeID string) (*ActionTypeDef, bool) {
	for i := range s.Actions.ActionTypes {
		if s.Actions.ActionTypes[i].TypeID == typeID {
			return &s.Actions.ActionTypes[i], true
		}
	}
	return nil, false
}

// ResolveSkill returns the primary and fallback skill ids for typeID
// (§4.5 S5): a per-action-type mapping overrides the action type's
// declared primary skill and the scenario's default fallback.
func (s *Scenario) ResolveSkill(typeID string) (primary, fallback string) {
	fallback = s.Skills.DefaultFallback
	if at, ok := s.FindActionType(typeID); ok {
		primary = at.PrimarySkill
	}
	if mapping, ok := s.Skills.ByActionType[typeID]; ok {
		if mapping.Primary != "" {
			primary = mapping.Primary
		}
		if mapping.Fallback != "" {
			fallback = mapping.Fallback
		}
	}
	return primary, fallback
}
