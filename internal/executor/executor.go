// Package executor implements the executor registry (§4.6): the mapping
// from execution mode to skill implementation, plus the built-in
// deterministic template executor that backs deterministic-only scenarios
// and Stage 8's fallback ladder.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/adecorp/ade/internal/scenario"
)

// DecisionContext is the portion of SkillInputEnvelope describing the
// already-locked decision (§4.5 S6).
type DecisionContext struct {
	DecisionID         string
	SelectedAction     scenario.Action
	RankedOptions      []RankedOptionView
	TriggeredGuardrails []string
}

// RankedOptionView is the ranked-options projection handed to a skill —
// deliberately thinner than envelope.RankedOption (no raw breakdown) so a
// skill cannot reverse-engineer scoring internals it must not comment on.
type RankedOptionView struct {
	ActionID string
	Rank     int
	Score    float64
}

// SkillConfig is the skill-facing slice of scenario configuration.
type SkillConfig struct {
	SkillID        string
	Version        string
	Mode           scenario.ExecutionMode
	MaxOutputTokens int
	TimeoutMs      int
	CustomParams   map[string]any
}

// SkillInputEnvelope is everything a skill executor receives (§4.5 S6).
type SkillInputEnvelope struct {
	Decision DecisionContext
	State    UserStateView
	Skill    SkillConfig
}

// UserStateView is the user-state slice handed to a skill: core dimensions
// plus scenario extensions only — no raw signals/memory.
type UserStateView struct {
	Core               map[string]any
	ScenarioExtensions map[string]any
}

// Output is what Execute returns on success (§4.6). Payload carries the
// rationale/display fields the schema phase requires; Metadata is the
// sibling required-but-otherwise-opaque field the same phase checks for.
type Output struct {
	Success     bool
	Payload     map[string]any
	Metadata    map[string]any
	Err         string
	ExecutionMs int64
	TokenCount  int
}

// DefaultMaxOutputTokens is SkillConfig.MaxOutputTokens's default (§4.5 S6).
const DefaultMaxOutputTokens = 150

// Executor is one skill-execution backend (§4.6).
type Executor interface {
	Type() scenario.ExecutionMode
	IsAvailable() bool
	LatencyEstimate() time.Duration
	Execute(ctx context.Context, input SkillInputEnvelope, timeoutMs int) (Output, error)
}

// Registry maps ExecutionMode to an Executor.
type Registry struct {
	byMode map[scenario.ExecutionMode]Executor
}

// NewRegistry creates a registry seeded with executors.
func NewRegistry(executors ...Executor) *Registry {
	r := &Registry{byMode: make(map[scenario.ExecutionMode]Executor)}
	for _, e := range executors {
		r.byMode[e.Type()] = e
	}
	return r
}

// Get returns the executor registered for mode, if any.
func (r *Registry) Get(mode scenario.ExecutionMode) (Executor, bool) {
	e, ok := r.byMode[mode]
	return e, ok
}

// GetBestAvailable prefers skill_enhanced, then deterministic_only (§4.6).
func (r *Registry) GetBestAvailable() (Executor, error) {
	if e, ok := r.byMode[scenario.ModeSkillEnhanced]; ok && e.IsAvailable() {
		return e, nil
	}
	if e, ok := r.byMode[scenario.ModeDeterministicOnly]; ok && e.IsAvailable() {
		return e, nil
	}
	return nil, fmt.Errorf("executor: no available executor in registry")
}
