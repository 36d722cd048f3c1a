// Package envelope implements the decision envelope (§3, §4.3): the single
// value that accumulates state through all nine pipeline stages, and the
// selection lock that makes Stage 4's choice immutable for the rest of the
// run.
//
// The envelope is passed by value, never as a shared pointer. Stage 4
// returns a new Envelope from LockSelection; the other stages return only
// their artifact, which the orchestrator in internal/pipeline writes onto
// its own copy of the envelope. The
// selection-lock fields (selected action, ranked options, locked flag) live
// in an unexported rankingState that can only be produced by LockSelection,
// so no stage after Stage 4 can set them directly — the compiler enforces
// it, not a convention.
package envelope

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyLocked is returned by LockSelection when the envelope's
// selection has already been locked by an earlier call.
var ErrAlreadyLocked = errors.New("envelope: selection already locked")

// StageTiming records one stage's observed wall-clock window.
type StageTiming struct {
	Stage     int
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration is EndedAt - StartedAt, or zero if the stage hasn't ended.
func (t StageTiming) Duration() time.Duration {
	if t.EndedAt.IsZero() {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// rankingState holds the selection-lock fields. The zero value is the
// unlocked state; the only way to reach a locked state is LockSelection.
type rankingState struct {
	locked        bool
	lockedAt      time.Time
	rankedOptions []RankedOption
	selectedID    string
	margin        float64
}

// RankedOption is one entry in the ranked options list (§3 ranking).
type RankedOption struct {
	ActionID  string
	Rank      int
	Score     float64
	Breakdown map[string]float64
}

// Envelope is the decision pipeline's accumulator (§3).
type Envelope struct {
	DecisionID      string
	ScenarioID      string
	ScenarioVersion string
	ScenarioHash    string
	CreatedAt       time.Time
	StageTimings    []StageTiming

	Ingest          IngestArtifact
	State           StateArtifact
	Guardrails      GuardrailsArtifact
	ranking         rankingState
	SkillResolution SkillResolutionArtifact
	SkillExecution  SkillExecutionArtifact
	Validation      ValidationArtifact
	Fallback        FallbackArtifact
	Audit           AuditArtifact
}

// New creates a freshly minted envelope. DecisionID is always
// server-generated (UUID v4) — §4.5 S1 requires any client-supplied
// decision_id to be ignored.
func New(scenarioID, scenarioVersion, scenarioHash string) Envelope {
	return Envelope{
		DecisionID:      uuid.NewString(),
		ScenarioID:      scenarioID,
		ScenarioVersion: scenarioVersion,
		ScenarioHash:    scenarioHash,
		CreatedAt:       time.Now(),
	}
}

// WithStageTiming appends a completed stage's timing window and returns the
// updated envelope.
func (e Envelope) WithStageTiming(t StageTiming) Envelope {
	e.StageTimings = append(append([]StageTiming{}, e.StageTimings...), t)
	return e
}

// LockSelection seals selected_action, ranked_options, and the locked flag
// for the rest of the pipeline run (§4.3, §4.5 S4). It fails if the
// envelope is already locked; nothing after this call can alter those
// fields except by reading them back through the accessors below.
func (e Envelope) LockSelection(actionID string, ranked []RankedOption, margin float64) (Envelope, error) {
	if e.ranking.locked {
		return e, ErrAlreadyLocked
	}
	e.ranking = rankingState{
		locked:        true,
		lockedAt:      time.Now(),
		rankedOptions: append([]RankedOption{}, ranked...),
		selectedID:    actionID,
		margin:        margin,
	}
	return e, nil
}

// SelectionLocked reports whether Stage 4 has run.
func (e Envelope) SelectionLocked() bool { return e.ranking.locked }

// SelectionLockedAt returns the lock timestamp, or the zero time if unlocked.
func (e Envelope) SelectionLockedAt() time.Time { return e.ranking.lockedAt }

// SelectedAction returns the locked action id, or "" if unlocked.
func (e Envelope) SelectedAction() string { return e.ranking.selectedID }

// RankedOptions returns a defensive copy of the locked ranked list.
func (e Envelope) RankedOptions() []RankedOption {
	return append([]RankedOption{}, e.ranking.rankedOptions...)
}

// SelectionMargin returns the score gap between rank 1 and rank 2 (§4.5 S4).
func (e Envelope) SelectionMargin() float64 { return e.ranking.margin }

// VerifySelectionIntegrity returns true iff the envelope is locked and its
// selected action equals expected (§4.3).
func (e Envelope) VerifySelectionIntegrity(expected string) bool {
	return e.ranking.locked && e.ranking.selectedID == expected
}
