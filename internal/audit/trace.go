// Package audit implements the audit store interface (§4.7), its in-memory
// reference adapter, and the replay/determinism comparator. The persistence
// shape is modeled after the teacher's ent-backed store, adapted to an
// interface-first, in-memory default since spec §3 declares persistence
// backends out of scope for this module.
package audit

import (
	"encoding/base64"
	"time"
)

// DeterminismState is the audit trace's tri-state verification flag (§3).
type DeterminismState string

const (
	DeterminismUnknown DeterminismState = "unknown"
	DeterminismTrue    DeterminismState = "true"
	DeterminismFalse   DeterminismState = "false"
)

// Trace is the immutable record of one completed decision (§3, §4.7).
type Trace struct {
	DecisionID          string
	ScenarioID          string
	ScenarioVersion     string
	ScenarioHash        string
	EngineVersion       string
	CommittedAt         time.Time
	OriginalRequest     any
	StageArtifacts      map[string]any
	FinalResponse       DecisionResponse
	TotalDurationMs     int64
	DeterminismVerified DeterminismState
}

// ReplayTokenPrefix is prepended to every computed replay token.
const ReplayTokenPrefix = "rpl_"

// ComputeReplayToken builds the replay token from decisionID and
// scenarioHash: URL-safe base64 of "decision_id:scenario_hash", padding
// stripped, prefixed rpl_ (§4.5 S9).
func ComputeReplayToken(decisionID, scenarioHash string) string {
	raw := decisionID + ":" + scenarioHash
	return ReplayTokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Store is the audit-store interface (§4.7). Implementations must
// deep-clone on both store and retrieve so no later mutation of caller- or
// envelope-owned values can alter a stored trace.
type Store interface {
	Store(trace Trace) error
	Retrieve(decisionID string) (Trace, error)
	RetrieveByToken(token string) (Trace, error)
	Exists(decisionID string) bool
	StoreVerification(decisionID string, verified DeterminismState) error
}
