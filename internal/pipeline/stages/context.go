// Package stages implements the nine pipeline stages (§4.5): Ingest,
// Derive State, Evaluate Guardrails, Score and Rank, Resolve Skills,
// Execute Skill, Validate Output, Fallback, and Audit and Replay. Each
// stage is a pure function from its inputs to an artifact (or an error),
// called in order by internal/pipeline's orchestrator — the shape mirrors
// the teacher's chain-of-stages session executor (pkg/queue/executor.go),
// generalized from "agent chain steps" to "decision pipeline stages".
package stages

import (
	"time"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/governance"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/scenario"
)

// Context bundles the read-only collaborators every stage may need. It is
// built once per request by the orchestrator and never mutated by a stage.
type Context struct {
	Scenario    *scenario.Scenario
	Tables      *governance.Tables
	Executors   *executor.Registry
	MemoryStore memory.Store
	AuditStore  audit.Store
	Now         time.Time
}

// Request is the engine-internal projection of DecisionRequest (§6.1). The
// HTTP layer is responsible for decoding JSON into this shape.
type Request struct {
	ScenarioID string
	UserID     string
	Actions    []RequestAction
	Signals    map[string]any
	Context    map[string]any
	Options    envelope.RequestOptions
}

// RequestAction is one candidate action as received from a client.
type RequestAction struct {
	ActionID   string
	TypeID     string
	Attributes map[string]any
}
