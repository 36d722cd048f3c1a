// Package pipeline implements the orchestrator (§4.4, C5): it resolves a
// scenario, builds an envelope, walks the nine stages in
// internal/pipeline/stages in order, and projects the final envelope into
// a response and an audit trace. The shape mirrors the teacher's
// chain-of-stages session executor (pkg/queue/executor.go), generalized
// from an LLM agent chain to a deterministic decision pipeline.
package pipeline

import (
	"time"

	"github.com/adecorp/ade/internal/apperr"
	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/governance"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/pipeline/stages"
	"github.com/adecorp/ade/internal/scenario"
)

// APIVersion is echoed in every response's meta.api_version.
const APIVersion = "v1"

// Pipeline wires the read-only collaborators every decision needs.
type Pipeline struct {
	Registry      *scenario.Registry
	Tables        *governance.Tables
	Executors     *executor.Registry
	MemoryStore   memory.Store
	AuditStore    audit.Store
	EngineVersion string
}

// New constructs a Pipeline.
func New(registry *scenario.Registry, tables *governance.Tables, executors *executor.Registry, memoryStore memory.Store, auditStore audit.Store, engineVersion string) *Pipeline {
	return &Pipeline{
		Registry:      registry,
		Tables:        tables,
		Executors:     executors,
		MemoryStore:   memoryStore,
		AuditStore:    auditStore,
		EngineVersion: engineVersion,
	}
}

// Run executes one decision end to end (§4.4 run(request)).
func (p *Pipeline) Run(req stages.Request) (audit.DecisionResponse, error) {
	start := time.Now()

	sc, hash, err := p.Registry.Get(req.ScenarioID, "latest")
	if err != nil {
		return audit.DecisionResponse{}, apperr.New(apperr.KindInvalidScenario, err.Error())
	}

	env := envelope.New(sc.ScenarioID, sc.Version, hash)
	sctx := stages.Context{
		Scenario:    sc,
		Tables:      p.Tables,
		Executors:   p.Executors,
		MemoryStore: p.MemoryStore,
		AuditStore:  p.AuditStore,
		Now:         time.Now(),
	}

	artifacts := map[string]any{}

	t1 := time.Now()
	ingest, err := stages.Ingest(sctx, req)
	env = env.WithStageTiming(timing(1, "ingest", t1))
	if err != nil {
		return audit.DecisionResponse{}, err
	}
	artifacts["ingest"] = ingest
	env.Ingest = ingest

	t2 := time.Now()
	state, err := stages.DeriveState(sctx, ingest)
	env = env.WithStageTiming(timing(2, "derive_state", t2))
	if err != nil {
		return audit.DecisionResponse{}, err
	}
	artifacts["state"] = state
	env.State = state

	t3 := time.Now()
	guardrails, err := stages.EvaluateGuardrails(sctx, ingest, state)
	env = env.WithStageTiming(timing(3, "evaluate_guardrails", t3))
	if err != nil {
		return audit.DecisionResponse{}, err
	}
	artifacts["guardrails"] = guardrails
	env.Guardrails = guardrails

	t4 := time.Now()
	env, err = stages.ScoreAndRank(sctx, env, ingest, state, guardrails)
	env = env.WithStageTiming(timing(4, "score_and_rank", t4))
	if err != nil {
		return audit.DecisionResponse{}, err
	}

	t5 := time.Now()
	resolution, err := stages.ResolveSkills(sctx, env, guardrails, ingest.Options)
	env = env.WithStageTiming(timing(5, "resolve_skills", t5))
	if err != nil {
		return audit.DecisionResponse{}, err
	}
	artifacts["skill_resolution"] = resolution
	env.SkillResolution = resolution

	fallbackTriggered := false
	fallbackReason := ""

	t6 := time.Now()
	skillExec, execErr := stages.ExecuteSkill(sctx, env, state, guardrails, resolution)
	env = env.WithStageTiming(timing(6, "execute_skill", t6))
	if execErr != nil {
		fallbackTriggered = true
		fallbackReason = reasonCode(execErr)
	} else {
		artifacts["skill_execution"] = skillExec
		env.SkillExecution = skillExec
	}

	var validation envelope.ValidationArtifact
	if !fallbackTriggered {
		t7 := time.Now()
		validation = stages.ValidateOutput(env, skillExec, p.Tables)
		env = env.WithStageTiming(timing(7, "validate_output", t7))
		artifacts["validation"] = validation
		env.Validation = validation
		if !validation.Passed {
			fallbackTriggered = true
			if validation.FirstFailure != nil {
				fallbackReason = validation.FirstFailure.CheckID
			}
		}
	}

	t8 := time.Now()
	fallback := stages.Fallback(env, state, fallbackTriggered, fallbackReason)
	env = env.WithStageTiming(timing(8, "fallback", t8))
	env.Fallback = fallback
	if fallbackTriggered {
		artifacts["fallback"] = fallback
	}

	payload, validationStatus := skillExec.Payload, "passed"
	if fallbackTriggered {
		payload, validationStatus = fallback.Payload, "failed"
	}

	response := buildResponse(env, state, guardrails, resolution, payload, validationStatus, fallbackTriggered, fallbackReason, req.Options)
	response.Meta.StageDurationsMs = stageDurations(env)

	totalDuration := time.Since(start).Milliseconds()
	response.Meta.TotalDurationMs = totalDuration

	t9 := time.Now()
	auditArtifact, response, err := stages.AuditAndReplay(sctx, env, req, artifacts, response, totalDuration, p.EngineVersion)
	env = env.WithStageTiming(timing(9, "audit_and_replay", t9))
	if err != nil {
		return audit.DecisionResponse{}, err
	}
	artifacts["audit"] = auditArtifact
	env.Audit = auditArtifact

	return response, nil
}

func timing(stage int, name string, start time.Time) envelope.StageTiming {
	return envelope.StageTiming{Stage: stage, Name: name, StartedAt: start, EndedAt: time.Now()}
}

func stageDurations(env envelope.Envelope) map[string]int64 {
	out := make(map[string]int64, len(env.StageTimings))
	for _, t := range env.StageTimings {
		out[t.Name] = t.Duration().Milliseconds()
	}
	return out
}

// reasonCode extracts a stable reason string from a stage error: the
// apperr Kind for engine errors, or the raw message otherwise.
func reasonCode(err error) string {
	var appErr *apperr.Error
	if as(err, &appErr) {
		return string(appErr.Kind)
	}
	return err.Error()
}

func as(err error, target **apperr.Error) bool {
	e, ok := err.(*apperr.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
