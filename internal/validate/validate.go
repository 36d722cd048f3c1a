// Package validate implements the four-phase output validator (§4.5 S7,
// §4.7 invariant 1): schema, invariants, authority boundary, and
// prohibitions. Any phase failure is reported through Result so Stage 7 can
// force a fallback — this package never itself decides what happens next.
package validate

import (
	"fmt"

	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/governance"
)

// prohibitedSelectionKeys are the keys a skill payload must never contain
// (§4.5 S6, S7 phase 2) — emitting one means the skill is trying to alter
// or comment on the locked selection.
var prohibitedSelectionKeys = map[string]bool{
	"selected_action":    true,
	"recommended_action": true,
	"alternative_action": true,
	"action_choice":      true,
}

const maxTokenCount = 500
const minRationaleLen = 5
const maxRationaleLen = 500

// SkillOutput is the subset of a skill's execution result the validator
// inspects.
type SkillOutput struct {
	Payload    map[string]any
	Metadata   map[string]any
	TokenCount int
}

// Input bundles everything Run needs.
type Input struct {
	Output          SkillOutput
	SelectionLocked bool
	Tables          *governance.Tables
}

// Result is the validator's composite outcome (§3 envelope "validation").
type Result struct {
	Phases       []envelope.PhaseResult
	FirstFailure *envelope.PhaseResult
	Passed       bool
}

// Run executes all four phases in order and returns the composite result.
// All four phases always run (so operators see every violation), but the
// reported FirstFailure prioritizes an authority-boundary violation ahead
// of any other category, per §4.5 S7's "operators see the highest-severity
// category first".
func Run(in Input) Result {
	schema := runSchema(in.Output)
	invariants := runInvariants(in)
	authority := runAuthority(in)
	prohibitions := runProhibitions(in)

	phases := []envelope.PhaseResult{schema, invariants, authority, prohibitions}

	res := Result{Phases: phases, Passed: true}
	for _, p := range phases {
		if !p.Passed {
			res.Passed = false
			break
		}
	}
	if res.Passed {
		return res
	}

	if !authority.Passed {
		ff := authority
		res.FirstFailure = &ff
		return res
	}
	for _, p := range []envelope.PhaseResult{schema, invariants, prohibitions} {
		if !p.Passed {
			ff := p
			res.FirstFailure = &ff
			return res
		}
	}
	return res
}

func runSchema(out SkillOutput) envelope.PhaseResult {
	if out.Payload == nil {
		return fail("schema", "SCHEMA-missing-payload", "skill output is missing required field \"payload\"")
	}
	if out.Metadata == nil {
		return fail("schema", "SCHEMA-missing-metadata", "skill output is missing required field \"metadata\"")
	}
	if rationale, ok := out.Payload["rationale"]; ok {
		s, isString := rationale.(string)
		if !isString || len(s) < minRationaleLen || len(s) > maxRationaleLen {
			return fail("schema", "SCHEMA-rationale-length",
				fmt.Sprintf("rationale must be a string of length [%d,%d]", minRationaleLen, maxRationaleLen))
		}
	}
	return pass("schema")
}

func runInvariants(in Input) envelope.PhaseResult {
	if !in.SelectionLocked {
		return fail("invariants", "INVARIANT-selection-not-locked", "selection must be locked before validating skill output")
	}
	if key, found := findProhibitedKey(in.Output.Payload); found {
		return fail("invariants", "INVARIANT-prohibited-key", fmt.Sprintf("payload contains prohibited selection key %q", key))
	}
	if in.Output.TokenCount > maxTokenCount {
		return fail("invariants", "INVARIANT-token-count", fmt.Sprintf("token_count %d exceeds limit %d", in.Output.TokenCount, maxTokenCount))
	}
	return pass("invariants")
}

func findProhibitedKey(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for k, val := range m {
		if prohibitedSelectionKeys[k] {
			return k, true
		}
		if key, found := findProhibitedKey(val); found {
			return key, true
		}
	}
	return "", false
}

func runAuthority(in Input) envelope.PhaseResult {
	text := extractStrings(in.Output.Payload)
	if in.Tables == nil || in.Tables.Authority == nil {
		return pass("authority")
	}
	violations := in.Tables.Authority.Scan(text)
	if len(violations) == 0 {
		return pass("authority")
	}
	v := violations[0]
	return fail("authority", v.CheckID, v.Description)
}

func runProhibitions(in Input) envelope.PhaseResult {
	text := extractStrings(in.Output.Payload)
	if in.Tables == nil || in.Tables.Prohibition == nil {
		return pass("prohibitions")
	}
	violations := in.Tables.Prohibition.Scan(text)
	if len(violations) == 0 {
		return pass("prohibitions")
	}
	v := violations[0]
	return fail("prohibitions", v.CheckID, v.Description)
}

// extractStrings recursively concatenates every string value found in v,
// space-separated, for pattern scanning (§4.5 S7 phases 3-4).
func extractStrings(v any) string {
	var out string
	switch t := v.(type) {
	case string:
		out = t
	case map[string]any:
		for _, val := range t {
			if s := extractStrings(val); s != "" {
				out += " " + s
			}
		}
	case []any:
		for _, val := range t {
			if s := extractStrings(val); s != "" {
				out += " " + s
			}
		}
	}
	return out
}

func pass(phase string) envelope.PhaseResult {
	return envelope.PhaseResult{Phase: phase, Passed: true}
}

func fail(phase, checkID, detail string) envelope.PhaseResult {
	return envelope.PhaseResult{Phase: phase, Passed: false, CheckID: checkID, Detail: detail}
}
