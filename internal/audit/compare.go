package audit

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
)

// scoreTolerance is the allowed absolute difference between ranked-option
// scores before they count as a critical divergence (§4.7).
const scoreTolerance = 1e-4

// ComparisonResult is the replay comparator's verdict (§4.7).
type ComparisonResult struct {
	DeterminismVerified bool
	CriticalDiffs       []string
	MinorDiffs          []string
}

// Compare partitions the fields of original and replay by criticality and
// reports whether determinism holds. Ignored fields (decision_id,
// trace_id, replay_token, request_id, timestamp, total_duration_ms) are
// never compared at all — they are expected to differ across a replay.
func Compare(original, replay DecisionResponse) ComparisonResult {
	var critical, minor []string

	if original.Decision.SelectedAction != replay.Decision.SelectedAction {
		critical = append(critical, "decision.selected_action")
	}
	if diff := diffRankedOptions(original.Decision.RankedOptions, replay.Decision.RankedOptions); diff != "" {
		critical = append(critical, "decision.ranked_options: "+diff)
	}
	if !sameStringSet(original.GuardrailsApplied, replay.GuardrailsApplied) {
		critical = append(critical, "guardrails_applied")
	}
	if !cmp.Equal(original.State.Core, replay.State.Core) {
		critical = append(critical, "state.core")
	}
	if !cmp.Equal(original.State.ScenarioExtensions, replay.State.ScenarioExtensions) {
		critical = append(critical, "state.scenario_extensions")
	}

	if !cmp.Equal(original.Decision.Payload, replay.Decision.Payload) {
		minor = append(minor, "decision.payload")
	}
	if original.Execution != replay.Execution {
		minor = append(minor, "execution")
	}
	if original.Audit.ScenarioID != replay.Audit.ScenarioID ||
		original.Audit.ScenarioVersion != replay.Audit.ScenarioVersion ||
		original.Audit.ScenarioHash != replay.Audit.ScenarioHash {
		minor = append(minor, "audit.scenario_identity")
	}
	if original.Meta.APIVersion != replay.Meta.APIVersion {
		minor = append(minor, "meta.api_version")
	}

	return ComparisonResult{
		DeterminismVerified: len(critical) == 0,
		CriticalDiffs:       critical,
		MinorDiffs:          minor,
	}
}

// diffRankedOptions compares action_id and rank exactly and score within
// scoreTolerance, returning a human-readable description of the first
// divergence found, or "" if none.
func diffRankedOptions(a, b []RankedOptionView) string {
	if len(a) != len(b) {
		return fmt.Sprintf("length %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ActionID != b[i].ActionID {
			return fmt.Sprintf("position %d: action_id %q != %q", i, a[i].ActionID, b[i].ActionID)
		}
		if a[i].Rank != b[i].Rank {
			return fmt.Sprintf("position %d: rank %d != %d", i, a[i].Rank, b[i].Rank)
		}
		if math.Abs(a[i].Score-b[i].Score) > scoreTolerance {
			return fmt.Sprintf("position %d: score %v != %v", i, a[i].Score, b[i].Score)
		}
	}
	return ""
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, s := range a {
		set[s]++
	}
	for _, s := range b {
		set[s]--
	}
	for _, count := range set {
		if count != 0 {
			return false
		}
	}
	return true
}
