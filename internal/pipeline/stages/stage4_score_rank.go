package stages

import (
	"math"
	"sort"
	"strings"

	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/expr"
	"github.com/adecorp/ade/internal/scenario"
)

// tieEpsilon is the score gap below which two candidates are considered
// tied (§4.5 S4).
const tieEpsilon = 1e-3

type scoredAction struct {
	action    scenario.Action
	score     float64
	breakdown map[string]float64
}

// ScoreAndRank is Stage 4 (§4.5 S4): score every eligible action, rank by
// score with tie-breaking, and lock the selection. This is the only stage
// permitted to call LockSelection.
func ScoreAndRank(ctx Context, env envelope.Envelope, ingest envelope.IngestArtifact, state envelope.StateArtifact, guardrails envelope.GuardrailsArtifact) (envelope.Envelope, error) {
	if forced, ok := findForced(guardrails); ok {
		ranked := []envelope.RankedOption{{ActionID: forced.ActionID, Rank: 1, Score: 1.0, Breakdown: map[string]float64{}}}
		return env.LockSelection(forced.ActionID, ranked, 1.0)
	}

	scored := make([]scoredAction, 0, len(guardrails.EligibleActions))
	for _, action := range guardrails.EligibleActions {
		scored = append(scored, scoreAction(ctx, ingest, state, action))
	}

	breakers := ctx.Scenario.Scoring.TieBreakers
	sort.SliceStable(scored, func(i, j int) bool {
		if !tied(scored[i].score, scored[j].score) {
			return scored[i].score > scored[j].score
		}
		return tieBreakLess(scored[i].action, scored[j].action, breakers)
	})

	ranked := make([]envelope.RankedOption, len(scored))
	for i, s := range scored {
		ranked[i] = envelope.RankedOption{ActionID: s.action.ActionID, Rank: i + 1, Score: s.score, Breakdown: s.breakdown}
	}

	margin := 1.0
	if len(ranked) > 1 {
		margin = ranked[0].Score - ranked[1].Score
	}
	return env.LockSelection(ranked[0].ActionID, ranked, margin)
}

func findForced(guardrails envelope.GuardrailsArtifact) (scenario.Action, bool) {
	if guardrails.ForcedActionID == "" {
		return scenario.Action{}, false
	}
	for _, a := range guardrails.EligibleActions {
		if a.ActionID == guardrails.ForcedActionID || a.TypeID == guardrails.ForcedActionID {
			return a, true
		}
	}
	return scenario.Action{}, false
}

func scoreAction(ctx Context, ingest envelope.IngestArtifact, state envelope.StateArtifact, action scenario.Action) scoredAction {
	resolver := expr.MapResolver{
		StateCore:        mapToValues(state.Core),
		StateExtensions:  mapToValues(state.ScenarioExtensions),
		Signals:          mapToValues(ingest.Signals),
		Context:          mapToValues(ingest.Context),
		ActionAttributes: mapToValues(action.Attributes),
	}

	breakdown := map[string]float64{}
	weightedSum := 0.0
	for _, obj := range ctx.Scenario.Scoring.Objectives {
		v := expr.EvalFormula(obj.Formula, resolver, expr.NumberValue(0.5))
		n := expr.Clamp(valueAsNumber(v, 0.5), 0, 1)
		breakdown[obj.Name] = n
		weightedSum += n * obj.Weight
	}

	risk := ctx.Scenario.Scoring.ExecutionRisk
	if risk.Enabled {
		penalty := 0.0
		for _, factor := range risk.Factors {
			cond := expr.EvalFormula(factor.Condition, resolver, expr.BoolValue(false))
			if cond.Truthy() {
				penalty += factor.Penalty
			}
		}
		weightedSum -= expr.Clamp(penalty, 0, 1) * risk.Weight
	}

	return scoredAction{action: action, score: weightedSum, breakdown: breakdown}
}

func tied(a, b float64) bool {
	return math.Abs(a-b) < tieEpsilon
}

func tieBreakLess(a, b scenario.Action, breakers []scenario.TieBreaker) bool {
	for _, tb := range breakers {
		cmp := 0
		switch tb {
		case scenario.TieBreakActionIDAsc:
			cmp = strings.Compare(a.ActionID, b.ActionID)
		case scenario.TieBreakIntensityAsc:
			cmp = tieIntensity(a) - tieIntensity(b)
		case scenario.TieBreakDurationAsc:
			cmp = int(tieDuration(a) - tieDuration(b))
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return false
}

// tieIntensity treats a missing intensity attribute as 2 ("high") per the
// tie-breaker's own declared default (§4.5 S4) — deliberately different
// from cap_intensity's -1 default in stage 3, which must never block an
// action that declared no intensity at all.
func tieIntensity(a scenario.Action) int {
	ord := intensityOrdinal(stringFromAny(a.Attributes["intensity"]))
	if ord < 0 {
		return 2
	}
	return ord
}

func tieDuration(a scenario.Action) float64 {
	return numberFromAny(a.Attributes["duration_minutes"], 30)
}
