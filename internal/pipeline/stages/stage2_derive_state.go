package stages

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"

	"github.com/adecorp/ade/internal/envelope"
	"github.com/adecorp/ade/internal/expr"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/scenario"
)

// DeriveState is Stage 2 (§4.5 S2): evaluate core dimensions in
// schema-declared (topological) order, then scenario extensions, then hash
// the inputs for replay determinism checks.
func DeriveState(ctx Context, ingest envelope.IngestArtifact) (envelope.StateArtifact, error) {
	coreOrder, err := scenario.TopologicalOrder(ctx.Scenario.StateSchema.CoreDimensions)
	if err != nil {
		return envelope.StateArtifact{}, err
	}
	extOrder, err := scenario.TopologicalOrder(ctx.Scenario.StateSchema.ScenarioDimensions)
	if err != nil {
		return envelope.StateArtifact{}, err
	}

	platform := stringFromAny(ingest.Context["platform"])
	if platform == "" {
		platform = "default"
	}
	memFlat := loadMemoryFlat(ctx, platform, ingest.UserID)

	core := map[string]any{}
	for _, dim := range coreOrder {
		core[dim.Name] = evaluateDimension(dim, ingest, core, nil, memFlat)
	}
	extensions := map[string]any{}
	for _, dim := range extOrder {
		extensions[dim.Name] = evaluateDimension(dim, ingest, core, extensions, memFlat)
	}

	inputsHash, err := hashInputs(ingest.Signals, ingest.Context)
	if err != nil {
		return envelope.StateArtifact{}, err
	}

	return envelope.StateArtifact{
		Core:                  core,
		ScenarioExtensions:    extensions,
		ExecutionCapabilities: map[string]any{},
		InputsHash:            inputsHash,
	}, nil
}

func loadMemoryFlat(ctx Context, platform, userID string) map[string]expr.Value {
	if ctx.MemoryStore == nil {
		return nil
	}
	entry, ok := ctx.MemoryStore.Get(platform, userID)
	if !ok {
		return nil
	}
	return mapToValues(memory.Flatten(entry))
}

// evaluateDimension computes one dimension's value per its declared source
// (§4.5 S2). Unavailable dependencies fall back to the declared default.
func evaluateDimension(dim scenario.DimensionDef, ingest envelope.IngestArtifact, core, extensions map[string]any, memFlat map[string]expr.Value) any {
	switch dim.Derivation.Source {
	case scenario.SourceSignal:
		raw, ok := ingest.Signals[dim.Name]
		if !ok {
			return dim.Default
		}
		return storeValue(dim, anyToValue(raw))
	case scenario.SourceContext:
		raw, ok := ingest.Context[dim.Name]
		if !ok {
			return dim.Default
		}
		return storeValue(dim, anyToValue(raw))
	case scenario.SourceMemory:
		v, ok := memFlat[dim.Name]
		if !ok {
			return dim.Default
		}
		return storeValue(dim, v)
	case scenario.SourceComputed:
		resolver := expr.MapResolver{
			StateCore:       mapToValues(core),
			StateExtensions: mapToValues(extensions),
			Signals:         mapToValues(ingest.Signals),
			Context:         mapToValues(ingest.Context),
			Memory:          memFlat,
		}
		fallback := anyToValue(dim.Default)
		v := expr.EvalFormula(dim.Derivation.Formula, resolver, fallback)
		return storeValue(dim, v)
	default:
		return dim.Default
	}
}

// storeValue converts an evaluated expr.Value back into the Go value the
// state map stores, applying the dimension's declared clamp for numeric
// types.
func storeValue(dim scenario.DimensionDef, v expr.Value) any {
	switch dim.Type {
	case scenario.TypeBoolean:
		return v.Truthy()
	case scenario.TypeString:
		if v.Kind == expr.VString {
			return v.Str
		}
		return fmt.Sprintf("%v", v.Num)
	case scenario.TypeInteger:
		n := valueAsNumber(v, numberFromAny(dim.Default, 0))
		n = clampFloat(n, dim.Min, dim.Max)
		return math.Round(n)
	default: // float
		n := valueAsNumber(v, numberFromAny(dim.Default, 0))
		return clampFloat(n, dim.Min, dim.Max)
	}
}

// hashInputs produces a stable hash of the signals/context inputs that fed
// derivation (§3 "inputs_hash"). encoding/json sorts map[string]any keys,
// so the digest is stable under key-order permutation of the source maps.
func hashInputs(signals, context map[string]any) (string, error) {
	raw, err := json.Marshal(struct {
		Signals map[string]any `json:"signals"`
		Context map[string]any `json:"context"`
	}{signals, context})
	if err != nil {
		return "", fmt.Errorf("stages: hash inputs: %w", err)
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("sha256:%x", sum), nil
}
