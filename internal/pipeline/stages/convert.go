package stages

import (
	"math"

	"github.com/adecorp/ade/internal/expr"
)

// anyToValue converts a JSON-decoded Go value (float64, bool, string, or
// an already-typed int) into an expr.Value for formula evaluation.
func anyToValue(v any) expr.Value {
	switch t := v.(type) {
	case float64:
		return expr.NumberValue(t)
	case int:
		return expr.NumberValue(float64(t))
	case int64:
		return expr.NumberValue(float64(t))
	case bool:
		return expr.BoolValue(t)
	case string:
		return expr.StringValue(t)
	default:
		return expr.NumberValue(0)
	}
}

func mapToValues(m map[string]any) map[string]expr.Value {
	out := make(map[string]expr.Value, len(m))
	for k, v := range m {
		out[k] = anyToValue(v)
	}
	return out
}

// valueAsNumber returns v's numeric interpretation, or fallback if v cannot
// be read as a number.
func valueAsNumber(v expr.Value, fallback float64) float64 {
	n, err := v.AsNumber()
	if err != nil {
		return fallback
	}
	return n
}

func numberFromAny(v any, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return valueAsNumber(anyToValue(v), fallback)
}

func boolFromAny(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "false" && t != "0"
	default:
		return false
	}
}

func stringFromAny(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// clampFloat restricts x to [lo, hi] when either bound is declared (a missing
// bound leaves that side unbounded), letting
// expr.Clamp handle an inverted range the same way dimension clamping does.
func clampFloat(x float64, min, max *float64) float64 {
	if min == nil && max == nil {
		return x
	}
	lo, hi := -math.MaxFloat64, math.MaxFloat64
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return expr.Clamp(x, lo, hi)
}
