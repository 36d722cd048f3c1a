package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmeticAndParens(t *testing.T) {
	cases := []struct {
		formula string
		want    float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 0", 0},
		{"state.core.energy - 1", 4},
	}
	r := MapResolver{StateCore: map[string]Value{"energy": NumberValue(5)}}
	for _, tc := range cases {
		node, err := Parse(tc.formula)
		require.NoError(t, err, tc.formula)
		v, err := Eval(node, r)
		require.NoError(t, err, tc.formula)
		assert.Equal(t, tc.want, v.Num, tc.formula)
	}
}

func TestEvalComparisonAndLogical(t *testing.T) {
	r := MapResolver{
		Signals: map[string]Value{"interactions_7d": NumberValue(5)},
	}
	node, err := Parse(`signals.interactions_7d > 3 && signals.interactions_7d < 10`)
	require.NoError(t, err)
	v, err := Eval(node, r)
	require.NoError(t, err)
	assert.True(t, v.Truthy())
}

func TestEvalOrShortCircuitsOnFirstTrue(t *testing.T) {
	r := MapResolver{}
	node, err := Parse(`true || signals.missing > 1`)
	require.NoError(t, err)
	v, err := Eval(node, r)
	require.NoError(t, err)
	assert.True(t, v.Truthy())
}

func TestEvalNamedForms(t *testing.T) {
	r := MapResolver{StateCore: map[string]Value{"x": NumberValue(7)}}

	node, err := Parse(`if_else(state.core.x > 5, 1, 0)`)
	require.NoError(t, err)
	v, err := Eval(node, r)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.Num)

	node, err = Parse(`coalesce(state.core.missing, 0.5)`)
	require.NoError(t, err)
	v, err = Eval(node, r)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v.Num)

	node, err = Parse(`clamp(state.core.x, 0, 5)`)
	require.NoError(t, err)
	v, err = Eval(node, r)
	require.NoError(t, err)
	assert.Equal(t, float64(5), v.Num)
}

func TestEvalFormulaNeverErrors(t *testing.T) {
	fallback := NumberValue(0.5)

	// Malformed formula.
	v := EvalFormula(`state.core.x >`, MapResolver{}, fallback)
	assert.Equal(t, fallback, v)

	// Unresolved path.
	v = EvalFormula(`state.core.missing`, MapResolver{}, fallback)
	assert.Equal(t, fallback, v)
}

func TestClampSwapsInvertedBounds(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(10, 5, 3))
	assert.Equal(t, 4.0, Clamp(4, 3, 5))
}
