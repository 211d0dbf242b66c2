package hsda

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrapezoidEvaluate(t *testing.T) {
	tr := Trapezoid{X1: 10, X2: 20, X3: 40, X4: 50}

	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{name: "below support", v: 5, want: 0},
		{name: "left foot", v: 10, want: 0},
		{name: "mid left ramp", v: 15, want: 0.5},
		{name: "plateau start", v: 20, want: 1},
		{name: "plateau middle", v: 30, want: 1},
		{name: "plateau end", v: 40, want: 1},
		{name: "mid right ramp", v: 45, want: 0.5},
		{name: "right foot", v: 50, want: 0},
		{name: "above support", v: 60, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tr.Evaluate(tt.v), 1e-12)
		})
	}
}

func TestTrapezoidEvaluateNaN(t *testing.T) {
	tr := Trapezoid{X1: 0, X2: 1, X3: 2, X4: 3}
	assert.True(t, math.IsNaN(tr.Evaluate(math.NaN())),
		"a missing measurement must score NaN, not zero")
}

func TestTrapezoidDegenerateSteps(t *testing.T) {
	t.Run("left step", func(t *testing.T) {
		tr := Trapezoid{X1: 5, X2: 5, X3: 10, X4: 12}
		assert.Equal(t, 0.0, tr.Evaluate(4.9))
		assert.Equal(t, 1.0, tr.Evaluate(5))
		assert.Equal(t, 1.0, tr.Evaluate(7))
	})
	t.Run("right step", func(t *testing.T) {
		tr := Trapezoid{X1: 0, X2: 2, X3: 10, X4: 10}
		assert.Equal(t, 1.0, tr.Evaluate(10))
		assert.Equal(t, 0.0, tr.Evaluate(10.1))
	})
	t.Run("point", func(t *testing.T) {
		// All four breakpoints equal: membership is a spike at that value.
		tr := Trapezoid{X1: 7, X2: 7, X3: 7, X4: 7}
		assert.Equal(t, 1.0, tr.Evaluate(7))
		assert.Equal(t, 0.0, tr.Evaluate(6.999))
		assert.Equal(t, 0.0, tr.Evaluate(7.001))
	})
}

func TestTrapezoidEvaluateRange(t *testing.T) {
	tr := Trapezoid{X1: -1.5, X2: 0, X3: 1, X4: 2.5}
	for v := -5.0; v <= 5.0; v += 0.05 {
		got := tr.Evaluate(v)
		require.GreaterOrEqual(t, got, 0.0, "v=%g", v)
		require.LessOrEqual(t, got, 1.0, "v=%g", v)
	}
}

func TestTrapezoidMonotonic(t *testing.T) {
	assert.True(t, Trapezoid{X1: 1, X2: 2, X3: 3, X4: 4}.Monotonic())
	assert.True(t, Trapezoid{X1: 1, X2: 1, X3: 1, X4: 1}.Monotonic())
	assert.False(t, Trapezoid{X1: 2, X2: 1, X3: 3, X4: 4}.Monotonic())
	assert.False(t, Trapezoid{X1: 1, X2: 2, X3: 5, X4: 4}.Monotonic())
}

func TestTrapezoidJSON(t *testing.T) {
	in := Trapezoid{X1: -0.5, X2: 0, X3: 1, X4: 2}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[-0.5, 0, 1, 2]`, string(data))

	var out Trapezoid
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTrapezoidJSONWrongLength(t *testing.T) {
	var tr Trapezoid
	err := json.Unmarshal([]byte(`[1, 2, 3]`), &tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 breakpoints")
}
