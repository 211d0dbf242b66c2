package hsda

import (
	"encoding/json"
	"fmt"
	"math"
)

// Trapezoid is a fuzzy membership function defined by four ordered
// breakpoints x1 <= x2 <= x3 <= x4: zero outside (x1, x4), one on [x2, x3],
// linear ramps between. Serialized as a JSON array [x1, x2, x3, x4].
type Trapezoid struct {
	X1, X2, X3, X4 float64
}

// Evaluate returns the membership degree of v in [0, 1]. NaN input yields
// NaN, never zero: an unmeasured variable must not look like a confident
// non-match. Degenerate ramps (x1==x2 or x3==x4) behave as steps at the
// shared breakpoint.
func (t Trapezoid) Evaluate(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	switch {
	case v <= t.X1:
		// Degenerate left ramp: x1==x2 makes the plateau start here.
		if v == t.X1 && t.X1 == t.X2 {
			return 1
		}
		return 0
	case v < t.X2:
		return (v - t.X1) / (t.X2 - t.X1)
	case v <= t.X3:
		return 1
	case v < t.X4:
		return (t.X4 - v) / (t.X4 - t.X3)
	default:
		if v == t.X4 && t.X3 == t.X4 {
			return 1
		}
		return 0
	}
}

// Monotonic reports whether the breakpoints are non-decreasing. A trapezoid
// failing this is degenerate and must be rejected at table-load time.
func (t Trapezoid) Monotonic() bool {
	return t.X1 <= t.X2 && t.X2 <= t.X3 && t.X3 <= t.X4
}

func (t Trapezoid) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{t.X1, t.X2, t.X3, t.X4})
}

func (t *Trapezoid) UnmarshalJSON(b []byte) error {
	var pts []float64
	if err := json.Unmarshal(b, &pts); err != nil {
		return err
	}
	if len(pts) != 4 {
		return fmt.Errorf("trapezoid needs 4 breakpoints, got %d", len(pts))
	}
	t.X1, t.X2, t.X3, t.X4 = pts[0], pts[1], pts[2], pts[3]
	return nil
}
