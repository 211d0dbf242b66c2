package hsda

import "math"

// GateInput holds one gate's observed variable values. NaN marks a missing
// measurement; missing variables drop out of the weighted mean rather than
// contributing a fabricated zero.
type GateInput struct {
	ZH   float64 // reflectivity, dBZ
	ZDR  float64 // differential reflectivity, dB
	KDP  float64 // specific differential phase, deg/km
	RHV  float64 // co-polar correlation
	Temp float64 // ambient temperature, degC
}

func (g GateInput) value(v Variable) float64 {
	switch v {
	case VarReflectivity:
		return g.ZH
	case VarDifferentialRefl:
		return g.ZDR
	case VarSpecificPhase:
		return g.KDP
	case VarCrossCorrelation:
		return g.RHV
	case VarTemperature:
		return g.Temp
	default:
		return math.NaN()
	}
}

// variableOrder fixes the summation order for scoreClass. Float addition is
// not associative, so iterating the membership map directly would make scores
// drift by an ulp between runs and break exact-equality tie comparisons.
var variableOrder = []Variable{
	VarReflectivity,
	VarDifferentialRefl,
	VarSpecificPhase,
	VarCrossCorrelation,
	VarTemperature,
}

// scoreClass aggregates the gate's membership in one class: the weighted mean
// of the per-variable membership degrees over the variables actually
// measured. A gate with no usable variable for the class scores NaN.
func scoreClass(cls *ClassSpec, weights map[Variable]float64, g GateInput) float64 {
	var sum, weightTotal float64
	for _, v := range variableOrder {
		tr, ok := cls.Membership[v]
		if !ok {
			continue
		}
		x := g.value(v)
		if math.IsNaN(x) {
			continue
		}
		w := weights[v]
		sum += w * tr.Evaluate(x)
		weightTotal += w
	}
	if weightTotal == 0 {
		return math.NaN()
	}
	return sum / weightTotal
}
