package radar

import (
	"math"
)

// effectiveRadius is the 4/3 earth radius model used for beam propagation
// under standard atmospheric refraction (Doviak and Zrnic 1993), in metres.
const effectiveRadius = 4.0 / 3.0 * 6371.0 * 1000.0

// GateHeight returns the height above the antenna of a gate at slant range r
// (metres) and elevation angle el (degrees), using the 4/3 earth model.
func GateHeight(r, el float64) float64 {
	theta := el * math.Pi / 180.0
	return math.Sqrt(r*r+effectiveRadius*effectiveRadius+2*r*effectiveRadius*math.Sin(theta)) -
		effectiveRadius
}

// GroundRange returns the great-circle surface distance (metres) to the gate
// at slant range r and elevation el, i.e. the arc length below the beam.
func GroundRange(r, el float64) float64 {
	theta := el * math.Pi / 180.0
	z := GateHeight(r, el)
	return effectiveRadius * math.Asin(r*math.Cos(theta)/(effectiveRadius+z))
}

// sweepHeights computes per-range-bin gate heights (m ASL) for a sweep.
// Height depends only on range and elevation, not azimuth.
func sweepHeights(s *Sweep, radarAltitude float64) []float64 {
	h := make([]float64, len(s.Ranges))
	for i, r := range s.Ranges {
		h[i] = GateHeight(r, s.Elevation) + radarAltitude
	}
	return h
}

// TemperatureAt estimates the ambient temperature (degC) at height z m ASL by
// linear interpolation through the 0 degC and -20 degC sounding levels. The
// profile is extrapolated linearly outside the two levels, which matches the
// near-constant lapse rate of the hail growth layer.
func (l Levels) TemperatureAt(z float64) float64 {
	if !l.Valid() {
		return math.NaN()
	}
	return -20.0 * (z - l.FreezingHeight) / (l.Neg20Height - l.FreezingHeight)
}

// EnsureGeometry attaches gate_height and temperature fields to every sweep
// that lacks them. Heights come from the 4/3 earth beam model; temperatures
// from the sounding levels. Sweeps that already carry either field (e.g. from
// an upstream sounding interpolation) are left untouched.
func (v *Volume) EnsureGeometry() {
	for _, s := range v.Sweeps {
		naz, nr := s.Dims()
		heights := sweepHeights(s, v.Altitude)

		if !s.HasField(FieldGateHeight) {
			f := s.NewField("m", "Gate height above sea level")
			for az := 0; az < naz; az++ {
				copy(f.Data[az*nr:(az+1)*nr], heights)
			}
			s.AddField(FieldGateHeight, f)
		}

		if !s.HasField(FieldTemperature) && v.Levels != nil {
			f := s.NewField("degrees C", "Interpolated sounding temperature")
			for i := 0; i < nr; i++ {
				t := v.Levels.TemperatureAt(heights[i])
				for az := 0; az < naz; az++ {
					f.Data[az*nr+i] = t
				}
			}
			s.AddField(FieldTemperature, f)
		}
	}
}
