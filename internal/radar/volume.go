package radar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Canonical input field names. Volumes arriving from the ingest service use
// these keys; retrievals look their inputs up by them.
const (
	FieldReflectivity     = "reflectivity"              // dBZ
	FieldDifferentialRefl = "differential_reflectivity" // dB
	FieldSpecificPhase    = "specific_differential_phase" // deg/km
	FieldCrossCorrelation = "cross_correlation_ratio"   // unitless
	FieldTemperature      = "temperature"               // degrees C
	FieldGateHeight       = "gate_height"               // m ASL
)

// Output field names added by the retrievals.
const (
	FieldHailClass     = "hail_class"
	FieldHailMask      = "hail_mask"
	FieldHDR           = "hail_differential_reflectivity"
	FieldKineticEnergy = "hail_kinetic_energy"
	FieldSHI           = "severe_hail_index"
	FieldMESH          = "mesh"
	FieldPOSH          = "posh"
)

// ErrMissingField indicates a retrieval input field is absent from a sweep.
var ErrMissingField = errors.New("missing field")

// Field is a named 2-D sweep field with values stored flat row-major:
// Data[az*NRange + rg] (azimuth-major, matching the wire layout).
type Field struct {
	Units       string    `json:"units,omitempty"`
	LongName    string    `json:"long_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Data        []float64 `json:"data"`
}

// Sweep is a single PPI: one fixed elevation angle, its azimuth and range
// vectors, and the named gate fields measured on the (azimuth, range) grid.
type Sweep struct {
	Elevation float64   `json:"elevation"` // degrees above horizontal
	Azimuths  []float64 `json:"azimuths"`  // degrees clockwise from north
	Ranges    []float64 `json:"ranges"`    // metres from the antenna

	Fields map[string]*Field `json:"fields"`
}

// Dims returns the (azimuth, range) grid dimensions.
func (s *Sweep) Dims() (naz, nrange int) {
	return len(s.Azimuths), len(s.Ranges)
}

// NumGates returns the total gate count of the sweep grid.
func (s *Sweep) NumGates() int {
	return len(s.Azimuths) * len(s.Ranges)
}

// HasField reports whether a named field is present with data.
func (s *Sweep) HasField(name string) bool {
	f, ok := s.Fields[name]
	return ok && f != nil && len(f.Data) > 0
}

// FieldOrErr returns a named field, or a wrapped ErrMissingField so callers
// can both errors.Is-match and see which field was absent.
func (s *Sweep) FieldOrErr(name string) (*Field, error) {
	if !s.HasField(name) {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return s.Fields[name], nil
}

// AddField attaches (or replaces) a named field on the sweep.
func (s *Sweep) AddField(name string, f *Field) {
	if s.Fields == nil {
		s.Fields = make(map[string]*Field)
	}
	s.Fields[name] = f
}

// NewField allocates a field of the sweep's grid size filled with NaN.
// NaN marks gates the producing retrieval never touched, so downstream
// consumers can tell "no data" from a real zero.
func (s *Sweep) NewField(units, longName string) *Field {
	data := make([]float64, s.NumGates())
	for i := range data {
		data[i] = math.NaN()
	}
	return &Field{Units: units, LongName: longName, Data: data}
}

// Levels holds the sounding-derived isotherm heights used by the retrievals.
// FreezingHeight is the 0 degC (melting level) height, Neg20Height the -20 degC
// height, both metres above sea level. Witt et al. (1998) weight the hail
// kinetic-energy integral between the two.
type Levels struct {
	FreezingHeight float64 `json:"freezing_height_m"`
	Neg20Height    float64 `json:"neg20_height_m"`
}

// Valid reports whether the levels are physically usable: both finite,
// positive, and the -20 degC level above the melting level.
func (l Levels) Valid() bool {
	if math.IsNaN(l.FreezingHeight) || math.IsNaN(l.Neg20Height) {
		return false
	}
	return l.FreezingHeight > 0 && l.Neg20Height > l.FreezingHeight
}

// Volume is one radar volume scan: an ordered set of sweeps plus the radar
// site metadata and sounding levels the retrievals need. The retrievals only
// read the input fields and attach new output fields via AddField.
type Volume struct {
	ID      string    `json:"id"`
	RadarID string    `json:"radar_id"`
	Band    string    `json:"band"` // "S" or "C"
	Time    time.Time `json:"time"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"` // radar antenna height, m ASL

	Levels *Levels `json:"levels,omitempty"`

	Sweeps []*Sweep `json:"sweeps"`
}

// SortSweepsByElevation orders sweeps from lowest to highest fixed angle.
// The vertical-column retrieval assumes this ordering.
func (v *Volume) SortSweepsByElevation() {
	for i := 1; i < len(v.Sweeps); i++ {
		for j := i; j > 0 && v.Sweeps[j].Elevation < v.Sweeps[j-1].Elevation; j-- {
			v.Sweeps[j], v.Sweeps[j-1] = v.Sweeps[j-1], v.Sweeps[j]
		}
	}
}

// Validate performs structural checks on a decoded volume: at least one
// sweep, consistent field lengths, and a known radar band.
func (v *Volume) Validate() error {
	if v.Band != "C" && v.Band != "S" {
		return fmt.Errorf("radar band must be C or S, got %q", v.Band)
	}
	if len(v.Sweeps) == 0 {
		return errors.New("volume has no sweeps")
	}
	for i, s := range v.Sweeps {
		if len(s.Azimuths) == 0 || len(s.Ranges) == 0 {
			return fmt.Errorf("sweep %d: empty azimuth or range vector", i)
		}
		want := s.NumGates()
		for name, f := range s.Fields {
			if f == nil {
				return fmt.Errorf("sweep %d: field %q is nil", i, name)
			}
			if len(f.Data) != want {
				return fmt.Errorf("sweep %d: field %q has %d values, grid has %d gates",
					i, name, len(f.Data), want)
			}
		}
	}
	return nil
}
