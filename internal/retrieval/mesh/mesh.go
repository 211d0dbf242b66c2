// Package mesh computes the Severe Hail Index, Maximum Expected Size of
// Hail, and Probability of Severe Hail of Witt et al. (1998), with the
// recalibrated size fits of Murillo and Homeyer (2019). SHI is a
// height-weighted integral of a reflectivity-derived hail kinetic-energy
// proxy over the vertical column between the melting level and the -20 degC
// level.
package mesh

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// Method selects the empirical SHI-to-size power law.
type Method string

const (
	// MethodWitt1998 is the original 75th percentile fit (147 reports).
	MethodWitt1998 Method = "witt1998"
	// MethodMH201975 is the Murillo-Homeyer 75th percentile fit (5897 reports).
	MethodMH201975 Method = "mh2019_75"
	// MethodMH201995 is the Murillo-Homeyer 95th percentile fit.
	MethodMH201995 Method = "mh2019_95"
)

// Rain/hail reflectivity boundaries (dBZ) for the kinetic-energy weight.
const (
	zLower = 40.0
	zUpper = 50.0
)

// ErrMissingLevels indicates the volume carries no usable sounding levels.
var ErrMissingLevels = errors.New("missing sounding levels")

// Options controls a MESH retrieval run.
type Options struct {
	Method Method
	// Surface-range gate: columns closer than MinRangeKM or farther than
	// MaxRangeKM from the radar are left as no-signal. Close columns sit in
	// the cone of silence, far ones have the beam overshooting the hail core.
	MinRangeKM float64
	MaxRangeKM float64
	// CorrectCBand applies the Brook et al. (2023) C-band hail reflectivity
	// correction before computing kinetic energy. Ignored at S band.
	CorrectCBand bool
}

// DefaultOptions returns the operational defaults.
func DefaultOptions() Options {
	return Options{
		Method:       MethodMH201975,
		MinRangeKM:   10,
		MaxRangeKM:   150,
		CorrectCBand: true,
	}
}

func (o Options) validate() error {
	switch o.Method {
	case MethodWitt1998, MethodMH201975, MethodMH201995:
	default:
		return fmt.Errorf("unknown MESH method %q", o.Method)
	}
	if o.MinRangeKM < 0 || o.MaxRangeKM <= o.MinRangeKM {
		return fmt.Errorf("invalid surface range gate [%g, %g] km", o.MinRangeKM, o.MaxRangeKM)
	}
	return nil
}

// correctCBandRefl is the Brook et al. (2023) hail reflectivity correction
// for C band (arXiv:2306.12016).
func correctCBandRefl(z float64) float64 {
	return z*1.113 - 3.929
}

// KineticEnergy returns the hail kinetic-energy flux proxy (J m^-2 s^-1) for
// a reflectivity value: E = 5e-6 * 10^(0.084 Z) * W(Z), where W ramps from 0
// at 40 dBZ to 1 at 50 dBZ to exclude liquid-only returns. NaN propagates.
func KineticEnergy(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	w := (z - zLower) / (zUpper - zLower)
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	// Physically implausible magnitudes are clamped, not rejected: a single
	// corrupt gate must not blow up the column integral.
	if z > 100 {
		z = 100
	}
	if z < -100 {
		z = -100
	}
	return 5.0e-6 * math.Pow(10, 0.084*z) * w
}

// heightWeight is the temperature-based weight: 0 at or below the melting
// level, 1 at or above the -20 degC level, linear between.
func heightWeight(z float64, levels radar.Levels) float64 {
	w := (z - levels.FreezingHeight) / (levels.Neg20Height - levels.FreezingHeight)
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Sample is one vertical-column sample: gate height (m ASL) and
// reflectivity (dBZ).
type Sample struct {
	Height       float64
	Reflectivity float64
}

// ColumnProfile is the ordered bottom-up sample sequence of one vertical
// column, built from the volume at query time and discarded afterwards.
type ColumnProfile []Sample

// SHI integrates the column: 0.1 * sum of Wt * E * dz over the samples, with
// dz from centered height differences. NaN samples and samples contributing
// nothing (below the melting level, or under the 40 dBZ energy floor) are
// skipped. A column with no contributing sample yields 0, not an error.
func SHI(profile ColumnProfile, levels radar.Levels) float64 {
	if !levels.Valid() {
		return 0
	}
	n := len(profile)
	var sum float64
	for i, s := range profile {
		if math.IsNaN(s.Reflectivity) || math.IsNaN(s.Height) {
			continue
		}
		wt := heightWeight(s.Height, levels)
		if wt <= 0 {
			continue
		}
		e := KineticEnergy(s.Reflectivity)
		if e <= 0 {
			continue
		}
		var dz float64
		switch {
		case n == 1:
			continue // a single sample has no vertical extent to integrate
		case i == 0:
			dz = profile[1].Height - s.Height
		case i == n-1:
			dz = s.Height - profile[n-2].Height
		default:
			dz = (profile[i+1].Height - profile[i-1].Height) / 2
		}
		if dz <= 0 || math.IsNaN(dz) {
			continue
		}
		sum += wt * e * dz
	}
	if sum <= 0 {
		return 0
	}
	return 0.1 * sum
}

// Size converts SHI (J m^-1 s^-1) into an expected maximum hail size in mm
// using the chosen calibration. Size(0) == 0 and Size is monotonically
// non-decreasing in SHI for every method.
func Size(shi float64, m Method) float64 {
	if math.IsNaN(shi) {
		return math.NaN()
	}
	if shi <= 0 {
		return 0
	}
	switch m {
	case MethodWitt1998:
		return 2.54 * math.Pow(shi, 0.5)
	case MethodMH201995:
		return 22.157 * math.Pow(shi, 0.212)
	default: // MethodMH201975
		return 15.096 * math.Pow(shi, 0.206)
	}
}

// Probability returns POSH, the probability of severe hail in percent:
// 29 * ln(SHI / WT) + 50, where the warning threshold WT depends on the
// melting level height in km. Clamped to [0, 100].
func Probability(shi, freezingHeightM float64) float64 {
	if math.IsNaN(shi) {
		return math.NaN()
	}
	wt := 57.5*(freezingHeightM/1000) - 121
	if shi <= 0 || wt <= 0 {
		return 0
	}
	p := 29*math.Log(shi/wt) + 50
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Compute runs the MESH retrieval over a volume: hail kinetic energy on
// every sweep, then SHI, MESH, and POSH on the lowest sweep's surface grid.
// Requires at least two sweeps (one sweep has no vertical column) and usable
// sounding levels.
func Compute(vol *radar.Volume, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if len(vol.Sweeps) < 2 {
		return errors.New("mesh: need more than one sweep to integrate a column")
	}
	if vol.Levels == nil || !vol.Levels.Valid() {
		return fmt.Errorf("mesh: %w", ErrMissingLevels)
	}
	levels := *vol.Levels
	vol.SortSweepsByElevation()

	correct := opts.CorrectCBand && vol.Band == "C"
	geo, err := newVolumeGeometry(vol)
	if err != nil {
		return err
	}

	// Hail kinetic energy per sweep.
	correctionNote := ""
	if correct {
		correctionNote = " C band hail reflectivity correction applied from Brook et al. 2023 arXiv:2306.12016."
	}
	for si, sweep := range vol.Sweeps {
		z := geo.refl[si]
		ke := make([]float64, sweep.NumGates())
		for i, v := range z.Data {
			zc := v
			if correct && !math.IsNaN(zc) {
				zc = correctCBandRefl(zc)
			}
			ke[i] = KineticEnergy(zc)
		}
		sweep.AddField(radar.FieldKineticEnergy, &radar.Field{
			Units:       "J m-2 s-1",
			LongName:    "Hail Kinetic Energy",
			Description: "Hail kinetic energy flux from Witt et al. (1998) doi:10.1175/1520-0434(1998)013<0286:AEHDAF>2.0.CO;2." + correctionNote,
			Data:        ke,
		})
	}

	surface := vol.Sweeps[0]
	naz, nr := surface.Dims()
	shi := surface.NewField("J m-1 s-1", "Severe Hail Index")
	size := surface.NewField("mm", "Maximum Expected Size of Hail")
	posh := surface.NewField("%", "Probability of Severe Hail")

	minRange := opts.MinRangeKM * 1000
	maxRange := opts.MaxRangeKM * 1000

	for az := 0; az < naz; az++ {
		for rg := 0; rg < nr; rg++ {
			i := az*nr + rg
			ground := geo.groundRange[0][rg]
			if ground < minRange || ground > maxRange {
				continue // leave NaN: outside the retrieval's valid surface range
			}
			profile := geo.column(az, rg, correct)
			v := SHI(profile, levels)
			shi.Data[i] = v
			size.Data[i] = Size(v, opts.Method)
			posh.Data[i] = Probability(v, levels.FreezingHeight)
		}
	}

	comment := "only valid in the lowest sweep"
	shi.Description = "Severe Hail Index from Witt et al. (1998); " + comment + "." + correctionNote
	size.Description = sizeDescription(opts.Method) + "; " + comment + "." + correctionNote
	posh.Description = "Probability of Severe Hail from Witt et al. (1998); " + comment + "." + correctionNote

	surface.AddField(radar.FieldSHI, shi)
	surface.AddField(radar.FieldMESH, size)
	surface.AddField(radar.FieldPOSH, posh)
	return nil
}

func sizeDescription(m Method) string {
	base := "Maximum Expected Size of Hail from Witt et al. (1998) doi:10.1175/1520-0434(1998)013<0286:AEHDAF>2.0.CO;2"
	switch m {
	case MethodWitt1998:
		return base + ", 75th percentile fit over 147 reports"
	case MethodMH201995:
		return base + " recalibrated by Murillo and Homeyer (2021) doi:10.1175/JAMC-D-20-0271.1, 95th percentile fit over 5897 reports"
	default:
		return base + " recalibrated by Murillo and Homeyer (2021) doi:10.1175/JAMC-D-20-0271.1, 75th percentile fit over 5897 reports"
	}
}

// volumeGeometry caches per-sweep gate heights, ground ranges, and the
// nearest-bin index mappings that align upper sweeps onto the lowest sweep's
// surface grid along each azimuth.
type volumeGeometry struct {
	refl        []*radar.Field
	heights     [][]float64 // [sweep][range bin], m ASL
	groundRange [][]float64 // [sweep][range bin], m
	rangeMap    [][]int     // [sweep][surface range bin] -> sweep range bin
	azMap       [][]int     // [sweep][surface az bin] -> sweep az bin
}

func newVolumeGeometry(vol *radar.Volume) (*volumeGeometry, error) {
	g := &volumeGeometry{
		refl:        make([]*radar.Field, len(vol.Sweeps)),
		heights:     make([][]float64, len(vol.Sweeps)),
		groundRange: make([][]float64, len(vol.Sweeps)),
		rangeMap:    make([][]int, len(vol.Sweeps)),
		azMap:       make([][]int, len(vol.Sweeps)),
	}
	for si, sweep := range vol.Sweeps {
		z, err := sweep.FieldOrErr(radar.FieldReflectivity)
		if err != nil {
			return nil, err
		}
		g.refl[si] = z
		g.heights[si] = make([]float64, len(sweep.Ranges))
		g.groundRange[si] = make([]float64, len(sweep.Ranges))
		for i, r := range sweep.Ranges {
			g.heights[si][i] = radar.GateHeight(r, sweep.Elevation) + vol.Altitude
			g.groundRange[si][i] = radar.GroundRange(r, sweep.Elevation)
		}
	}
	surface := vol.Sweeps[0]
	for si, sweep := range vol.Sweeps {
		g.rangeMap[si] = nearestBins(g.groundRange[0], g.groundRange[si])
		g.azMap[si] = nearestAzimuths(surface.Azimuths, sweep.Azimuths)
	}
	return g, nil
}

// column assembles the bottom-up (height, reflectivity) profile above the
// surface gate (az, rg), sampling each upper sweep at the nearest ground
// range along the nearest azimuth.
func (g *volumeGeometry) column(az, rg int, correct bool) ColumnProfile {
	profile := make(ColumnProfile, 0, len(g.refl))
	for si, z := range g.refl {
		ai := g.azMap[si][az]
		ri := g.rangeMap[si][rg]
		v := z.Data[ai*len(g.groundRange[si])+ri]
		if correct && !math.IsNaN(v) {
			v = correctCBandRefl(v)
		}
		profile = append(profile, Sample{Height: g.heights[si][ri], Reflectivity: v})
	}
	return profile
}

// nearestBins maps each target value to the index of the closest value in
// the sorted candidates slice.
func nearestBins(targets, candidates []float64) []int {
	out := make([]int, len(targets))
	for i, t := range targets {
		j := sort.SearchFloat64s(candidates, t)
		if j == len(candidates) {
			j--
		} else if j > 0 && t-candidates[j-1] < candidates[j]-t {
			j--
		}
		out[i] = j
	}
	return out
}

// nearestAzimuths maps each surface azimuth to the index of the angularly
// closest azimuth in the sweep, wrapping at 360.
func nearestAzimuths(surface, sweep []float64) []int {
	out := make([]int, len(surface))
	for i, a := range surface {
		best, bestDiff := 0, math.MaxFloat64
		for j, b := range sweep {
			d := math.Abs(math.Mod(a-b+540, 360) - 180)
			if d < bestDiff {
				best, bestDiff = j, d
			}
		}
		out[i] = best
	}
	return out
}
