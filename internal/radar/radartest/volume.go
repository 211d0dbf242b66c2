// Package radartest builds small synthetic volumes for tests. The volumes
// are tiny (a few rays, a few gates) but carry the full dual-pol field set
// and a hail core strong enough to light up every retrieval.
package radartest

import (
	"math"
	"time"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// ScanTime is the fixed scan time of test volumes.
var ScanTime = time.Date(2024, time.April, 26, 21, 30, 0, 0, time.UTC)

// HailVolume returns a 3-sweep, 4-ray, 12-gate S-band volume whose first ray
// holds a hail core (55 dBZ, 0.5 dB Zdr, 0.98 rho-hv) from 24 to 40 km,
// against a 25 dBZ rain background. Lowest-sweep gates start past the 10 km
// surface-range cutoff so MESH covers the whole grid.
func HailVolume() *radar.Volume {
	const (
		nAz    = 4
		nGates = 12
	)
	vol := &radar.Volume{
		ID:        "vol-test-1",
		RadarID:   "KTLX",
		Band:      "S",
		Time:      ScanTime,
		Latitude:  35.333,
		Longitude: -97.278,
		Altitude:  370,
		Levels:    &radar.Levels{FreezingHeight: 3200, Neg20Height: 6400},
	}

	for _, elevation := range []float64{0.5, 4.0, 8.0} {
		sweep := &radar.Sweep{
			Elevation: elevation,
			Azimuths:  []float64{0, 90, 180, 270},
			Ranges:    make([]float64, nGates),
			Fields:    make(map[string]*radar.Field),
		}
		for g := 0; g < nGates; g++ {
			sweep.Ranges[g] = 12000 + 4000*float64(g)
		}

		zh := make([]float64, nAz*nGates)
		zdr := make([]float64, nAz*nGates)
		kdp := make([]float64, nAz*nGates)
		rhv := make([]float64, nAz*nGates)
		for a := 0; a < nAz; a++ {
			for g := 0; g < nGates; g++ {
				i := a*nGates + g
				if a == 0 && sweep.Ranges[g] >= 24000 && sweep.Ranges[g] <= 40000 {
					zh[i] = 55
					zdr[i] = 0.5
					kdp[i] = 1.0
					rhv[i] = 0.98
				} else {
					zh[i] = 25
					zdr[i] = 1.2
					kdp[i] = 0.3
					rhv[i] = 0.99
				}
			}
		}
		sweep.AddField(radar.FieldReflectivity, &radar.Field{Units: "dBZ", Data: zh})
		sweep.AddField(radar.FieldDifferentialRefl, &radar.Field{Units: "dB", Data: zdr})
		sweep.AddField(radar.FieldSpecificPhase, &radar.Field{Units: "deg/km", Data: kdp})
		sweep.AddField(radar.FieldCrossCorrelation, &radar.Field{Units: "unitless", Data: rhv})
		vol.Sweeps = append(vol.Sweeps, sweep)
	}
	return vol
}

// AllNaNVolume returns a single-ray volume where every measurement is NaN.
func AllNaNVolume() *radar.Volume {
	vol := HailVolume()
	for _, sweep := range vol.Sweeps {
		for _, f := range sweep.Fields {
			for i := range f.Data {
				f.Data[i] = math.NaN()
			}
		}
	}
	return vol
}
