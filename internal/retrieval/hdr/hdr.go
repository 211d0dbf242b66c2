// Package hdr computes the Hail Differential Reflectivity signal of
// Aydin et al. (1986): reflectivity in excess of a Zdr-dependent rain
// threshold. Values above roughly 21 dB indicate likely hail.
package hdr

import (
	"math"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// threshold is the piecewise-linear rain boundary f(Zdr) in dBZ.
func threshold(zdr float64) float64 {
	switch {
	case zdr <= 0:
		return 27
	case zdr <= 1.74:
		return 19*zdr + 27
	default:
		return 60
	}
}

// Gate computes HDR for one gate. NaN in either input propagates; finite
// inputs always yield a value >= 0.
func Gate(z, zdr float64) float64 {
	if math.IsNaN(z) || math.IsNaN(zdr) {
		return math.NaN()
	}
	h := z - threshold(zdr)
	if h < 0 {
		return 0
	}
	return h
}

// Compute attaches the HDR field to every sweep of the volume. Reflectivity
// and differential reflectivity must be present on each sweep.
func Compute(vol *radar.Volume) error {
	for _, sweep := range vol.Sweeps {
		z, err := sweep.FieldOrErr(radar.FieldReflectivity)
		if err != nil {
			return err
		}
		zdr, err := sweep.FieldOrErr(radar.FieldDifferentialRefl)
		if err != nil {
			return err
		}

		out := make([]float64, sweep.NumGates())
		for i := range out {
			out[i] = Gate(z.Data[i], zdr.Data[i])
		}
		sweep.AddField(radar.FieldHDR, &radar.Field{
			Units:       "dB",
			LongName:    "Hail Differential Reflectivity",
			Description: "Hail Differential Reflectivity developed by Aydin et al. (1986) doi:10.1175/1520-0450(1986)025<1475:RDOHWD>2.0.CO;2",
			Data:        out,
		})
	}
	return nil
}
