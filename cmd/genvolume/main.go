// Command genvolume generates a synthetic supercell radar volume fixture for
// the retrieval test suites and for local pipeline runs. The volume carries a
// reflectivity core with the dual-pol signature of a hail shaft (high Z, near
// zero Zdr, depressed rho-hv) embedded in stratiform rain, so every retrieval
// produces a nonzero signal on it.
//
// Usage:
//
//	go run ./cmd/genvolume -out data/mock/supercell_volume.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

var scanTime = time.Date(2024, time.April, 26, 21, 30, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the volume JSON fixture")
	sweeps := flag.Int("sweeps", 8, "number of elevation sweeps")
	azimuths := flag.Int("azimuths", 36, "azimuth rays per sweep")
	gates := flag.Int("gates", 60, "range gates per ray")
	band := flag.String("band", "S", "radar band (S or C)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	vol := BuildVolume(*sweeps, *azimuths, *gates, *band)

	payload, err := json.MarshalIndent(vol, "", " ")
	if err != nil {
		return fmt.Errorf("marshal volume: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	log.Printf("wrote %s: %d sweeps, %d rays, %d gates (%d bytes)",
		*out, *sweeps, *azimuths, *gates, len(payload))
	return nil
}

// BuildVolume assembles the synthetic volume. The hail core sits due north
// at 40 km ground range; its reflectivity peaks near 62 dBZ at the surface
// and weakens with height above the -20 degC level.
func BuildVolume(nSweeps, nAz, nGates int, band string) *radar.Volume {
	vol := &radar.Volume{
		ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte("genvolume-supercell")).String(),
		RadarID:   "KTLX",
		Band:      band,
		Time:      scanTime,
		Latitude:  35.333,
		Longitude: -97.278,
		Altitude:  370,
		Levels:    &radar.Levels{FreezingHeight: 3200, Neg20Height: 6400},
	}

	for s := 0; s < nSweeps; s++ {
		elevation := 0.5 + 1.5*float64(s)
		sweep := &radar.Sweep{
			Elevation: elevation,
			Azimuths:  make([]float64, nAz),
			Ranges:    make([]float64, nGates),
			Fields:    make(map[string]*radar.Field),
		}
		for a := 0; a < nAz; a++ {
			sweep.Azimuths[a] = float64(a) * 360.0 / float64(nAz)
		}
		for g := 0; g < nGates; g++ {
			sweep.Ranges[g] = 2000.0 * float64(g+1)
		}

		zh := make([]float64, nAz*nGates)
		zdr := make([]float64, nAz*nGates)
		kdp := make([]float64, nAz*nGates)
		rhv := make([]float64, nAz*nGates)

		for a := 0; a < nAz; a++ {
			for g := 0; g < nGates; g++ {
				i := a*nGates + g
				height := radar.GateHeight(sweep.Ranges[g], elevation) + vol.Altitude
				core := coreIntensity(sweep.Azimuths[a], sweep.Ranges[g], height)

				switch {
				case core > 0.05:
					// Hail shaft: high Z, Zdr collapsing toward zero,
					// depressed correlation.
					zh[i] = 30 + 32*core
					zdr[i] = 2.0 - 1.9*core
					kdp[i] = 1.2 - 0.9*core
					rhv[i] = 0.995 - 0.05*core
				case height > vol.Levels.Neg20Height+2000:
					// Above the storm: no echo.
					zh[i] = math.NaN()
					zdr[i] = math.NaN()
					kdp[i] = math.NaN()
					rhv[i] = math.NaN()
				default:
					// Stratiform rain background.
					zh[i] = 22 + 6*math.Sin(float64(i))
					zdr[i] = 0.8 + 0.4*math.Cos(float64(g))
					kdp[i] = 0.3
					rhv[i] = 0.99
				}
			}
		}

		sweep.AddField(radar.FieldReflectivity, &radar.Field{Units: "dBZ", LongName: "Reflectivity", Data: zh})
		sweep.AddField(radar.FieldDifferentialRefl, &radar.Field{Units: "dB", LongName: "Differential reflectivity", Data: zdr})
		sweep.AddField(radar.FieldSpecificPhase, &radar.Field{Units: "deg/km", LongName: "Specific differential phase", Data: kdp})
		sweep.AddField(radar.FieldCrossCorrelation, &radar.Field{Units: "unitless", LongName: "Cross correlation ratio", Data: rhv})
		vol.Sweeps = append(vol.Sweeps, sweep)
	}
	return vol
}

// coreIntensity returns the hail-core weight in [0,1] for a gate: a Gaussian
// in azimuth and ground range around (0 deg, 40 km), fading above 9 km so
// the storm has a finite echo top.
func coreIntensity(azimuth, slantRange, height float64) float64 {
	azDist := math.Abs(math.Mod(azimuth+180, 360) - 180) // degrees from north
	rangeDist := (slantRange - 40000) / 6000
	w := math.Exp(-(azDist*azDist)/50) * math.Exp(-rangeDist*rangeDist)
	if height > 9000 {
		w *= math.Max(0, 1-(height-9000)/3000)
	}
	return w
}
