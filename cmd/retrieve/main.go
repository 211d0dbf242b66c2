// Command retrieve runs the hail retrievals over a volume JSON file without
// Kafka, for offline analysis and fixture inspection. It prints a per-phase
// summary (classification census, HDR and MESH maxima) and writes the
// enriched volume when -out is given.
//
// Usage:
//
//	go run ./cmd/retrieve \
//	  -volume data/mock/supercell_volume.json \
//	  -out /tmp/supercell_enriched.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hdr"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hsda"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/mesh"
)

// phase tracks pass/fail for one retrieval phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	volumePath := flag.String("volume", "", "path to a volume JSON file")
	outPath := flag.String("out", "", "optional path for the enriched volume JSON")
	band := flag.String("band", "", "membership-table band override (defaults to the volume's band)")
	tablePath := flag.String("hsda-table", "", "optional JSON membership-table override")
	method := flag.String("mesh-method", string(mesh.MethodMH201975), "MESH calibration: witt1998, mh2019_75, or mh2019_95")
	flag.Parse()

	if *volumePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*volumePath, *outPath, *band, *tablePath, *method); code != 0 {
		os.Exit(code)
	}
}

func run(volumePath, outPath, band, tablePath, method string) int {
	payload, err := os.ReadFile(volumePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read volume: %v\n", err)
		return 1
	}
	vol, err := radar.DecodeVolume(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	vol.EnsureGeometry()

	fmt.Println("=== Hail Retrieval Run ===")
	fmt.Printf("volume %s radar %s band %s: %d sweeps\n\n", vol.ID, vol.RadarID, vol.Band, len(vol.Sweeps))

	classifier, err := buildClassifier(vol, band, tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		runHSDA(classifier, vol),
		runHDR(vol),
		runMESH(vol, mesh.Method(method)),
	}

	failed := 0
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("       %s\n", e)
		}
	}

	if outPath != "" {
		enriched, err := json.MarshalIndent(vol, "", " ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: marshal enriched volume: %v\n", err)
			return 1
		}
		if err := os.WriteFile(outPath, enriched, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write enriched volume: %v\n", err)
			return 1
		}
		fmt.Printf("\nwrote enriched volume to %s\n", outPath)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func buildClassifier(vol *radar.Volume, band, tablePath string) (*hsda.Classifier, error) {
	if tablePath != "" {
		table, err := hsda.LoadConfig(tablePath)
		if err != nil {
			return nil, err
		}
		return hsda.NewClassifier(table)
	}
	if band == "" {
		band = vol.Band
	}
	return hsda.NewClassifier(hsda.DefaultConfig(band))
}

func runHSDA(classifier *hsda.Classifier, vol *radar.Volume) *phase {
	p := &phase{name: "HSDA classification"}
	if err := classifier.ClassifyVolume(context.Background(), vol); err != nil {
		p.errorf("classify: %v", err)
		return p
	}

	census := map[string]int{}
	hailGates := 0
	classes := classifier.Config().Classes
	for _, sweep := range vol.Sweeps {
		labels := sweep.Fields[radar.FieldHailClass]
		mask := sweep.Fields[radar.FieldHailMask]
		for i, v := range labels.Data {
			name := "unclassified"
			if idx := int(v); idx > 0 && idx <= len(classes) {
				name = classes[idx-1].Name
			}
			census[name]++
			if mask.Data[i] == 1 {
				hailGates++
			}
		}
	}
	for name, n := range census {
		fmt.Printf("  %-14s %d gates\n", name, n)
	}
	fmt.Printf("  hail mask set on %d gates\n", hailGates)
	return p
}

func runHDR(vol *radar.Volume) *phase {
	p := &phase{name: "HDR"}
	if err := hdr.Compute(vol); err != nil {
		p.errorf("compute: %v", err)
		return p
	}
	fmt.Printf("  max HDR %.1f dB\n", fieldMax(vol, radar.FieldHDR))
	return p
}

func runMESH(vol *radar.Volume, method mesh.Method) *phase {
	p := &phase{name: "MESH"}
	opts := mesh.DefaultOptions()
	opts.Method = method
	if err := mesh.Compute(vol, opts); err != nil {
		p.errorf("compute: %v", err)
		return p
	}
	fmt.Printf("  max SHI %.1f J/m/s, max MESH %.1f mm, max POSH %.0f%%\n",
		fieldMax(vol, radar.FieldSHI), fieldMax(vol, radar.FieldMESH), fieldMax(vol, radar.FieldPOSH))
	return p
}

// fieldMax scans every sweep carrying the field and returns the largest
// finite value, or NaN when the field never appears.
func fieldMax(vol *radar.Volume, name string) float64 {
	maxVal := math.NaN()
	for _, sweep := range vol.Sweeps {
		f, ok := sweep.Fields[name]
		if !ok {
			continue
		}
		for _, v := range f.Data {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(maxVal) || v > maxVal {
				maxVal = v
			}
		}
	}
	return maxVal
}
