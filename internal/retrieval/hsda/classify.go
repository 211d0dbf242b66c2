// Package hsda implements a fuzzy-logic hail type classifier in the style of
// the Hail Size Discrimination Algorithm (Ortega et al. 2016): per-gate
// trapezoidal membership functions over the dual-pol variables, aggregated
// into per-class scores, argmax with a hail-first tie-break.
package hsda

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// Built-in class names. Override tables may define their own set; these are
// the vocabulary of the default calibrations.
const (
	ClassRain      = "rain"
	ClassHeavyRain = "heavy_rain"
	ClassGraupel   = "graupel"
	ClassSmallHail = "small_hail"
	ClassLargeHail = "large_hail"
	ClassGiantHail = "giant_hail"
)

// LabelUnclassified is the label code for gates no class claimed: all inputs
// missing, or the best score below the minimum.
const LabelUnclassified = 0

// Result is a single gate's classification.
type Result struct {
	Label int     // 0 = unclassified, otherwise 1-based index into Config.Classes
	Class string  // class name, "" when unclassified
	Hail  bool    // label belongs to the hail-class set
	Score float64 // winning score, NaN when no class was scorable
}

// Classifier applies a validated membership-table configuration gate by
// gate. It is stateless after construction and safe for concurrent use.
type Classifier struct {
	cfg *Config
}

// NewClassifier validates the configuration and builds a classifier.
// A nil cfg selects the default S-band calibration.
func NewClassifier(cfg *Config) (*Classifier, error) {
	if cfg == nil {
		cfg = DefaultConfig("S")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Config returns the active membership-table configuration.
func (c *Classifier) Config() *Config { return c.cfg }

// ClassifyGate scores every candidate class for one gate and picks the
// winner. Ties break toward the higher-priority class, which the default
// tables order hail-first so an ambiguous gate flags hail rather than rain.
func (c *Classifier) ClassifyGate(g GateInput) Result {
	best := Result{Label: LabelUnclassified, Score: math.NaN()}
	for i := range c.cfg.Classes {
		cls := &c.cfg.Classes[i]
		score := scoreClass(cls, c.cfg.Weights, g)
		if math.IsNaN(score) {
			continue
		}
		if !replaces(score, cls.Priority, best, c.labelPriority(best.Label)) {
			continue
		}
		best = Result{Label: i + 1, Class: cls.Name, Hail: cls.Hail, Score: score}
	}
	if best.Label != LabelUnclassified && best.Score < c.cfg.MinScore {
		// A weak best match is noise, not a detection.
		return Result{Label: LabelUnclassified, Score: best.Score}
	}
	return best
}

func (c *Classifier) labelPriority(label int) int {
	if label == LabelUnclassified {
		return math.MinInt
	}
	return c.cfg.Classes[label-1].Priority
}

func replaces(score float64, priority int, best Result, bestPriority int) bool {
	if best.Label == LabelUnclassified || math.IsNaN(best.Score) {
		return true
	}
	if score != best.Score {
		return score > best.Score
	}
	return priority > bestPriority
}

// ClassifyVolume classifies every gate of every sweep and attaches the
// hail_class and hail_mask fields. Sweeps are independent, so they run in
// parallel. Reflectivity, differential reflectivity, and correlation must be
// present on every sweep; Kdp and temperature are used when available.
func (c *Classifier) ClassifyVolume(ctx context.Context, vol *radar.Volume) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sweep := range vol.Sweeps {
		g.Go(func() error {
			return c.classifySweep(ctx, sweep)
		})
	}
	return g.Wait()
}

func (c *Classifier) classifySweep(ctx context.Context, sweep *radar.Sweep) error {
	zh, err := sweep.FieldOrErr(radar.FieldReflectivity)
	if err != nil {
		return err
	}
	zdr, err := sweep.FieldOrErr(radar.FieldDifferentialRefl)
	if err != nil {
		return err
	}
	rhv, err := sweep.FieldOrErr(radar.FieldCrossCorrelation)
	if err != nil {
		return err
	}
	kdp := optionalField(sweep, radar.FieldSpecificPhase)
	temp := optionalField(sweep, radar.FieldTemperature)

	naz, nr := sweep.Dims()
	labels := make([]float64, sweep.NumGates())
	mask := make([]float64, sweep.NumGates())

	for az := 0; az < naz; az++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for rg := 0; rg < nr; rg++ {
			i := az*nr + rg
			res := c.ClassifyGate(GateInput{
				ZH:   zh.Data[i],
				ZDR:  zdr.Data[i],
				KDP:  gateOrNaN(kdp, i),
				RHV:  rhv.Data[i],
				Temp: gateOrNaN(temp, i),
			})
			labels[i] = float64(res.Label)
			if res.Hail {
				mask[i] = 1
			}
		}
	}

	sweep.AddField(radar.FieldHailClass, &radar.Field{
		Units:       "legend",
		LongName:    "Hydrometeor hail classification",
		Description: c.legend(),
		Data:        labels,
	})
	sweep.AddField(radar.FieldHailMask, &radar.Field{
		Units:    "boolean",
		LongName: "Hail detection mask",
		Data:     mask,
	})
	return nil
}

// legend renders the label-code mapping stored in the output field metadata,
// e.g. "0:unclassified,1:rain,...".
func (c *Classifier) legend() string {
	parts := make([]string, 0, len(c.cfg.Classes)+1)
	parts = append(parts, "0:unclassified")
	for i, cls := range c.cfg.Classes {
		parts = append(parts, fmt.Sprintf("%d:%s", i+1, cls.Name))
	}
	return strings.Join(parts, ",")
}

func optionalField(s *radar.Sweep, name string) *radar.Field {
	if !s.HasField(name) {
		return nil
	}
	return s.Fields[name]
}

func gateOrNaN(f *radar.Field, i int) float64 {
	if f == nil {
		return math.NaN()
	}
	return f.Data[i]
}
