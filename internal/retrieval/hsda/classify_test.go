package hsda

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// hailCoreGate is a canonical small-hail signature: strong reflectivity,
// low Zdr, depressed correlation, above the melting level.
var hailCoreGate = GateInput{ZH: 55, ZDR: 0.5, KDP: 1.0, RHV: 0.98, Temp: -5}

func newDefaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(nil)
	require.NoError(t, err)
	return c
}

func TestNewClassifierRejectsInvalidConfig(t *testing.T) {
	_, err := NewClassifier(&Config{Band: "X"})
	require.Error(t, err)
}

func TestClassifyGateHailCore(t *testing.T) {
	c := newDefaultClassifier(t)

	res := c.ClassifyGate(hailCoreGate)

	assert.Equal(t, ClassSmallHail, res.Class)
	assert.True(t, res.Hail)
	assert.InDelta(t, 1.0, res.Score, 1e-12)
}

func TestClassifyGateRain(t *testing.T) {
	c := newDefaultClassifier(t)

	res := c.ClassifyGate(GateInput{ZH: 30, ZDR: 1.5, KDP: 0.5, RHV: 0.99, Temp: 12})

	assert.Equal(t, ClassRain, res.Class)
	assert.False(t, res.Hail)
	assert.GreaterOrEqual(t, res.Score, c.Config().MinScore)
}

func TestClassifyGateAllMissing(t *testing.T) {
	c := newDefaultClassifier(t)
	nan := math.NaN()

	res := c.ClassifyGate(GateInput{ZH: nan, ZDR: nan, KDP: nan, RHV: nan, Temp: nan})

	assert.Equal(t, LabelUnclassified, res.Label)
	assert.Empty(t, res.Class)
	assert.False(t, res.Hail)
	assert.True(t, math.IsNaN(res.Score))
}

func TestClassifyGateMissingVariablesDropOut(t *testing.T) {
	c := newDefaultClassifier(t)
	nan := math.NaN()

	// Only reflectivity measured: the score is the zh membership alone, so a
	// value well inside the graupel plateau still classifies.
	res := c.ClassifyGate(GateInput{ZH: 47, ZDR: nan, KDP: nan, RHV: nan, Temp: nan})

	assert.Equal(t, ClassGraupel, res.Class)
	assert.InDelta(t, 1.0, res.Score, 1e-12)
}

func TestClassifyGateBelowMinScore(t *testing.T) {
	cfg := DefaultConfig("S")
	cfg.MinScore = 0.99
	c, err := NewClassifier(cfg)
	require.NoError(t, err)

	// Scores roughly 0.58 for rain with the default table: a weak match that
	// a strict threshold must reject.
	res := c.ClassifyGate(GateInput{ZH: 55, ZDR: 0.5, KDP: 1.0, RHV: 0.98, Temp: 25})

	assert.Equal(t, LabelUnclassified, res.Label)
	assert.False(t, res.Hail)
	assert.False(t, math.IsNaN(res.Score), "rejected gates keep the losing score for diagnostics")
}

func TestClassifyGateTieBreaksTowardPriority(t *testing.T) {
	// Two classes with identical membership always tie exactly; the
	// higher-priority hail class must win.
	shared := map[Variable]Trapezoid{VarReflectivity: {40, 50, 60, 70}}
	cfg := &Config{
		Band:     "S",
		MinScore: 0.5,
		Weights:  map[Variable]float64{VarReflectivity: 1},
		Classes: []ClassSpec{
			{Name: "wet_growth", Priority: 1, Membership: shared},
			{Name: "hail", Hail: true, Priority: 2, Membership: shared},
		},
	}
	c, err := NewClassifier(cfg)
	require.NoError(t, err)

	res := c.ClassifyGate(GateInput{ZH: 55, ZDR: math.NaN(), KDP: math.NaN(), RHV: math.NaN(), Temp: math.NaN()})

	assert.Equal(t, "hail", res.Class)
	assert.True(t, res.Hail)
}

func TestClassifyGateDeterministic(t *testing.T) {
	c := newDefaultClassifier(t)
	first := c.ClassifyGate(hailCoreGate)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.ClassifyGate(hailCoreGate))
	}
}

func TestClassifyGateScoreBitwiseStable(t *testing.T) {
	// A gate with fractional membership degrees in every variable. The core
	// gate scores exactly 1.0 under any summation order, so it cannot expose
	// order-dependent rounding; this one can.
	gate := GateInput{ZH: 52.3, ZDR: 0.9, KDP: 0.7, RHV: 0.955, Temp: -12.7}

	c := newDefaultClassifier(t)
	first := c.ClassifyGate(gate)
	firstBits := math.Float64bits(first.Score)
	for i := 0; i < 200; i++ {
		res := c.ClassifyGate(gate)
		assert.Equal(t, first.Class, res.Class)
		assert.Equal(t, firstBits, math.Float64bits(res.Score), "iteration %d", i)
	}
}

func TestClassifyVolume(t *testing.T) {
	vol := testVolume(t)

	c := newDefaultClassifier(t)
	require.NoError(t, c.ClassifyVolume(context.Background(), vol))

	for si, sweep := range vol.Sweeps {
		labels, err := sweep.FieldOrErr(radar.FieldHailClass)
		require.NoError(t, err, "sweep %d", si)
		mask, err := sweep.FieldOrErr(radar.FieldHailMask)
		require.NoError(t, err, "sweep %d", si)

		assert.Contains(t, labels.Description, "0:unclassified")
		assert.Contains(t, labels.Description, "4:small_hail")

		// Gate 0 holds the hail core, gate 1 plain rain.
		assert.Equal(t, 1.0, mask.Data[0], "sweep %d hail core", si)
		assert.Equal(t, 0.0, mask.Data[1], "sweep %d rain gate", si)
		assert.Equal(t, float64(classIndex(t, c, ClassSmallHail)), labels.Data[0])
	}
}

func TestClassifyVolumeMissingField(t *testing.T) {
	vol := testVolume(t)
	delete(vol.Sweeps[0].Fields, radar.FieldDifferentialRefl)

	c := newDefaultClassifier(t)
	err := c.ClassifyVolume(context.Background(), vol)

	require.Error(t, err)
	assert.ErrorIs(t, err, radar.ErrMissingField)
	assert.Contains(t, err.Error(), radar.FieldDifferentialRefl)
}

func TestClassifyVolumeOptionalFieldsAbsent(t *testing.T) {
	vol := testVolume(t)
	for _, sweep := range vol.Sweeps {
		delete(sweep.Fields, radar.FieldSpecificPhase)
		delete(sweep.Fields, radar.FieldTemperature)
	}

	c := newDefaultClassifier(t)
	require.NoError(t, c.ClassifyVolume(context.Background(), vol))
	assert.Equal(t, 1.0, vol.Sweeps[0].Fields[radar.FieldHailMask].Data[0])
}

func TestClassifyVolumeCancelledContext(t *testing.T) {
	vol := testVolume(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newDefaultClassifier(t)
	err := c.ClassifyVolume(ctx, vol)
	assert.ErrorIs(t, err, context.Canceled)
}

// testVolume builds a 2-sweep, 1-azimuth, 3-gate volume: gate 0 a hail core,
// gate 1 rain, gate 2 all-missing.
func testVolume(t *testing.T) *radar.Volume {
	t.Helper()
	nan := math.NaN()
	mkSweep := func(el float64) *radar.Sweep {
		s := &radar.Sweep{
			Elevation: el,
			Azimuths:  []float64{0},
			Ranges:    []float64{20000, 30000, 40000},
			Fields:    make(map[string]*radar.Field),
		}
		s.AddField(radar.FieldReflectivity, &radar.Field{Data: []float64{55, 30, nan}})
		s.AddField(radar.FieldDifferentialRefl, &radar.Field{Data: []float64{0.5, 1.5, nan}})
		s.AddField(radar.FieldSpecificPhase, &radar.Field{Data: []float64{1.0, 0.5, nan}})
		s.AddField(radar.FieldCrossCorrelation, &radar.Field{Data: []float64{0.98, 0.99, nan}})
		s.AddField(radar.FieldTemperature, &radar.Field{Data: []float64{-5, 12, nan}})
		return s
	}
	return &radar.Volume{
		ID:      "vol-1",
		RadarID: "KTLX",
		Band:    "S",
		Sweeps:  []*radar.Sweep{mkSweep(0.5), mkSweep(4.0)},
	}
}

func classIndex(t *testing.T, c *Classifier, name string) int {
	t.Helper()
	for i, cls := range c.Config().Classes {
		if cls.Name == name {
			return i + 1
		}
	}
	t.Fatalf("class %q not in config", name)
	return 0
}
