package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hail-retrieval-service/internal/observability"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar/radartest"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hsda"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/mesh"
)

type fakeSounding struct {
	levels radar.Levels
	err    error
	calls  int
	lat    float64
	lon    float64
	at     time.Time
}

func (f *fakeSounding) IsothermLevels(_ context.Context, lat, lon float64, at time.Time) (radar.Levels, error) {
	f.calls++
	f.lat, f.lon, f.at = lat, lon, at
	return f.levels, f.err
}

func newTestTransformer(t *testing.T, sounding radar.SoundingProvider, metrics *observability.Metrics) *RetrievalTransformer {
	t.Helper()
	classifier, err := hsda.NewClassifier(nil)
	require.NoError(t, err)
	return NewTransformer(classifier, mesh.DefaultOptions(), sounding, testLogger(), metrics)
}

func rawVolumeMessage(t *testing.T, vol *radar.Volume) radar.RawMessage {
	t.Helper()
	payload, err := radar.EncodeVolume(vol)
	require.NoError(t, err)
	return radar.RawMessage{Key: []byte(vol.ID), Value: payload, Topic: "raw-radar-volumes"}
}

func TestTransformEnrichesVolume(t *testing.T) {
	frozen := time.Date(2025, 5, 20, 23, 15, 0, 0, time.UTC)
	radar.SetClock(clockwork.NewFakeClockAt(frozen))
	defer radar.SetClock(nil)

	metrics := observability.NewMetricsForTesting()
	tr := newTestTransformer(t, nil, metrics)

	out, err := tr.Transform(context.Background(), rawVolumeMessage(t, radartest.HailVolume()))
	require.NoError(t, err)

	assert.Equal(t, []byte("vol-test-1"), out.Key)
	assert.Equal(t, "KTLX", out.Headers["radar_id"])
	assert.Equal(t, frozen.Format(time.RFC3339), out.Headers["processed_at"])

	enriched, err := radar.DecodeVolume(out.Value)
	require.NoError(t, err)

	for si, sweep := range enriched.Sweeps {
		for _, name := range []string{
			radar.FieldHailClass,
			radar.FieldHailMask,
			radar.FieldHDR,
			radar.FieldKineticEnergy,
			radar.FieldGateHeight,
			radar.FieldTemperature,
		} {
			assert.True(t, sweep.HasField(name), "sweep %d missing %s", si, name)
		}
	}
	for _, name := range []string{radar.FieldSHI, radar.FieldMESH, radar.FieldPOSH} {
		assert.True(t, enriched.Sweeps[0].HasField(name), "surface sweep missing %s", name)
	}

	assert.Greater(t, testutil.ToFloat64(metrics.HailGates), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.GatesClassified.WithLabelValues("rain")), 0.0)
}

func TestTransformRejectsMalformedPayload(t *testing.T) {
	tr := newTestTransformer(t, nil, observability.NewMetricsForTesting())

	_, err := tr.Transform(context.Background(), radar.RawMessage{Value: []byte(`{broken`)})
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode volume")
}

func TestTransformFailsWithoutLevels(t *testing.T) {
	vol := radartest.HailVolume()
	vol.Levels = nil

	tr := newTestTransformer(t, nil, observability.NewMetricsForTesting())
	_, err := tr.Transform(context.Background(), rawVolumeMessage(t, vol))

	assert.ErrorIs(t, err, mesh.ErrMissingLevels)
}

func TestTransformFetchesLevelsFromSounding(t *testing.T) {
	vol := radartest.HailVolume()
	vol.Levels = nil

	sounding := &fakeSounding{levels: radar.Levels{FreezingHeight: 3500, Neg20Height: 6800}}
	tr := newTestTransformer(t, sounding, observability.NewMetricsForTesting())

	out, err := tr.Transform(context.Background(), rawVolumeMessage(t, vol))
	require.NoError(t, err)

	assert.Equal(t, 1, sounding.calls)
	assert.Equal(t, vol.Latitude, sounding.lat)
	assert.Equal(t, vol.Longitude, sounding.lon)
	assert.True(t, sounding.at.Equal(vol.Time))

	enriched, err := radar.DecodeVolume(out.Value)
	require.NoError(t, err)
	require.NotNil(t, enriched.Levels)
	assert.Equal(t, 3500.0, enriched.Levels.FreezingHeight)
}

func TestTransformSkipsSoundingWhenLevelsPresent(t *testing.T) {
	sounding := &fakeSounding{levels: radar.Levels{FreezingHeight: 1, Neg20Height: 2}}
	tr := newTestTransformer(t, sounding, observability.NewMetricsForTesting())

	_, err := tr.Transform(context.Background(), rawVolumeMessage(t, radartest.HailVolume()))
	require.NoError(t, err)
	assert.Zero(t, sounding.calls, "volumes carrying levels must not hit the sounding API")
}

func TestTransformSoundingFailureLeavesLevelsMissing(t *testing.T) {
	vol := radartest.HailVolume()
	vol.Levels = nil

	sounding := &fakeSounding{err: errors.New("sounding API error: status 503")}
	tr := newTestTransformer(t, sounding, observability.NewMetricsForTesting())

	_, err := tr.Transform(context.Background(), rawVolumeMessage(t, vol))
	assert.ErrorIs(t, err, mesh.ErrMissingLevels)
	assert.Equal(t, 1, sounding.calls)
}
