package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/hail-retrieval-service/internal/observability"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hdr"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/hsda"
	"github.com/couchcryptid/hail-retrieval-service/internal/retrieval/mesh"
)

// RetrievalTransformer implements Transformer: decode a raw volume, fill in
// sounding levels and gate geometry, run the three hail retrievals, and
// serialize the enriched volume.
type RetrievalTransformer struct {
	classifier *hsda.Classifier
	meshOpts   mesh.Options
	sounding   radar.SoundingProvider // nil disables enrichment
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTransformer creates a RetrievalTransformer. Pass a nil sounding provider
// to disable level enrichment; volumes must then carry their own levels.
func NewTransformer(classifier *hsda.Classifier, meshOpts mesh.Options, sounding radar.SoundingProvider, logger *slog.Logger, metrics *observability.Metrics) *RetrievalTransformer {
	return &RetrievalTransformer{
		classifier: classifier,
		meshOpts:   meshOpts,
		sounding:   sounding,
		logger:     logger,
		metrics:    metrics,
	}
}

func (t *RetrievalTransformer) Transform(ctx context.Context, raw radar.RawMessage) (radar.OutputMessage, error) {
	vol, err := radar.DecodeVolume(raw.Value)
	if err != nil {
		return radar.OutputMessage{}, err
	}

	t.ensureLevels(ctx, vol)
	vol.EnsureGeometry()

	if err := t.runRetrievals(ctx, vol); err != nil {
		return radar.OutputMessage{}, err
	}

	t.observeClassification(vol)

	payload, err := radar.EncodeVolume(vol)
	if err != nil {
		return radar.OutputMessage{}, err
	}

	return radar.OutputMessage{
		Key:   []byte(vol.ID),
		Value: payload,
		Headers: map[string]string{
			"radar_id":     vol.RadarID,
			"processed_at": radar.ProcessedNow().Format(time.RFC3339),
		},
	}, nil
}

// ensureLevels fetches isotherm levels from the sounding provider when the
// volume arrived without usable ones. A failed fetch is logged and left for
// the MESH retrieval to reject; HSDA and HDR do not need levels.
func (t *RetrievalTransformer) ensureLevels(ctx context.Context, vol *radar.Volume) {
	if vol.Levels != nil && vol.Levels.Valid() {
		return
	}
	if t.sounding == nil {
		return
	}
	levels, err := t.sounding.IsothermLevels(ctx, vol.Latitude, vol.Longitude, vol.Time)
	if err != nil {
		t.logger.Warn("sounding lookup failed", "error", err, "radar_id", vol.RadarID)
		return
	}
	if levels.Valid() {
		vol.Levels = &levels
	}
}

func (t *RetrievalTransformer) runRetrievals(ctx context.Context, vol *radar.Volume) error {
	start := time.Now()
	if err := t.classifier.ClassifyVolume(ctx, vol); err != nil {
		return fmt.Errorf("hsda: %w", err)
	}
	t.metrics.RetrievalDuration.WithLabelValues("hsda").Observe(time.Since(start).Seconds())

	start = time.Now()
	if err := hdr.Compute(vol); err != nil {
		return fmt.Errorf("hdr: %w", err)
	}
	t.metrics.RetrievalDuration.WithLabelValues("hdr").Observe(time.Since(start).Seconds())

	start = time.Now()
	if err := mesh.Compute(vol, t.meshOpts); err != nil {
		return err
	}
	t.metrics.RetrievalDuration.WithLabelValues("mesh").Observe(time.Since(start).Seconds())
	return nil
}

// observeClassification counts per-class gates and hail gates over the
// freshly classified volume.
func (t *RetrievalTransformer) observeClassification(vol *radar.Volume) {
	classes := t.classifier.Config().Classes
	for _, sweep := range vol.Sweeps {
		labels, ok := sweep.Fields[radar.FieldHailClass]
		if !ok {
			continue
		}
		mask := sweep.Fields[radar.FieldHailMask]
		for i, v := range labels.Data {
			name := "unclassified"
			if idx := int(v); idx > 0 && idx <= len(classes) && !math.IsNaN(v) {
				name = classes[idx-1].Name
			}
			t.metrics.GatesClassified.WithLabelValues(name).Inc()
			if mask != nil && mask.Data[i] == 1 {
				t.metrics.HailGates.Inc()
			}
		}
	}
}
