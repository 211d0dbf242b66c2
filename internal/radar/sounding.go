package radar

import (
	"context"
	"time"
)

// SoundingProvider supplies isotherm level heights for a radar site when the
// incoming volume does not carry them. Implementations query an external
// sounding or model-analysis service.
type SoundingProvider interface {
	// IsothermLevels returns the 0 degC and -20 degC heights (m ASL) for the
	// given site and scan time.
	IsothermLevels(ctx context.Context, lat, lon float64, at time.Time) (Levels, error)
}
