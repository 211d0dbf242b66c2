package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level       string
		wantEnabled slog.Level
		wantSilent  slog.Level
	}{
		{level: "debug", wantEnabled: slog.LevelDebug, wantSilent: slog.LevelDebug - 4},
		{level: "info", wantEnabled: slog.LevelInfo, wantSilent: slog.LevelDebug},
		{level: "warn", wantEnabled: slog.LevelWarn, wantSilent: slog.LevelInfo},
		{level: "error", wantEnabled: slog.LevelError, wantSilent: slog.LevelWarn},
		{level: "bogus", wantEnabled: slog.LevelInfo, wantSilent: slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(tt.level, "json")
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.wantEnabled))
			assert.False(t, logger.Enabled(ctx, tt.wantSilent))
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	// Both formats must produce a usable logger; the handler type is an
	// implementation detail.
	assert.NotNil(t, NewLogger("info", "json"))
	assert.NotNil(t, NewLogger("info", "text"))
}
