// Package sounding fetches sounding-derived isotherm level heights from an
// external model-analysis HTTP service, for radar volumes that arrive
// without them.
package sounding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/hail-retrieval-service/internal/observability"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// Client implements radar.SoundingProvider against a sounding API that
// answers GET {base}/levels?lat=..&lon=..&time=.. with the 0 degC and
// -20 degC heights.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a sounding API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// IsothermLevels queries the sounding service for the given site and scan time.
func (c *Client) IsothermLevels(ctx context.Context, lat, lon float64, at time.Time) (radar.Levels, error) {
	params := url.Values{
		"lat":  {fmt.Sprintf("%.4f", lat)},
		"lon":  {fmt.Sprintf("%.4f", lon)},
		"time": {at.UTC().Format(time.RFC3339)},
	}
	levels, err := c.doRequest(ctx, c.baseURL+"/levels?"+params.Encode())
	if err != nil {
		c.metrics.SoundingRequests.WithLabelValues("error").Inc()
		return radar.Levels{}, err
	}
	c.metrics.SoundingRequests.WithLabelValues("success").Inc()
	return levels, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (radar.Levels, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return radar.Levels{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return radar.Levels{}, fmt.Errorf("sounding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return radar.Levels{}, fmt.Errorf("sounding API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return radar.Levels{}, fmt.Errorf("decode response: %w", err)
	}

	levels := radar.Levels{
		FreezingHeight: apiResp.FreezingHeightM,
		Neg20Height:    apiResp.Neg20HeightM,
	}
	if !levels.Valid() {
		return radar.Levels{}, fmt.Errorf("sounding API returned unusable levels: 0C at %.0fm, -20C at %.0fm",
			levels.FreezingHeight, levels.Neg20Height)
	}
	return levels, nil
}

// Sounding API response type.

type response struct {
	FreezingHeightM float64 `json:"freezing_height_m"`
	Neg20HeightM    float64 `json:"neg20_height_m"`
}
