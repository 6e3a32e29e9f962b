// Package ingest obtains one weather observation per tick: from the
// upstream weather API when it answers, from a synthetic generator when it
// does not. The pipeline itself has no notion of "no data", only of what
// data it received this tick.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

// Client fetches the current observation for a fixed coordinate from an
// OpenWeather-compatible current-conditions endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	lat, lon   float64
	logger     *slog.Logger
}

// NewClient creates a weather API client for one observation site.
func NewClient(apiKey string, baseURL string, lat, lon float64, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		lat:     lat,
		lon:     lon,
		logger:  logger,
	}
}

// Fetch requests the current conditions. The observation timestamp is the
// station measurement time reported upstream, not the fetch time.
func (c *Client) Fetch(ctx context.Context) (domain.Observation, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.4f", c.lat)},
		"lon":   {fmt.Sprintf("%.4f", c.lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Observation{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var wr weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return domain.Observation{}, fmt.Errorf("decode response: %w", err)
	}

	capturedAt := time.Unix(wr.Dt, 0).UTC()
	if wr.Dt == 0 {
		capturedAt = time.Now().UTC()
	}

	return domain.Observation{
		RainfallMmPerHour: wr.Rain.OneHour,
		HumidityPercent:   float64(wr.Main.Humidity),
		TemperatureC:      wr.Main.Temp,
		CapturedAt:        capturedAt,
	}.Sanitize(), nil
}

// Upstream API response types. Only the fields the pipeline consumes.

type weatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Dt int64 `json:"dt"`
}
