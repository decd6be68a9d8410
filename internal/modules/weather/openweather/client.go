// Package openweather is the OpenWeatherMap client used by the dashboard.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"skyboard/internal/modules/weather/format"
	"skyboard/internal/modules/weather/types"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	units          = "metric"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	location   *time.Location
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (no timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit throttles all endpoints to rps requests per second.
// rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLocation sets the zone used to bucket forecast samples into days.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.location = loc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		location:   time.Local,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCurrentByName looks up current conditions by free-text city name.
func (c *Client) FetchCurrentByName(ctx context.Context, city string) (types.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("q", city)

	var raw format.CurrentResponse
	status, err := c.get(ctx, "weather", params, &raw)
	if err != nil {
		return types.WeatherSnapshot{}, &types.NotFoundError{City: city, StatusCode: status, Err: err}
	}
	return format.Current(raw), nil
}

// FetchCurrentByCoords looks up current conditions at a position.
func (c *Client) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (types.WeatherSnapshot, error) {
	coord := types.Coordinates{Lat: lat, Lon: lon}

	var raw format.CurrentResponse
	status, err := c.get(ctx, "weather", coordParams(coord), &raw)
	if err != nil {
		return types.WeatherSnapshot{}, &types.LocationWeatherError{Coord: coord, StatusCode: status, Err: err}
	}
	return format.Current(raw), nil
}

// FetchForecast fetches the 3-hourly forecast and folds it into daily cards.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) ([]types.ForecastDay, error) {
	coord := types.Coordinates{Lat: lat, Lon: lon}

	var raw format.ForecastResponse
	status, err := c.get(ctx, "forecast", coordParams(coord), &raw)
	if err != nil {
		return nil, &types.ForecastError{Coord: coord, StatusCode: status, Err: err}
	}
	return format.Forecast(raw, c.location), nil
}

func coordParams(coord types.Coordinates) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	return params
}

// statusError is a non-2xx reply; the body is not inspected.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// get performs one GET and decodes a 2xx body into out. The returned status
// is 0 when no response was received.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	params.Set("units", units)
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close response body", "endpoint", endpoint, "error", err)
		}
	}()

	c.logger.Debug("weather api call",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return resp.StatusCode, nil
}
