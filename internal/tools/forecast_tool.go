package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultForecastAPIURL is the public National Weather Service API.
const DefaultForecastAPIURL = "https://api.weather.gov"

// ForecastTool fetches a short textual weather forecast for a coordinate
// pair. It is stateless: a pure function of (latitude, longitude) plus the
// network. It holds its own configured HTTP client for external API calls.
type ForecastTool struct {
	baseURL    string
	httpClient *http.Client
}

// Statically verify that ForecastTool implements the ToolExecutor interface.
var _ ToolExecutor = (*ForecastTool)(nil)

// NewForecastTool creates a forecast tool against the given API base URL.
// An empty baseURL selects the public weather.gov API; tests point it at a
// local server. The dedicated client timeout keeps a stalled upstream from
// hanging the whole agent loop.
func NewForecastTool(baseURL string) *ForecastTool {
	if baseURL == "" {
		baseURL = DefaultForecastAPIURL
	}
	return &ForecastTool{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Definition describes the tool to the LLM using the type-safe schema types.
func (ft *ForecastTool) Definition() Tool {
	return NewFunctionTool(
		"get_weather_forecast",
		"Get the weather forecast for a location given its latitude and longitude",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"latitude": {
					Type:        "number",
					Description: "The latitude of the location, e.g. 37.7749",
				},
				"longitude": {
					Type:        "number",
					Description: "The longitude of the location, e.g. -122.4194",
				},
			},
			Required: []string{"latitude", "longitude"},
		},
	)
}

// pointsResponse is the subset of the /points response the tool reads.
type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

// forecastResponse is the subset of the gridpoint forecast the tool reads.
type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name             string `json:"name"`
			DetailedForecast string `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// Execute resolves the coordinates to a gridpoint forecast URL, fetches it,
// and returns the first period's detailed forecast as plain text. Any
// network or parse failure is returned as an error; the pipeline feeds it
// back to the model as a tool result rather than failing the request.
func (ft *ForecastTool) Execute(arguments string) (string, error) {
	var args struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for forecast tool: %w", err)
	}
	if args.Latitude == nil || args.Longitude == nil {
		return "", fmt.Errorf("forecast tool requires both latitude and longitude")
	}

	// The weather.gov API is keyed by gridpoints, so the lookup is two hops:
	// /points/{lat},{lon} yields the forecast URL for that grid square.
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", ft.baseURL, *args.Latitude, *args.Longitude)
	var points pointsResponse
	if err := ft.getJSON(pointsURL, &points); err != nil {
		return "", fmt.Errorf("failed to resolve forecast location: %w", err)
	}
	if points.Properties.Forecast == "" {
		return "", fmt.Errorf("no forecast available for %.4f,%.4f", *args.Latitude, *args.Longitude)
	}

	var forecast forecastResponse
	if err := ft.getJSON(points.Properties.Forecast, &forecast); err != nil {
		return "", fmt.Errorf("failed to fetch forecast: %w", err)
	}
	periods := forecast.Properties.Periods
	if len(periods) == 0 {
		return "", fmt.Errorf("forecast contained no periods")
	}

	return periods[0].DetailedForecast, nil
}

// getJSON performs a GET against the forecast API and decodes the body.
func (ft *ForecastTool) getJSON(url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// weather.gov rejects requests without an identifying User-Agent.
	req.Header.Set("User-Agent", "weather-agent/1.0")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := ft.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("forecast API returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
