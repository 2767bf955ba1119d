package agent

import "weather-agent/internal/tools"

// ResponseType discriminates the two outcomes of a pipeline run.
type ResponseType string

const (
	// ResponseTypeWeather means a forecast was found and the three weather
	// fields are meaningful.
	ResponseTypeWeather ResponseType = "weather"
	// ResponseTypeMessage means the agent could not (or should not) answer
	// with weather data; only Error carries information.
	ResponseTypeMessage ResponseType = "message"
)

// WeatherResponse is the fixed-shape final answer of the pipeline. All
// fields are always present: when ResponseType is "message" the weather
// fields are placeholders and must not be surfaced to the caller.
type WeatherResponse struct {
	ResponseType ResponseType `json:"response_type"`
	// Error holds the human-readable explanation when ResponseType is
	// "message", and is empty otherwise.
	Error string `json:"error"`
	// Temperature is in fahrenheit.
	Temperature float64 `json:"temperature"`
	// WindDirection is the wind direction in abbreviated form, e.g. "NW".
	WindDirection string `json:"wind_direction"`
	// WindSpeed is in km/h.
	WindSpeed float64 `json:"wind_speed"`
}

// IsWeather reports whether the response carries usable weather data.
func (r *WeatherResponse) IsWeather() bool {
	return r.ResponseType == ResponseTypeWeather
}

// responseSchema is the JSON Schema the formatting call is constrained to.
// The hosted provider enforces it; the pipeline only declares it and decodes
// the returned document.
func responseSchema() *tools.JSONSchema {
	return (&tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"response_type": {
				Type:        "string",
				Description: `"weather" when a forecast was found, "message" when only an explanatory error applies`,
			},
			"error": {
				Type:        "string",
				Description: "Explanation for the user when no forecast applies; empty otherwise",
			},
			"temperature": {
				Type:        "number",
				Description: "The temperature in fahrenheit",
			},
			"wind_direction": {
				Type:        "string",
				Description: "The direction of the wind in abbreviated form",
			},
			"wind_speed": {
				Type:        "number",
				Description: "The speed of the wind in km/h",
			},
		},
		Required: []string{"response_type", "error", "temperature", "wind_direction", "wind_speed"},
	}).Closed()
}
