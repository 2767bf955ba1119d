// Package api defines the public request and response types for the
// weather agent's HTTP surface. Keeping these separate from the internal
// pipeline types means the wire contract can evolve independently of the
// agent's message handling.
package api

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	// UserInput is the user's question. It must be a non-empty string;
	// gin's binding rejects the request before the pipeline runs otherwise.
	UserInput string `json:"user_input" binding:"required"`
	// ThreadID optionally identifies a conversation. It is accepted for
	// forward compatibility but does not rehydrate prior state.
	ThreadID string `json:"thread_id,omitempty"`
}

// Envelope statuses returned by POST /chat.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// WeatherReport carries the three weather fields returned on success.
type WeatherReport struct {
	Temperature   float64 `json:"temperature"`
	WindDirection string  `json:"wind_direction"`
	WindSpeed     float64 `json:"wind_speed"`
}

// ChatResponse is the success/failure envelope for POST /chat.
// Response holds a WeatherReport when Status is "success" and a
// human-readable error string when Status is "failure".
type ChatResponse struct {
	Status   string `json:"status"`
	Response any    `json:"response"`
}

// Usage holds token usage statistics reported by an LLM provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into this one. The pipeline uses it
// to total usage across the reasoning and formatting calls of one request.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
