package main

import (
	"log"
	"net/http"
	"time"

	"weather-agent/internal/agent"
	"weather-agent/internal/api"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves POST /chat: it validates the request, runs the agent
// pipeline on a fresh per-request conversation state, and maps the final
// structured response onto the success/failure envelope.
type ChatHandler struct {
	pipeline *agent.Pipeline
}

func NewChatHandler(pipeline *agent.Pipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

// HandleChat runs one request through the pipeline. Input validation
// failures never reach the pipeline; provider failures surface as 500s.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	log.Printf("--- New Request (Thread: %s, Input: '%.40s') ---", req.ThreadID, req.UserInput)

	// Conversation state is request-scoped. The thread_id is accepted but
	// does not rehydrate prior messages.
	state := agent.NewState(req.UserInput)
	result, err := h.pipeline.Run(c.Request.Context(), state)
	if err != nil {
		log.Printf("❌ Pipeline failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Request done in %dms (tokens: %d)", time.Since(startTime).Milliseconds(), state.Usage.TotalTokens)

	if result.IsWeather() {
		c.JSON(http.StatusOK, api.ChatResponse{
			Status: api.StatusSuccess,
			Response: api.WeatherReport{
				Temperature:   result.Temperature,
				WindDirection: result.WindDirection,
				WindSpeed:     result.WindSpeed,
			},
		})
		return
	}

	// On refusal only the error string is shown; the weather fields are
	// placeholders and must not leak to the caller.
	c.JSON(http.StatusOK, api.ChatResponse{
		Status:   api.StatusFailure,
		Response: result.Error,
	})
}

// HandleHealth reports build metadata for liveness checks.
func (h *ChatHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, GetBuildInfo())
}
