// Package agent implements the reason/act/format pipeline that turns a user
// question into a structured weather response. The pipeline owns no global
// state; everything it touches lives in a per-request State.
package agent

import (
	"weather-agent/internal/api"
	"weather-agent/internal/llm"
)

// State is the conversation state for one request: an append-only,
// chronological message list plus the final structured response slot, filled
// exactly once when the pipeline reaches the format stage. A State is never
// shared between requests and is not safe for concurrent use.
type State struct {
	Messages      []llm.Message
	FinalResponse *WeatherResponse
	// Usage accumulates token usage across the reasoning and formatting
	// calls of this request.
	Usage api.Usage
}

// NewState creates a fresh conversation seeded with the user's question.
func NewState(userInput string) *State {
	return &State{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userInput},
		},
	}
}

// Append adds a message to the conversation. Messages are immutable once
// appended.
func (s *State) Append(msg llm.Message) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the most recently appended message.
func (s *State) LastMessage() llm.Message {
	return s.Messages[len(s.Messages)-1]
}
