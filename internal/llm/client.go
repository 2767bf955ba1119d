// Package llm contains the provider-agnostic types for talking to hosted
// language models, plus the client implementations for each supported
// provider. The agent pipeline depends only on the LLMClient interface, so
// the hosted reasoning and structured-output capabilities are swappable
// without touching pipeline logic.
package llm

import (
	"context"

	"weather-agent/internal/api"
	"weather-agent/internal/tools"
)

// Role represents the originator of a message in a conversation.
// Using a defined type and constants prevents typos and improves clarity.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in a conversation history. Messages are treated
// as immutable once appended; ordering is chronological.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig holds the parameters controlling a single generation call.
type GenerationConfig struct {
	// Model is the provider model to use (e.g. "gpt-4o-mini").
	Model string
	// Temperature controls randomness. A pointer distinguishes an explicit
	// 0.0 from an unset value.
	Temperature *float32
	// MaxTokens caps the generated response length.
	MaxTokens int
	// ResponseSchema, when set, asks the provider to constrain its output to
	// this JSON Schema (structured output). The returned Content is then a
	// JSON document matching the schema. Providers enforce this themselves;
	// this client only declares the schema and decodes the result.
	ResponseSchema *tools.JSONSchema
	// ResponseSchemaName labels the schema for providers that require a
	// name (OpenAI). Defaults to "response" when empty.
	ResponseSchemaName string
}

// GenerationResult holds the complete output from one LLM call.
type GenerationResult struct {
	// Content is the generated text, or a JSON document when a
	// ResponseSchema was requested.
	Content string
	// ToolCalls are the tool invocations the model requested, if any.
	// Models can request several in one turn, so this is a slice.
	ToolCalls []*tools.ToolCall
	// Usage reports token consumption for this call.
	Usage api.Usage
}

// LLMClient is the interface every hosted provider client implements. It
// covers the three capabilities the agent needs from a provider: declaring
// available tools, receiving tool-call requests, and enforcing a response
// schema.
type LLMClient interface {
	// Generate performs a blocking request to the model with the full
	// conversation history. Tool definitions in availableTools are declared
	// to the model; a ResponseSchema in config constrains the output shape.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
