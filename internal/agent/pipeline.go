package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"weather-agent/internal/llm"
	"weather-agent/internal/tools"
)

// DefaultSystemPrompt frames the model as a weather-only assistant. Queries
// outside that domain are answered with a refusal the format stage turns
// into a "message" response.
const DefaultSystemPrompt = `You are a helpful assistant that provides weather information.
If the user asks about the weather, use the tool to get the forecast.
If not, respond with a message indicating that you can only provide weather information.`

// DefaultMaxToolRounds bounds the reason/act loop. Without a bound, a model
// that keeps requesting tool calls would loop over remote calls forever.
const DefaultMaxToolRounds = 5

// Config carries everything the pipeline needs, passed explicitly so the
// pipeline stays testable with mocked providers.
type Config struct {
	// Model is the provider model used for both reasoning and formatting.
	Model string `yaml:"model"`
	// MaxToolRounds caps how many reason/act cycles may run before the
	// pipeline gives up with a refusal. Zero selects the default.
	MaxToolRounds int `yaml:"max_tool_rounds"`
	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string `yaml:"system_prompt"`
}

// stage identifies where the pipeline is in its reason/act/format flow.
type stage string

const (
	stageReason stage = "reason"
	stageAct    stage = "act"
	stageFormat stage = "format"
	stageDone   stage = "done"
)

// Pipeline runs a conversation through the reason/act/format stages:
//
//	REASON -> ACT    when the model requests tool calls
//	REASON -> FORMAT when the model answers in plain text
//	ACT    -> REASON after all requested tools have run
//	FORMAT -> DONE   once the answer is forced into WeatherResponse shape
//
// The reason/act loop is bounded by MaxToolRounds; on exhaustion the
// pipeline takes a terminal give-up transition producing a refusal.
type Pipeline struct {
	client llm.LLMClient
	tools  *tools.ToolManager
	cfg    Config
}

// NewPipeline wires a pipeline from its dependencies. The provider client
// and tool registry are interfaces/registries, so tests can substitute both.
func NewPipeline(client llm.LLMClient, toolManager *tools.ToolManager, cfg Config) *Pipeline {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Pipeline{
		client: client,
		tools:  toolManager,
		cfg:    cfg,
	}
}

// Run drives the state machine to DONE and returns the final structured
// response. Provider errors are not recovered here; they propagate to the
// HTTP boundary. Tool failures never surface as errors — they are absorbed
// into the conversation so the next reasoning step can react to them.
func (p *Pipeline) Run(ctx context.Context, state *State) (*WeatherResponse, error) {
	if state == nil || len(state.Messages) == 0 {
		return nil, errors.New("pipeline requires a state seeded with a user message")
	}

	current := stageReason
	var pending []*tools.ToolCall
	rounds := 0

	for current != stageDone {
		switch current {
		case stageReason:
			if rounds >= p.cfg.MaxToolRounds {
				log.Printf("Tool loop exceeded %d rounds. Giving up.", p.cfg.MaxToolRounds)
				state.FinalResponse = &WeatherResponse{
					ResponseType: ResponseTypeMessage,
					Error:        "I could not find the weather information you asked for.",
				}
				current = stageDone
				continue
			}

			result, err := p.client.Generate(ctx, p.withSystemPrompt(state.Messages), &llm.GenerationConfig{
				Model: p.cfg.Model,
			}, p.tools.GetDefinitions())
			if err != nil {
				return nil, fmt.Errorf("reasoning call failed: %w", err)
			}
			state.Usage.Add(result.Usage)

			if len(result.ToolCalls) == 0 {
				state.Append(llm.Message{Role: llm.RoleAssistant, Content: result.Content})
				current = stageFormat
				continue
			}

			state.Append(llm.Message{Role: llm.RoleAssistant, Content: result.Content, ToolCalls: result.ToolCalls})
			pending = result.ToolCalls
			rounds++
			current = stageAct

		case stageAct:
			for _, toolCall := range pending {
				log.Printf("🛠️ Executing tool: %s (ID: %s) with args: %s", toolCall.Function.Name, toolCall.ID, toolCall.Function.Arguments)
				toolResult, err := p.tools.Execute(toolCall.Function.Name, toolCall.Function.Arguments)
				if err != nil {
					// Tool failures are fed back to the model as text so it
					// can explain, retry differently, or refuse.
					toolResult = fmt.Sprintf("Error executing tool %s: %v", toolCall.Function.Name, err)
				}
				state.Append(llm.Message{Role: llm.RoleTool, ToolCallID: toolCall.ID, Content: toolResult})
			}
			pending = nil
			current = stageReason

		case stageFormat:
			resp, err := p.format(ctx, state)
			if err != nil {
				return nil, err
			}
			state.FinalResponse = resp
			current = stageDone
		}
	}

	return state.FinalResponse, nil
}

// withSystemPrompt prepends the system message for a reasoning call without
// mutating the stored conversation.
func (p *Pipeline) withSystemPrompt(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: p.cfg.SystemPrompt})
	return append(out, messages...)
}

// format runs the structured-output call exactly once per request. Only the
// latest assistant content is sent — all that needs structuring is the final
// answer, and this keeps the call small.
func (p *Pipeline) format(ctx context.Context, state *State) (*WeatherResponse, error) {
	last := state.LastMessage()

	result, err := p.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: last.Content},
	}, &llm.GenerationConfig{
		Model:              p.cfg.Model,
		ResponseSchema:     responseSchema(),
		ResponseSchemaName: "weather_response",
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("formatting call failed: %w", err)
	}
	state.Usage.Add(result.Usage)

	var resp WeatherResponse
	if err := json.Unmarshal([]byte(result.Content), &resp); err != nil {
		return nil, fmt.Errorf("formatting call returned invalid JSON: %w", err)
	}
	return &resp, nil
}
