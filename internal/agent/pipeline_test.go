package agent

import (
	"context"
	"errors"
	"testing"

	"weather-agent/internal/api"
	"weather-agent/internal/llm"
	"weather-agent/internal/tools"
)

// generateCall records the inputs of one LLMClient.Generate invocation.
type generateCall struct {
	messages []llm.Message
	config   *llm.GenerationConfig
	tools    []tools.Tool
}

// scriptedClient replays a fixed sequence of results, recording each call.
type scriptedClient struct {
	results []*llm.GenerationResult
	err     error
	calls   []generateCall
}

func (c *scriptedClient) Generate(_ context.Context, messages []llm.Message, config *llm.GenerationConfig, availableTools []tools.Tool) (*llm.GenerationResult, error) {
	c.calls = append(c.calls, generateCall{messages: messages, config: config, tools: availableTools})
	if c.err != nil {
		return nil, c.err
	}
	if len(c.calls) > len(c.results) {
		// Replay the last scripted result for unbounded-loop scenarios.
		return c.results[len(c.results)-1], nil
	}
	return c.results[len(c.calls)-1], nil
}

// staticTool is a ToolExecutor returning a canned result or error.
type staticTool struct {
	name   string
	result string
	err    error
}

func (st *staticTool) Definition() tools.Tool {
	return tools.NewFunctionTool(st.name, "test tool", tools.JSONSchema{Type: "object"})
}

func (st *staticTool) Execute(string) (string, error) {
	return st.result, st.err
}

func newTestManager(tool tools.ToolExecutor) *tools.ToolManager {
	tm := tools.NewToolManager()
	tm.Register(tool)
	return tm
}

func forecastCall(id string) *tools.ToolCall {
	return &tools.ToolCall{
		ID:   id,
		Type: tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{
			Name:      "get_weather_forecast",
			Arguments: `{"latitude":37.77,"longitude":-122.42}`,
		},
	}
}

func TestPipelineWeatherQuery(t *testing.T) {
	const forecast = "Partly cloudy, high near 62, NW wind 15 to 20 mph,"
	client := &scriptedClient{results: []*llm.GenerationResult{
		// REASON: the model asks for the forecast tool.
		{ToolCalls: []*tools.ToolCall{forecastCall("call_1")}, Usage: usage(10)},
		// REASON after ACT: plain answer, no further tool calls.
		{Content: "The forecast for San Francisco: " + forecast, Usage: usage(20)},
		// FORMAT: structured output.
		{Content: `{"response_type":"weather","error":"","temperature":62.0,"wind_direction":"NW","wind_speed":17.5}`, Usage: usage(5)},
	}}

	p := NewPipeline(client, newTestManager(&staticTool{name: "get_weather_forecast", result: forecast}), Config{Model: "gpt-4o-mini"})
	state := NewState("What is the weather in San Francisco?")

	resp, err := p.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !resp.IsWeather() {
		t.Fatalf("ResponseType = %q, want weather", resp.ResponseType)
	}
	if resp.Temperature != 62.0 || resp.WindDirection != "NW" {
		t.Errorf("got temperature=%v wind_direction=%q", resp.Temperature, resp.WindDirection)
	}
	if resp.WindSpeed < 15 || resp.WindSpeed > 20 {
		t.Errorf("wind_speed = %v, want within [15, 20]", resp.WindSpeed)
	}

	// Three provider calls: reason, reason, format.
	if len(client.calls) != 3 {
		t.Fatalf("got %d provider calls, want 3", len(client.calls))
	}

	// Reasoning calls declare the tool and prepend the system prompt;
	// the formatting call declares no tools and sets the schema.
	for i := 0; i < 2; i++ {
		call := client.calls[i]
		if len(call.tools) != 1 {
			t.Errorf("reasoning call %d declared %d tools, want 1", i, len(call.tools))
		}
		if call.messages[0].Role != llm.RoleSystem {
			t.Errorf("reasoning call %d missing system prompt", i)
		}
		if call.config.ResponseSchema != nil {
			t.Errorf("reasoning call %d set a response schema", i)
		}
	}
	formatCall := client.calls[2]
	if len(formatCall.tools) != 0 {
		t.Errorf("format call declared tools: %v", formatCall.tools)
	}
	if formatCall.config.ResponseSchema == nil {
		t.Error("format call did not set a response schema")
	}
	if len(formatCall.messages) != 1 || formatCall.messages[0].Role != llm.RoleUser {
		t.Errorf("format call messages = %+v, want single user message", formatCall.messages)
	}

	// Conversation order: user, assistant(tool calls), tool, assistant.
	wantRoles := []llm.Role{llm.RoleUser, llm.RoleAssistant, llm.RoleTool, llm.RoleAssistant}
	if len(state.Messages) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(state.Messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if state.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, state.Messages[i].Role, want)
		}
	}
	if state.Messages[2].Content != forecast {
		t.Errorf("tool message content = %q, want forecast text", state.Messages[2].Content)
	}
	if state.Messages[2].ToolCallID != "call_1" {
		t.Errorf("tool message ToolCallID = %q, want call_1", state.Messages[2].ToolCallID)
	}

	if state.Usage.TotalTokens != 35 {
		t.Errorf("accumulated TotalTokens = %d, want 35", state.Usage.TotalTokens)
	}
}

func TestPipelineNonWeatherQuery(t *testing.T) {
	client := &scriptedClient{results: []*llm.GenerationResult{
		// REASON: immediate refusal, no tool calls.
		{Content: "I can only provide weather information."},
		// FORMAT.
		{Content: `{"response_type":"message","error":"I can only provide weather information.","temperature":0,"wind_direction":"","wind_speed":0}`},
	}}

	p := NewPipeline(client, newTestManager(&staticTool{name: "get_weather_forecast"}), Config{Model: "gpt-4o-mini"})
	resp, err := p.Run(context.Background(), NewState("Tell me a joke."))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if resp.IsWeather() {
		t.Fatalf("ResponseType = %q, want message", resp.ResponseType)
	}
	if resp.Error == "" {
		t.Error("refusal carried no explanatory message")
	}
	if len(client.calls) != 2 {
		t.Errorf("got %d provider calls, want 2 (reason, format)", len(client.calls))
	}
}

func TestPipelineToolErrorAbsorbed(t *testing.T) {
	client := &scriptedClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{forecastCall("call_1")}},
		{Content: "I could not fetch the forecast right now."},
		{Content: `{"response_type":"message","error":"I could not fetch the forecast right now.","temperature":0,"wind_direction":"","wind_speed":0}`},
	}}

	failing := &staticTool{name: "get_weather_forecast", err: errors.New("connection refused")}
	p := NewPipeline(client, newTestManager(failing), Config{Model: "gpt-4o-mini"})
	state := NewState("What is the weather in Testville?")

	resp, err := p.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error: %v, tool failures must not crash the pipeline", err)
	}
	if resp.IsWeather() {
		t.Errorf("ResponseType = %q, want message", resp.ResponseType)
	}

	toolMsg := state.Messages[2]
	if toolMsg.Role != llm.RoleTool {
		t.Fatalf("message 2 role = %q, want tool", toolMsg.Role)
	}
	if want := "Error executing tool get_weather_forecast: connection refused"; toolMsg.Content != want {
		t.Errorf("tool message = %q, want %q", toolMsg.Content, want)
	}
}

func TestPipelineGivesUpAfterMaxToolRounds(t *testing.T) {
	// The scripted model keeps requesting tool calls forever.
	client := &scriptedClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{forecastCall("call_loop")}},
	}}

	p := NewPipeline(client, newTestManager(&staticTool{name: "get_weather_forecast", result: "Sunny."}), Config{
		Model:         "gpt-4o-mini",
		MaxToolRounds: 2,
	})

	resp, err := p.Run(context.Background(), NewState("weather in Testville"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if resp.IsWeather() {
		t.Fatalf("ResponseType = %q, want message after give-up", resp.ResponseType)
	}
	if resp.Error == "" {
		t.Error("give-up response carried no explanatory message")
	}
	// Exactly MaxToolRounds reasoning calls, and no formatting call.
	if len(client.calls) != 2 {
		t.Errorf("got %d provider calls, want 2", len(client.calls))
	}
}

func TestPipelineProviderErrorPropagates(t *testing.T) {
	client := &scriptedClient{err: errors.New("quota exceeded")}
	p := NewPipeline(client, newTestManager(&staticTool{name: "get_weather_forecast"}), Config{Model: "gpt-4o-mini"})

	if _, err := p.Run(context.Background(), NewState("weather?")); err == nil {
		t.Fatal("Run() expected provider error to propagate, got nil")
	}
}

func TestPipelineDeterministicReplay(t *testing.T) {
	// Identical scripted upstreams must yield identical final responses.
	script := func() *scriptedClient {
		return &scriptedClient{results: []*llm.GenerationResult{
			{ToolCalls: []*tools.ToolCall{forecastCall("call_1")}},
			{Content: "Partly cloudy, high near 62, NW wind 15 to 20 mph,"},
			{Content: `{"response_type":"weather","error":"","temperature":62.0,"wind_direction":"NW","wind_speed":17.5}`},
		}}
	}

	run := func() WeatherResponse {
		p := NewPipeline(script(), newTestManager(&staticTool{name: "get_weather_forecast", result: "Partly cloudy, high near 62, NW wind 15 to 20 mph,"}), Config{Model: "gpt-4o-mini"})
		resp, err := p.Run(context.Background(), NewState("weather in Testville"))
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		return *resp
	}

	first, second := run(), run()
	if first != second {
		t.Errorf("responses differ across identical runs:\n%+v\n%+v", first, second)
	}
}

func TestPipelineRejectsEmptyState(t *testing.T) {
	p := NewPipeline(&scriptedClient{}, tools.NewToolManager(), Config{Model: "gpt-4o-mini"})
	if _, err := p.Run(context.Background(), &State{}); err == nil {
		t.Error("Run() with empty state expected error, got nil")
	}
}

func usage(total int) api.Usage {
	return api.Usage{TotalTokens: total}
}
