package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"weather-agent/internal/api"
	"weather-agent/internal/tools"
)

const openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// openAIRequest is the top-level structure of a chat-completion call.
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Tools          []openAITool          `json:"tools,omitempty"`
	ToolChoice     string                `json:"tool_choice,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    *float32              `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

// openAIMessage is a single message in OpenAI's wire format.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openAITool is a tool definition in OpenAI's wire format.
type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

// openAIResponseFormat requests structured output. With type "json_schema"
// and strict mode, the API guarantees the response conforms to the schema.
type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string            `json:"name"`
	Strict bool              `json:"strict"`
	Schema *tools.JSONSchema `json:"schema"`
}

// openAIResponse is a successful response body.
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// OpenAIClient talks to the OpenAI chat-completions API. It deliberately
// uses a plain HTTP client rather than an SDK so the full request surface
// (tools, structured output, retries) stays visible in one place.
type OpenAIClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a configured client for the OpenAI API. The model
// is specified per request via GenerationConfig, not on the client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key cannot be empty")
	}
	return &OpenAIClient{
		apiKey: apiKey,
		apiURL: openAIAPIURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// Generate performs a blocking chat-completion request.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build openai request payload: %w", err)
	}

	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	return parseOpenAIResponse(respBody)
}

// buildRequestPayload constructs the JSON body for the API call.
func (c *OpenAIClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*bytes.Buffer, error) {
	req := openAIRequest{
		Model:    config.Model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(availableTools),
	}

	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	if config.Temperature != nil {
		req.Temperature = config.Temperature
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}

	if config.ResponseSchema != nil {
		name := config.ResponseSchemaName
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   name,
				Strict: true,
				Schema: config.ResponseSchema,
			},
		}
	}

	payloadBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return bytes.NewBuffer(payloadBytes), nil
}

// doRequest performs the HTTP call with retries and exponential backoff.
// Client errors (4xx) are not retried.
func (c *OpenAIClient) doRequest(ctx context.Context, payload *bytes.Buffer) ([]byte, error) {
	var lastErr error
	delay := initialRetryDelay

	for i := 0; i < maxRetries; i++ {
		// A bytes.Reader lets the request body be re-read on retry.
		req, err := c.createRequest(ctx, bytes.NewReader(payload.Bytes()))
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", i+1, maxRetries, err)
			time.Sleep(delay)
			delay *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("openai API error (attempt %d/%d): status %d, body: %s", i+1, maxRetries, resp.StatusCode, string(body))

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}

		time.Sleep(delay)
		delay *= 2
	}
	return nil, lastErr
}

// createRequest builds the common parts of the http.Request.
func (c *OpenAIClient) createRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// toOpenAIMessages converts the internal message slice to OpenAI's format.
func toOpenAIMessages(messages []Message) []openAIMessage {
	openAIMsgs := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role)}

		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Content = msg.Content
		case RoleAssistant:
			m.Content = msg.Content
			if len(msg.ToolCalls) > 0 {
				m.ToolCalls = make([]tools.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					m.ToolCalls[i] = *tc
				}
			}
		default: // RoleUser and RoleSystem
			m.Content = msg.Content
		}
		openAIMsgs = append(openAIMsgs, m)
	}
	return openAIMsgs
}

// toOpenAITools converts the internal tool slice to OpenAI's format.
func toOpenAITools(availableTools []tools.Tool) []openAITool {
	if len(availableTools) == 0 {
		return nil
	}
	openAITools := make([]openAITool, 0, len(availableTools))
	for _, tool := range availableTools {
		openAITools = append(openAITools, openAITool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return openAITools
}

// parseOpenAIResponse converts an API response to the internal result type.
func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal openai response: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, errors.New("no choices returned from OpenAI")
	}

	choice := openAIResp.Choices[0]
	result := &GenerationResult{
		Content: choice.Message.Content,
		Usage:   openAIResp.Usage,
	}

	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]*tools.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			toolCall := &tools.ToolCall{
				ID:   tc.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
			result.ToolCalls = append(result.ToolCalls, toolCall)
		}
	}

	return result, nil
}
