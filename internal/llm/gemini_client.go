package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"weather-agent/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to Google's Gemini models through the official SDK.
type GeminiClient struct {
	model *genai.GenerativeModel
}

var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(apiKey, modelID string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{model: client.GenerativeModel(modelID)}, nil
}

// Generate performs a blocking request to the Gemini API.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("gemini client requires at least one message")
	}
	c.configureModel(config, availableTools)
	chat := c.model.StartChat()
	chat.History = toGeminiContentHistory(messages)

	lastMessage := messages[len(messages)-1]
	resp, err := chat.SendMessage(ctx, genai.Text(lastMessage.Content))
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// configureModel applies per-request settings via the SDK's setters. The
// response schema and tool list are mutually exclusive on the Gemini API, so
// structured-output requests must not declare tools.
func (c *GeminiClient) configureModel(config *GenerationConfig, availableTools []tools.Tool) {
	if config.Temperature != nil {
		c.model.SetTemperature(*config.Temperature)
	}
	if config.MaxTokens > 0 {
		c.model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		c.model.SetMaxOutputTokens(4096)
	}

	if config.ResponseSchema != nil {
		c.model.ResponseMIMEType = "application/json"
		c.model.ResponseSchema = convertSchema(*config.ResponseSchema)
		c.model.Tools = nil
		return
	}
	c.model.ResponseMIMEType = ""
	c.model.ResponseSchema = nil

	if len(availableTools) > 0 {
		c.model.Tools = toGeminiTools(availableTools)
	} else {
		c.model.Tools = nil
	}
}

// toGeminiTools converts the internal tool definitions to the SDK's format.
func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	var geminiTools []*genai.Tool
	for _, t := range toolsToConvert {
		funcDecl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		}
		geminiTools = append(geminiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{funcDecl},
		})
	}
	return geminiTools
}

// convertSchema maps the internal JSONSchema onto the SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	}
	if s.Properties != nil {
		genaiSchema.Properties = make(map[string]*genai.Schema)
		for k, v := range s.Properties {
			genaiSchema.Properties[k] = convertSchema(*v)
		}
	}
	return genaiSchema
}

// toGeminiContentHistory converts the message history to the SDK's format.
// Gemini only knows "user" and "model" roles, so tool results are carried as
// user-role text. The last message is the new prompt and is excluded.
func toGeminiContentHistory(messages []Message) []*genai.Content {
	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}

// parseGeminiResponse converts a Gemini response into the internal result.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	candidate := resp.Candidates[0]
	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall

	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			argsJSON, err := json.Marshal(v.Args)
			if err != nil {
				log.Printf("Warning: could not marshal tool call args: %v", err)
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   fmt.Sprintf("gemini-toolcall-%s", v.Name),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(argsJSON),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}

	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return result, nil
}
