// Package tools defines the function-calling (tool use) vocabulary of the
// weather agent. These types are a provider-agnostic representation of a tool
// that the LLM clients translate into the specific format each hosted API
// expects.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool is the schema sent *to* the model so it knows a tool exists.
type Tool struct {
	// Type specifies the kind of tool, which is almost always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function describes a callable tool: its name, what it does, and the
// arguments it accepts. The description matters — the model uses it to decide
// when the tool applies.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Parameters is the JSON Schema for the function's arguments.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a structured, type-safe subset of JSON Schema used both for
// tool parameters and for constraining structured output. Using this struct
// instead of map[string]interface{} keeps schema construction checked by the
// compiler.
type JSONSchema struct {
	// Type is the data type of a schema node ("object", "string", "number",
	// "integer"). The top-level node is always "object".
	Type string `json:"type"`
	// Description explains what a parameter or field is for.
	Description string `json:"description,omitempty"`
	// Properties maps field names to their schemas.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required lists the mandatory field names.
	Required []string `json:"required,omitempty"`
	// AdditionalProperties, when set to false, closes an object schema.
	// OpenAI's strict structured-output mode requires it on every object.
	AdditionalProperties *bool `json:"additionalProperties,omitempty"`
}

// ToolCall is a request *from* the model to run a tool with given arguments.
// The pipeline executes the matching tool and appends the result back into
// the conversation under the same ID.
type ToolCall struct {
	// ID uniquely identifies this call so the tool's result can be matched
	// back to the model's request in a multi-turn conversation.
	ID string `json:"id"`
	// Type is the kind of tool being called, almost always "function".
	Type string `json:"type"`
	// Function names the tool and carries its arguments.
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and raw JSON arguments of a requested call.
type ToolCallFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON string generated by the model; tools unmarshal it
	// into their own argument structs.
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a Tool with the correct "function" type set.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

var schemaFalse = false

// Closed marks an object schema as closed (no additional properties) and
// returns it, so schema literals can be built in one expression.
func (s *JSONSchema) Closed() *JSONSchema {
	s.AdditionalProperties = &schemaFalse
	return s
}
