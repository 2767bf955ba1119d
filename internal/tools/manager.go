package tools

import "fmt"

// ToolManager holds the registry of tools declared to the model. The weather
// agent registers exactly one, but the pipeline only ever talks to the
// registry, never to a concrete tool.
type ToolManager struct {
	tools map[string]ToolExecutor
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool to the registry, keyed by its declared function name.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// GetDefinitions returns the definitions of all registered tools, in the
// form handed to LLMClient.Generate.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.tools))
	for _, tool := range tm.tools {
		defs = append(defs, tool.Definition())
	}
	return defs
}

// Execute runs a tool by name with the given arguments.
func (tm *ToolManager) Execute(name, arguments string) (string, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return "", fmt.Errorf("tool '%s' not found", name)
	}
	return tool.Execute(arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
