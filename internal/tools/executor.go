package tools

// ToolExecutor is the contract every tool exposed to the agent must satisfy.
// The pipeline manages tools through this interface only, so adding a tool
// never touches the pipeline itself.
type ToolExecutor interface {
	// Definition returns the tool's schema, which is provided to the LLM
	// so it understands the tool's capabilities, name, and arguments.
	Definition() Tool

	// Execute runs the tool. It receives the arguments as the JSON string
	// the model generated against the tool's schema and returns a plain-text
	// result to be sent back to the model.
	Execute(arguments string) (string, error)
}
