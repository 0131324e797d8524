package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

//go:generate mockgen -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools github.com/effective-security/agentloop/tools ITool,Callback

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool, the model refers to the tool by this exact name.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	// May be nil for a tool without parameters.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the parameters parsed from the model output.
	// The result is either text or a JSON serializable value.
	Call(ctx context.Context, params map[string]any) (any, error)
}

// Tool is an ITool with typed input and output.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Callback is notified on tool execution.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, params map[string]any)
	OnToolEnd(ctx context.Context, tool ITool, params map[string]any, output string)
	OnToolError(ctx context.Context, tool ITool, params map[string]any, err error)
	OnToolNotFound(ctx context.Context, name string)
}
