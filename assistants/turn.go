package assistants

import (
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
)

// Turn is the outcome of one user input.
type Turn struct {
	Input string `json:"input" yaml:"input"`
	// Answer is the final text for the user,
	// a diagnostic sentence when the turn failed.
	Answer string `json:"answer" yaml:"answer"`
	// ToolCalls are the tools executed in this turn, in order.
	ToolCalls []tools.Result `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	// States are the states the turn went through.
	States []State `json:"states" yaml:"states"`
	// Messages are the messages of the last completion request.
	Messages []llms.Message `json:"messages,omitempty" yaml:"messages,omitempty"`
	// Err is *llms.TransportError or *llms.ProtocolError when a completion
	// call failed, nil otherwise.
	Err error `json:"-" yaml:"-"`
}

// Succeeded returns true if the turn produced an answer from the model.
func (t *Turn) Succeeded() bool {
	return t.Err == nil
}

// UsedTools returns true if the model requested at least one tool.
func (t *Turn) UsedTools() bool {
	return len(t.ToolCalls) > 0
}

// FirstToolCall returns the first executed tool, or nil.
func (t *Turn) FirstToolCall() *tools.Result {
	if len(t.ToolCalls) == 0 {
		return nil
	}
	return &t.ToolCalls[0]
}

// State returns the last state reached.
func (t *Turn) State() State {
	if len(t.States) == 0 {
		return StateBuildingRequest
	}
	return t.States[len(t.States)-1]
}
