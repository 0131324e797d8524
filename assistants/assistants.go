package assistants

import (
	"context"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "assistants")

// IAssistant is a conversation with a model that can use tools.
type IAssistant interface {
	// Name returns the name of the Assistant.
	Name() string
	// Chat runs one turn on the owned history.
	Chat(ctx context.Context, input string) *Turn
	// Run runs one turn on the prior messages supplied by the caller,
	// the owned history is not used nor modified.
	Run(ctx context.Context, input string, prior []llms.Message) *Turn
	// History returns a copy of the owned history.
	History() []llms.Message
	// ClearHistory resets the owned history.
	ClearHistory()
}

// Callback is notified on the progress of a turn.
type Callback interface {
	tools.Callback
	OnAssistantStart(ctx context.Context, assistant IAssistant, input string)
	OnAssistantState(ctx context.Context, assistant IAssistant, state State)
	OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, turn *Turn)
	OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error)
}
