package callbacks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/callbacks"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
)

type fakeAssistant struct{ name string }

func (a *fakeAssistant) Name() string                                  { return a.name }
func (a *fakeAssistant) Chat(context.Context, string) *assistants.Turn { return &assistants.Turn{} }
func (a *fakeAssistant) History() []llms.Message                       { return nil }
func (a *fakeAssistant) ClearHistory()                                 {}
func (a *fakeAssistant) Run(context.Context, string, []llms.Message) *assistants.Turn {
	return &assistants.Turn{}
}

type fakeTool struct{ name string }

var _ tools.ITool = (*fakeTool)(nil)

func (t *fakeTool) Name() string                   { return t.name }
func (t *fakeTool) Description() string            { return "desc" }
func (t *fakeTool) Parameters() *jsonschema.Schema { return nil }
func (t *fakeTool) Call(context.Context, map[string]any) (any, error) {
	return "", nil
}

func TestFanout(t *testing.T) {
	sp1 := callbacks.NewScratchpad(callbacks.ModeDefault)
	sp2 := callbacks.NewScratchpad(callbacks.ModeVerbose)

	f := callbacks.NewFanout(sp1, nil)
	f.Add(sp2)
	f.Add(nil)
	assert.Equal(t, 2, f.Len())

	ctx := context.Background()
	ast := &fakeAssistant{name: "crm"}
	tool := &fakeTool{name: "get_account_info"}
	params := map[string]any{"account_id": "1"}

	f.OnAssistantStart(ctx, ast, "hello")
	f.OnAssistantState(ctx, ast, assistants.StateAwaitingFirstCompletion)
	f.OnAssistantState(ctx, ast, assistants.StateExecutingTools)
	f.OnToolStart(ctx, tool, params)
	f.OnToolEnd(ctx, tool, params, "Acme")
	f.OnToolError(ctx, tool, params, errors.New("boom"))
	f.OnToolNotFound(ctx, "get_weather")
	f.OnAssistantState(ctx, ast, assistants.StateAwaitingFinalCompletion)
	f.OnAssistantEnd(ctx, ast, "hello", &assistants.Turn{Answer: "hi"})
	f.OnAssistantError(ctx, ast, "hello", errors.New("down"))

	for _, sp := range []*callbacks.Scratchpad{sp1, sp2} {
		stats := sp.Stats()
		assert.Equal(t, uint32(1), stats.Turns)
		assert.Equal(t, uint32(1), stats.TurnsSucceeded)
		assert.Equal(t, uint32(1), stats.TurnsFailed)
		assert.Equal(t, uint32(1), stats.TurnsWithTools)
		assert.Equal(t, uint32(2), stats.LLMCalls)
		assert.Equal(t, uint32(1), stats.ToolsCalls)
		assert.Equal(t, uint32(1), stats.ToolsSucceeded)
		assert.Equal(t, uint32(1), stats.ToolsFailed)
		assert.Equal(t, uint32(1), stats.ToolsNotFound)
		assert.Equal(t, uint64(2), stats.LLMBytesIn)
	}

	assert.NotContains(t, string(sp1.Trace()), "State:")
	assert.Contains(t, string(sp2.Trace()), "State: EXECUTING_TOOLS")
}
