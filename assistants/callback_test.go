package assistants_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
)

func TestPrinterCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := assistants.NewPrinterCallback(&buf)

	ctx := context.Background()
	ast := &fakeAssistant{name: "test-assistant"}
	tool := &fakeTool{name: "test-tool"}
	params := map[string]any{"account_id": "ACC-001"}

	cb.OnAssistantStart(ctx, ast, "test input")
	cb.OnAssistantState(ctx, ast, assistants.StateExecutingTools)
	cb.OnAssistantEnd(ctx, ast, "test input", &assistants.Turn{Answer: "test output"})
	cb.OnAssistantError(ctx, ast, "test input", errors.New("test error"))
	cb.OnToolStart(ctx, tool, params)
	cb.OnToolEnd(ctx, tool, params, "tool output")
	cb.OnToolError(ctx, tool, params, errors.New("test error"))
	cb.OnToolNotFound(ctx, "missing")

	res := buf.String()
	assert.Contains(t, res, "Assistant Start: test-assistant")
	assert.Contains(t, res, "Input: test input")
	assert.Contains(t, res, "State: EXECUTING_TOOLS")
	assert.Contains(t, res, "Assistant End: test-assistant\ntest output\n")
	assert.Contains(t, res, "Assistant Error: test-assistant: test error")
	assert.Contains(t, res, "Tool Start: test-tool")
	assert.Contains(t, res, `Parameters: {"account_id":"ACC-001"}`)
	assert.Contains(t, res, "Tool End: test-tool")
	assert.Contains(t, res, "Output: tool output")
	assert.Contains(t, res, "Tool Error: test-tool: test error")
	assert.Contains(t, res, "Tool Not Found: missing")
}

func TestPackageLoggerCallback(t *testing.T) {
	ctx := context.Background()
	ast := &fakeAssistant{name: "test-assistant"}
	tool := &fakeTool{name: "test-tool"}

	cb := assistants.NewPackageLoggerCallback(xlog.NewPackageLogger("github.com/effective-security/agentloop", "assistants_test"))
	assert.NotPanics(t, func() {
		cb.OnAssistantStart(ctx, ast, "input")
		cb.OnAssistantState(ctx, ast, assistants.StateDone)
		cb.OnAssistantEnd(ctx, ast, "input", &assistants.Turn{Answer: "answer"})
		cb.OnAssistantError(ctx, ast, "input", errors.New("failed"))
		cb.OnToolStart(ctx, tool, nil)
		cb.OnToolEnd(ctx, tool, nil, "output")
		cb.OnToolError(ctx, tool, nil, errors.New("failed"))
		cb.OnToolNotFound(ctx, "missing")
	})
}

type fakeAssistant struct {
	name string
}

func (f *fakeAssistant) Name() string {
	return f.name
}

func (f *fakeAssistant) Chat(context.Context, string) *assistants.Turn {
	return &assistants.Turn{}
}

func (f *fakeAssistant) Run(context.Context, string, []llms.Message) *assistants.Turn {
	return &assistants.Turn{}
}

func (f *fakeAssistant) History() []llms.Message { return nil }
func (f *fakeAssistant) ClearHistory()           {}

type fakeTool struct {
	name string
}

var _ tools.ITool = (*fakeTool)(nil)

func (f *fakeTool) Name() string {
	return f.name
}

func (f *fakeTool) Description() string {
	return "useful tool"
}

func (f *fakeTool) Parameters() *jsonschema.Schema {
	return nil
}

func (f *fakeTool) Call(context.Context, map[string]any) (any, error) {
	return "", nil
}
