package callbacks_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/callbacks"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) func(d time.Duration) {
	t.Helper()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	saved := callbacks.TimeNowFn
	callbacks.TimeNowFn = func() time.Time { return now }
	t.Cleanup(func() { callbacks.TimeNowFn = saved })
	return func(d time.Duration) { now = now.Add(d) }
}

func TestScratchpad_Trace(t *testing.T) {
	advance := fixedClock(t)

	sp := callbacks.NewScratchpad(callbacks.ModeDefault)
	ctx := context.Background()
	ast := &fakeAssistant{name: "crm"}
	tool := &fakeTool{name: "get_support_cases"}

	sp.OnAssistantStart(ctx, ast, "any open cases?")
	sp.OnToolStart(ctx, tool, map[string]any{"account_id": "1"})
	sp.OnToolEnd(ctx, tool, nil, strings.Repeat("x", 200))
	sp.OnAssistantEnd(ctx, ast, "any open cases?", &assistants.Turn{
		Answer: "none",
		Messages: []llms.Message{
			{Role: llms.RoleSystem, Content: "12345"},
			{Role: llms.RoleHuman, Content: "123"},
		},
	})
	advance(1500 * time.Millisecond)

	trace := string(sp.Trace())
	assert.Contains(t, trace, "2025-03-01 10:00:00 crm *** Turn Start ***\n")
	assert.Contains(t, trace, "crm Input: any open cases?\n")
	assert.Contains(t, trace, `get_support_cases Parameters: {"account_id":"1"}`)
	assert.NotContains(t, trace, strings.Repeat("x", 100))
	assert.Contains(t, trace, "crm *** Turn End ***\n")

	stats := sp.Stats()
	assert.Equal(t, uint32(2), stats.TotalMessages)
	assert.Equal(t, uint64(18), stats.LLMBytesOut)
	assert.Equal(t, uint64(4), stats.LLMBytesIn)
	assert.Equal(t, 1500*time.Millisecond, stats.Duration)

	summary := sp.Summary()
	assert.Contains(t, summary, "Turns: 1, Failed: 0, With tools: 0\n")
	assert.Contains(t, summary, "Tool calls: 1, Failed: 0, Not Found: 0\n")
	assert.Contains(t, summary, "LLM calls: 0, Messages: 2, Bytes Out: 18, Bytes In: 4\n")
	assert.Contains(t, summary, "Duration: 1.5s\n")
}

func TestScratchpad_Reset(t *testing.T) {
	fixedClock(t)

	sp := callbacks.NewScratchpad(callbacks.ModeVerbose)
	ctx := context.Background()
	ast := &fakeAssistant{name: "crm"}

	sp.OnAssistantStart(ctx, ast, "hi")
	sp.OnAssistantError(ctx, ast, "hi", errors.New("connection refused"))
	require.Contains(t, string(sp.Trace()), "crm *** Error *** connection refused")
	assert.Equal(t, uint32(1), sp.Stats().TurnsFailed)

	sp.Reset()
	assert.Empty(t, sp.Trace())
	assert.Equal(t, callbacks.RunStats{}, sp.Stats())
}
