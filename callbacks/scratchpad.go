package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/slices"
)

var TimeNowFn = time.Now

// RunStats are the counters of a conversation.
type RunStats struct {
	Duration time.Duration

	Turns          uint32
	TurnsSucceeded uint32
	TurnsFailed    uint32
	TurnsWithTools uint32
	LLMCalls       uint32
	TotalMessages  uint32
	LLMBytesOut    uint64
	LLMBytesIn     uint64
	ToolsCalls     uint32
	ToolsSucceeded uint32
	ToolsFailed    uint32
	ToolsNotFound  uint32
}

// Scratchpad records the trace and the statistics of a conversation.
type Scratchpad struct {
	mode    Mode
	started time.Time
	stats   RunStats
	w       bytes.Buffer
	lock    sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		mode:    mode,
		started: TimeNowFn(),
	}
}

// Stats returns the statistics since the scratchpad was created or reset.
func (l *Scratchpad) Stats() RunStats {
	l.lock.Lock()
	defer l.lock.Unlock()
	stats := l.stats
	stats.Duration = TimeNowFn().Sub(l.started)
	return stats
}

// Trace returns the recorded trace.
func (l *Scratchpad) Trace() []byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	return bytes.Clone(l.w.Bytes())
}

// Reset clears the trace and the statistics.
func (l *Scratchpad) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.w.Reset()
	l.stats = RunStats{}
	l.started = TimeNowFn()
}

// Summary returns the statistics as text.
func (l *Scratchpad) Summary() string {
	stats := l.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "Turns: %d, Failed: %d, With tools: %d\n",
		stats.Turns,
		stats.TurnsFailed,
		stats.TurnsWithTools,
	)
	fmt.Fprintf(&b, "Tool calls: %d, Failed: %d, Not Found: %d\n",
		stats.ToolsCalls,
		stats.ToolsFailed,
		stats.ToolsNotFound,
	)
	fmt.Fprintf(&b, "LLM calls: %d, Messages: %d, Bytes Out: %d, Bytes In: %d\n",
		stats.LLMCalls,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
	)
	fmt.Fprintf(&b, "Duration: %s\n", stats.Duration.Round(time.Millisecond))
	return b.String()
}

func (l *Scratchpad) OnAssistantStart(_ context.Context, assistant assistants.IAssistant, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.Turns++
	l.print(assistant.Name(), "*** Turn Start ***")
	l.print(assistant.Name(), "Input:", input)
}

func (l *Scratchpad) OnAssistantState(_ context.Context, assistant assistants.IAssistant, state assistants.State) {
	l.lock.Lock()
	defer l.lock.Unlock()
	switch state {
	case assistants.StateAwaitingFirstCompletion, assistants.StateAwaitingFinalCompletion:
		l.stats.LLMCalls++
	case assistants.StateExecutingTools:
		l.stats.TurnsWithTools++
	}
	if l.mode == ModeVerbose {
		l.print(assistant.Name(), "State:", state.String())
	}
}

func (l *Scratchpad) OnAssistantEnd(_ context.Context, assistant assistants.IAssistant, _ string, turn *assistants.Turn) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.TurnsSucceeded++
	l.countMessages(turn)
	l.stats.LLMBytesIn += uint64(len(turn.Answer))

	if l.mode == ModeVerbose {
		l.print(assistant.Name(), "Output:", turn.Answer)
	}
	l.print(assistant.Name(), "*** Turn End ***")
}

func (l *Scratchpad) OnAssistantError(_ context.Context, assistant assistants.IAssistant, _ string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.TurnsFailed++
	l.print(assistant.Name(), "*** Error ***", err.Error())
}

// countMessages counts the last completion request of the turn.
func (l *Scratchpad) countMessages(turn *assistants.Turn) {
	l.stats.TotalMessages += uint32(len(turn.Messages))
	l.stats.LLMBytesOut += llmutils.CountMessagesContentSize(turn.Messages)
}

func (l *Scratchpad) OnToolStart(_ context.Context, tool tools.ITool, params map[string]any) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.ToolsCalls++
	l.print(tool.Name(), "*** Tool Start ***")
	l.print(tool.Name(), "Parameters:", llmutils.ToJSON(params))
}

func (l *Scratchpad) OnToolEnd(_ context.Context, tool tools.ITool, _ map[string]any, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.ToolsSucceeded++
	if l.mode == ModeVerbose {
		l.print(tool.Name(), "Output:", output)
	} else {
		l.print(tool.Name(), "Output:", slices.StringUpto(output, 80))
	}
	l.print(tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(_ context.Context, tool tools.ITool, _ map[string]any, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.ToolsFailed++
	l.print(tool.Name(), "*** Tool Error ***", err.Error())
}

func (l *Scratchpad) OnToolNotFound(_ context.Context, name string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.stats.ToolsNotFound++
	l.print("*** Tool Not Found ***", name)
}

// print writes the entries to the trace, the lock must be held.
// The entries are written in the following format:
// [timestamp] entry entry\n
func (l *Scratchpad) print(entries ...string) {
	_, _ = l.w.WriteString(TimeNowFn().Format("2006-01-02 15:04:05"))
	_, _ = l.w.WriteString(" ")
	_, _ = l.w.WriteString(strings.Join(entries, " "))
	_, _ = l.w.WriteString("\n")
}
