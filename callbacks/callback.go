package callbacks

import (
	"context"
	"sync"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/tools"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ assistants.Callback = (*Fanout)(nil)
	_ tools.Callback      = (*Fanout)(nil)
	_ assistants.Callback = (*Scratchpad)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []assistants.Callback
	lock      sync.RWMutex
}

func NewFanout(callbacks ...assistants.Callback) *Fanout {
	f := &Fanout{}
	for _, cb := range callbacks {
		f.Add(cb)
	}
	return f
}

// Add adds the callback, nil is ignored.
func (l *Fanout) Add(callback assistants.Callback) {
	if callback == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// Len returns the number of callbacks.
func (l *Fanout) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.callbacks)
}

func (l *Fanout) each(fn func(assistants.Callback)) {
	l.lock.RLock()
	list := l.callbacks
	l.lock.RUnlock()
	for _, cb := range list {
		fn(cb)
	}
}

func (l *Fanout) OnAssistantStart(ctx context.Context, assistant assistants.IAssistant, input string) {
	l.each(func(cb assistants.Callback) { cb.OnAssistantStart(ctx, assistant, input) })
}

func (l *Fanout) OnAssistantState(ctx context.Context, assistant assistants.IAssistant, state assistants.State) {
	l.each(func(cb assistants.Callback) { cb.OnAssistantState(ctx, assistant, state) })
}

func (l *Fanout) OnAssistantEnd(ctx context.Context, assistant assistants.IAssistant, input string, turn *assistants.Turn) {
	l.each(func(cb assistants.Callback) { cb.OnAssistantEnd(ctx, assistant, input, turn) })
}

func (l *Fanout) OnAssistantError(ctx context.Context, assistant assistants.IAssistant, input string, err error) {
	l.each(func(cb assistants.Callback) { cb.OnAssistantError(ctx, assistant, input, err) })
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, params map[string]any) {
	l.each(func(cb assistants.Callback) { cb.OnToolStart(ctx, tool, params) })
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, params map[string]any, output string) {
	l.each(func(cb assistants.Callback) { cb.OnToolEnd(ctx, tool, params, output) })
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, params map[string]any, err error) {
	l.each(func(cb assistants.Callback) { cb.OnToolError(ctx, tool, params, err) })
}

func (l *Fanout) OnToolNotFound(ctx context.Context, name string) {
	l.each(func(cb assistants.Callback) { cb.OnToolNotFound(ctx, name) })
}
