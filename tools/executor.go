package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// Result is the outcome of a tool call.
type Result struct {
	ToolName   string         `json:"tool_name" yaml:"tool_name"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
	// Output is the text folded into the next prompt,
	// the rendered error when the call did not succeed.
	Output    string `json:"output" yaml:"output"`
	Succeeded bool   `json:"succeeded" yaml:"succeeded"`
	// Err is *UnknownToolError or *ExecutionError when the call did not succeed.
	Err error `json:"-" yaml:"-"`
}

// Executor runs tools from a registry.
//
// The executor does not impose a timeout on tools, a tool is bounded by
// the context and by its own I/O.
type Executor struct {
	registry  *Registry
	callbacks []Callback
}

// NewExecutor returns an executor over the registry.
func NewExecutor(registry *Registry, callbacks ...Callback) *Executor {
	return &Executor{
		registry:  registry,
		callbacks: callbacks,
	}
}

// Registry returns the registry the executor dispatches to.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs the tool by name. It never fails: an unknown tool or a failed
// call is returned as a Result with the rendered error as Output.
func (e *Executor) Execute(ctx context.Context, name string, params map[string]any) Result {
	if params == nil {
		params = map[string]any{}
	}
	res := Result{
		ToolName:   name,
		Parameters: params,
	}

	tool, ok := e.registry.Lookup(name)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		for _, cb := range e.callbacks {
			cb.OnToolNotFound(ctx, name)
		}

		res.Err = &UnknownToolError{Name: name, Available: e.registry.Names()}
		res.Output = Render(res.Err)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", name,
			"available_tools", res.Err.(*UnknownToolError).Available,
		)
		return res
	}

	for _, cb := range e.callbacks {
		cb.OnToolStart(ctx, tool, params)
	}

	started := time.Now()
	out, err := safeCall(ctx, tool, params)
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		for _, cb := range e.callbacks {
			cb.OnToolError(ctx, tool, params, err)
		}

		res.Err = &ExecutionError{Name: name, Cause: err}
		res.Output = Render(res.Err)
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "tool_failed",
			"tool", name,
			"err", err.Error(),
		)
		return res
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	res.Output = llmutils.Stringify(out)
	res.Succeeded = true

	for _, cb := range e.callbacks {
		cb.OnToolEnd(ctx, tool, params, res.Output)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_called",
		"tool", name,
		"output", slices.StringUpto(res.Output, 64),
		"elapsed", time.Since(started).String(),
	)
	return res
}

func safeCall(ctx context.Context, tool ITool, params map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %s", fmt.Sprint(r))
		}
	}()
	return tool.Call(ctx, params)
}
