package assistants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/agentloop/store"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

const (
	// ErrorPrefix starts the answer of a turn whose first completion failed.
	ErrorPrefix = "Error: "
	// FinalErrorPrefix starts the answer of a turn whose final completion failed.
	FinalErrorPrefix = "Error in final response: "
)

// Assistant runs chat turns with tool calling.
//
// An Assistant owns its history and is meant for one conversation:
// turns on the same Assistant must not run concurrently.
type Assistant struct {
	llm      llms.Model
	registry *tools.Registry
	executor *tools.Executor
	parser   *toolcall.Parser
	history  store.MessageStore
	cfg      *Config
}

var _ IAssistant = (*Assistant)(nil)

// NewAssistant returns an Assistant for the model with the tools from the registry.
func NewAssistant(llmModel llms.Model, registry *tools.Registry, options ...Option) (*Assistant, error) {
	if llmModel == nil {
		return nil, errors.New("model is required")
	}
	if registry == nil {
		registry, _ = tools.NewRegistry()
	}

	cfg := NewConfig(options...)
	syntax, err := toolcall.ParseSyntax(string(cfg.Syntax))
	if err != nil {
		return nil, err
	}
	cfg.Syntax = syntax

	var callbacks []tools.Callback
	if cfg.CallbackHandler != nil {
		callbacks = append(callbacks, cfg.CallbackHandler)
	}

	return &Assistant{
		llm:      llmModel,
		registry: registry,
		executor: tools.NewExecutor(registry, callbacks...),
		parser:   toolcall.NewParser(cfg.Syntax),
		history:  store.NewHistory(),
		cfg:      cfg,
	}, nil
}

// Name returns the name of the Assistant.
func (a *Assistant) Name() string {
	return a.cfg.Name
}

// Registry returns the tools of the Assistant.
func (a *Assistant) Registry() *tools.Registry {
	return a.registry
}

// Executor returns the executor for the Assistant tools.
func (a *Assistant) Executor() *tools.Executor {
	return a.executor
}

// History returns a copy of the conversation history.
func (a *Assistant) History() []llms.Message {
	return a.history.Messages()
}

// ClearHistory resets the conversation history.
func (a *Assistant) ClearHistory() {
	a.history.Reset()
}

// SystemPrompt returns the rendered persona followed by the tool catalog.
func (a *Assistant) SystemPrompt() (string, error) {
	persona, err := a.cfg.SystemPrompt.Format(a.cfg.PromptInput)
	if err != nil {
		return "", errors.WithMessage(err, "failed to render system prompt")
	}

	catalog := a.registry.Describe(a.cfg.Syntax)
	if catalog == "" {
		return persona, nil
	}
	return strings.TrimRight(persona, "\n") + "\n\n" + catalog, nil
}

// Chat runs one turn on the owned history.
// The history grows by the input and the final answer when the turn succeeds,
// and is left unchanged when it fails.
func (a *Assistant) Chat(ctx context.Context, input string) *Turn {
	turn := a.Run(ctx, input, a.history.Messages())
	if turn.Err == nil {
		a.history.AppendTurn(input, turn.Answer)
	}
	return turn
}

// Run runs one turn on the prior messages, the owned history is not used.
// It never fails: a failed completion is reported as the Turn answer text
// with the typed error in Turn.Err.
func (a *Assistant) Run(ctx context.Context, input string, prior []llms.Message) *Turn {
	started := time.Now()
	defer metricskey.PerfAssistantCall.MeasureSince(started, a.Name())

	cb := a.cfg.CallbackHandler
	if cb != nil {
		cb.OnAssistantStart(ctx, a, input)
	}

	turn := &Turn{Input: input}
	a.enter(ctx, turn, StateBuildingRequest)

	system, err := a.SystemPrompt()
	if err != nil {
		return a.fail(ctx, turn, err, ErrorPrefix)
	}

	messages := make([]llms.Message, 0, len(prior)+4)
	messages = append(messages, llms.SystemMessage(system))
	messages = append(messages, prior...)
	messages = append(messages, llms.HumanMessage(input))

	a.enter(ctx, turn, StateAwaitingFirstCompletion)
	turn.Messages = messages
	text, err := a.complete(ctx, messages)
	if err != nil {
		return a.fail(ctx, turn, err, ErrorPrefix)
	}

	requests := a.parser.Parse(text)
	if len(requests) == 0 {
		turn.Answer = text
		return a.done(ctx, turn)
	}

	metricskey.StatsAssistantToolTurns.IncrCounter(1, a.Name())
	a.enter(ctx, turn, StateExecutingTools)

	results := make([]string, 0, len(requests))
	for _, req := range requests {
		res := a.executor.Execute(ctx, req.Name, req.Parameters)
		turn.ToolCalls = append(turn.ToolCalls, res)
		results = append(results, fmt.Sprintf("Tool '%s' result: %s", res.ToolName, res.Output))
	}

	messages = append(messages,
		llms.AIMessage(text),
		llms.HumanMessage(ToolResultsPrompt(results)),
	)

	a.enter(ctx, turn, StateAwaitingFinalCompletion)
	turn.Messages = messages
	final, err := a.complete(ctx, messages)
	if err != nil {
		return a.fail(ctx, turn, err, FinalErrorPrefix)
	}

	turn.Answer = final
	return a.done(ctx, turn)
}

// ToolResultsPrompt returns the user message carrying the tool results
// to the final completion.
func ToolResultsPrompt(results []string) string {
	return "Tool execution results:\n" + strings.Join(results, "\n\n") +
		"\n\nBased on these results, please provide a comprehensive response to the original question."
}

func (a *Assistant) complete(ctx context.Context, messages []llms.Message) (string, error) {
	resp, err := a.llm.GenerateContent(ctx, messages, a.cfg.GetCallOptions()...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", llms.NewProtocolError(llms.ErrNoCompletion)
	}
	return resp.FirstContent(), nil
}

func (a *Assistant) enter(ctx context.Context, turn *Turn, state State) {
	turn.States = append(turn.States, state)
	if a.cfg.CallbackHandler != nil {
		a.cfg.CallbackHandler.OnAssistantState(ctx, a, state)
	}
}

func (a *Assistant) done(ctx context.Context, turn *Turn) *Turn {
	a.enter(ctx, turn, StateDone)
	metricskey.StatsAssistantCallsSucceeded.IncrCounter(1, a.Name())

	if a.cfg.CallbackHandler != nil {
		a.cfg.CallbackHandler.OnAssistantEnd(ctx, a, turn.Input, turn)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"assistant", a.Name(),
		"status", "turn_done",
		"input", slices.StringUpto(turn.Input, 64),
		"tools", len(turn.ToolCalls),
	)
	return turn
}

func (a *Assistant) fail(ctx context.Context, turn *Turn, err error, prefix string) *Turn {
	failedIn := turn.State()
	turn.Err = err
	turn.Answer = prefix + err.Error()
	a.enter(ctx, turn, StateDone)
	metricskey.StatsAssistantCallsFailed.IncrCounter(1, a.Name())

	if a.cfg.CallbackHandler != nil {
		a.cfg.CallbackHandler.OnAssistantError(ctx, a, turn.Input, err)
	}

	logger.ContextKV(ctx, xlog.ERROR,
		"assistant", a.Name(),
		"status", "turn_failed",
		"state", failedIn.String(),
		"input", slices.StringUpto(turn.Input, 64),
		"err", err.Error(),
	)
	return turn
}
