package assistants

import (
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/prompts"
	"github.com/effective-security/agentloop/toolcall"
)

// DefaultSystemPrompt is the persona used when none is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant. Be professional, helpful, and detailed in your responses."

// DefaultName is the name used when none is configured.
const DefaultName = "assistant"

// Option is a function that can be used to modify the behavior of the Assistant Config.
type Option func(*Config)

// Config is the Assistant configuration.
type Config struct {
	// Name is used in logs and metrics.
	Name string

	// SystemPrompt is the persona template, the tool catalog is appended to it.
	SystemPrompt prompts.PromptTemplate
	// PromptInput are the values for the SystemPrompt template.
	PromptInput map[string]any

	// Syntax is the tool call directive syntax taught to the model.
	Syntax toolcall.Syntax

	// Model overrides the model of the client.
	Model string
	// MaxTokens is the maximum number of tokens to generate, client default if zero.
	MaxTokens int
	// Temperature is the temperature for sampling, client default if zero.
	Temperature float64
	// TopP is the cumulative probability for top-p sampling, client default if zero.
	TopP float64

	// CallbackHandler is notified on turn progress and tool calls.
	CallbackHandler Callback
}

// NewConfig returns the config with options applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Name:         DefaultName,
		SystemPrompt: prompts.NewPromptTemplate(DefaultSystemPrompt, nil),
		Syntax:       toolcall.SyntaxJSON,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// GetCallOptions returns the completion call options for the config.
func (cfg *Config) GetCallOptions() []llms.CallOption {
	var opts []llms.CallOption
	if cfg.Model != "" {
		opts = append(opts, llms.WithModel(cfg.Model))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(cfg.Temperature))
	}
	if cfg.TopP > 0 {
		opts = append(opts, llms.WithTopP(cfg.TopP))
	}
	return opts
}

// WithName sets the name of the Assistant.
func WithName(name string) Option {
	return func(o *Config) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithSystemPrompt sets the persona, the text may be a template.
func WithSystemPrompt(text string) Option {
	return func(o *Config) {
		o.SystemPrompt = prompts.NewPromptTemplate(text, nil)
	}
}

// WithPromptTemplate sets the persona template.
func WithPromptTemplate(tmpl prompts.PromptTemplate) Option {
	return func(o *Config) {
		o.SystemPrompt = tmpl
	}
}

// WithPromptInput is an option that allows the user to specify the system prompt input.
func WithPromptInput(input map[string]any) Option {
	return func(o *Config) {
		o.PromptInput = input
	}
}

// WithSyntax sets the tool call directive syntax.
func WithSyntax(syntax toolcall.Syntax) Option {
	return func(o *Config) {
		o.Syntax = syntax
	}
}

// WithModel overrides the model of the client.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
	}
}

// WithTopP sets the top-p sampling.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
	}
}

// WithCallback sets the callback handler.
func WithCallback(callback Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callback
	}
}
