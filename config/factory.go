package config

import (
	"context"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/crm"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/openai"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "config")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// NewRepository is a wrapper for OpenRepository to allow for overriding the default implementation.
var NewRepository = OpenRepository

// OpenRepository returns the PostgreSQL CRM repository.
func OpenRepository(ctx context.Context, dsn string) (crm.Repository, error) {
	repo, err := crm.NewPostgresRepository(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// CreateLLM returns the client for the completion endpoint.
func CreateLLM(cfg *LLMConfig) (llms.Model, error) {
	timeout, err := cfg.CallTimeout()
	if err != nil {
		return nil, err
	}

	temperature, topP := cfg.Sampling()
	opts := []openai.Option{
		openai.WithBaseURL(cfg.Endpoint),
		openai.WithModel(cfg.Model),
		openai.WithTimeout(timeout),
		openai.WithDefaultSampling(cfg.MaxTokens, temperature, topP),
	}
	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	return openai.New(opts...)
}

// ToolCallSyntax returns the configured tool call syntax.
func (c *AgentConfig) ToolCallSyntax() toolcall.Syntax {
	syntax, err := toolcall.ParseSyntax(c.Syntax)
	if err != nil {
		return toolcall.SyntaxJSON
	}
	return syntax
}

// AssistantOptions returns the options for an Assistant with this configuration.
func (c *Config) AssistantOptions(extra ...assistants.Option) []assistants.Option {
	opts := []assistants.Option{
		assistants.WithName(c.Agent.Name),
		assistants.WithSystemPrompt(values.StringsCoalesce(c.Agent.SystemPrompt, crm.SystemPrompt)),
		assistants.WithPromptInput(map[string]any{"Company": c.Agent.Company}),
		assistants.WithSyntax(c.Agent.ToolCallSyntax()),
	}
	return append(opts, extra...)
}

// Registry returns the tool registry, with the CRM tools when a database is configured.
// The returned repository is nil when no database is configured.
func (c *Config) Registry(ctx context.Context) (*tools.Registry, crm.Repository, error) {
	registry, err := tools.NewRegistry()
	if err != nil {
		return nil, nil, err
	}
	if c.Database.DSN == "" {
		logger.KV(xlog.WARNING, "status", "no_database", "reason", "CRM tools are not registered")
		return registry, nil, nil
	}

	repo, err := NewRepository(ctx, c.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err = crm.NewTools(repo).Register(registry); err != nil {
		return nil, nil, err
	}
	return registry, repo, nil
}
