package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms/openai"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/go-playground/validator/v10"
)

// Defaults
const (
	DefaultEndpoint = "http://localhost:8000"
	DefaultModel    = "ibm-granite/granite-3.3-2b-instruct"
	DefaultListen   = ":5000"
	DefaultCompany  = "ParasolCloud"
)

// Environment variables used when the value is not configured.
const (
	EnvEndpoint    = "VLLM_ENDPOINT"
	EnvModel       = "MODEL_NAME"
	EnvToken       = "VLLM_TOKEN"
	EnvDatabaseURL = "DATABASE_URL"
)

// Config is the configuration of the assistant.
type Config struct {
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Agent    AgentConfig    `json:"agent" yaml:"agent"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// LLMConfig specifies the OpenAI compatible completion endpoint.
type LLMConfig struct {
	// Endpoint is the server root, `/v1/chat/completions` is appended to it.
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required"`
	Model    string `json:"model" yaml:"model" validate:"required"`
	// Token is sent as the bearer token, optional.
	Token       string  `json:"token,omitempty" yaml:"token,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"min=0"`
	// Temperature and TopP are optional, an explicit 0 is sent as is.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" validate:"omitempty,min=0,max=1"`
	// Timeout is the per call timeout, for example `60s`.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AgentConfig specifies the assistant persona and tool call syntax.
type AgentConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// SystemPrompt is the persona template, rendered with Company.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Company      string `json:"company,omitempty" yaml:"company,omitempty"`
	// Syntax is the tool call directive syntax: json or key_value.
	Syntax string `json:"syntax,omitempty" yaml:"syntax,omitempty" validate:"omitempty,oneof=json key_value kv keyvalue"`
}

// DatabaseConfig specifies the CRM database.
type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string, the CRM tools are not
	// registered when empty.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// ServerConfig specifies the HTTP server.
type ServerConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Load returns the configuration from the file, with defaults applied.
// An empty file name returns the default configuration.
// Values not set in the file are taken from VLLM_ENDPOINT, MODEL_NAME,
// VLLM_TOKEN and DATABASE_URL when present.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.WithMessagef(err, "failed to load config: %s", file)
		}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills the values that are not configured.
func (c *Config) SetDefaults() {
	c.LLM.Endpoint = values.StringsCoalesce(c.LLM.Endpoint, os.Getenv(EnvEndpoint), DefaultEndpoint)
	c.LLM.Model = values.StringsCoalesce(c.LLM.Model, os.Getenv(EnvModel), DefaultModel)
	c.LLM.Token = values.StringsCoalesce(c.LLM.Token, os.Getenv(EnvToken))
	c.LLM.MaxTokens = values.NumbersCoalesce(c.LLM.MaxTokens, openai.DefaultMaxTokens)
	if c.LLM.Temperature == nil {
		c.LLM.Temperature = ptr(openai.DefaultTemperature)
	}
	if c.LLM.TopP == nil {
		c.LLM.TopP = ptr(openai.DefaultTopP)
	}
	c.LLM.Timeout = values.StringsCoalesce(c.LLM.Timeout, openai.DefaultTimeout.String())

	c.Database.DSN = values.StringsCoalesce(c.Database.DSN, os.Getenv(EnvDatabaseURL))

	c.Agent.Company = values.StringsCoalesce(c.Agent.Company, DefaultCompany)
	c.Agent.Syntax = values.StringsCoalesce(c.Agent.Syntax, string(toolcall.SyntaxJSON))

	c.Server.Listen = values.StringsCoalesce(c.Server.Listen, DefaultListen)
}

// Validate returns an error if the configuration is not valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	if _, err := c.LLM.CallTimeout(); err != nil {
		return err
	}
	if _, err := toolcall.ParseSyntax(c.Agent.Syntax); err != nil {
		return err
	}
	return nil
}

// Sampling returns the temperature and top-p, client defaults when not set.
func (c *LLMConfig) Sampling() (temperature, topP float64) {
	temperature, topP = openai.DefaultTemperature, openai.DefaultTopP
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	if c.TopP != nil {
		topP = *c.TopP
	}
	return
}

func ptr[T any](v T) *T {
	return &v
}

// CallTimeout returns the parsed Timeout.
func (c *LLMConfig) CallTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return openai.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, errors.Errorf("invalid llm timeout: %q", c.Timeout)
	}
	return d, nil
}
