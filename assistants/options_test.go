package assistants_test

import (
	"testing"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/prompts"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/stretchr/testify/assert"
)

func Test_Config(t *testing.T) {
	t.Parallel()

	cfg := assistants.NewConfig()
	assert.Equal(t, assistants.DefaultName, cfg.Name)
	assert.Equal(t, assistants.DefaultSystemPrompt, cfg.SystemPrompt.Template)
	assert.Equal(t, toolcall.SyntaxJSON, cfg.Syntax)
	assert.Nil(t, cfg.CallbackHandler)
	assert.Empty(t, cfg.GetCallOptions())

	cb := assistants.NewNoopCallback()
	cfg = assistants.NewConfig(
		assistants.WithName("crm"),
		assistants.WithName(""),
		assistants.WithSystemPrompt("You help {{ .Company }}"),
		assistants.WithPromptInput(map[string]any{"Company": "ParasolCloud"}),
		assistants.WithSyntax(toolcall.SyntaxKeyValue),
		assistants.WithModel("granite"),
		assistants.WithMaxTokens(512),
		assistants.WithTemperature(0.1),
		assistants.WithTopP(0.9),
		assistants.WithCallback(cb),
	)
	assert.Equal(t, "crm", cfg.Name)
	assert.Equal(t, "You help {{ .Company }}", cfg.SystemPrompt.Template)
	assert.Equal(t, map[string]any{"Company": "ParasolCloud"}, cfg.PromptInput)
	assert.Equal(t, toolcall.SyntaxKeyValue, cfg.Syntax)
	assert.Same(t, cb, cfg.CallbackHandler)

	opts := llms.NewCallOptions(cfg.GetCallOptions()...)
	assert.Equal(t, &llms.CallOptions{Model: "granite", MaxTokens: 512, Temperature: 0.1, TopP: 0.9}, opts)

	tmpl := prompts.NewPromptTemplate("{{ .X }}", []string{"X"})
	cfg = assistants.NewConfig(assistants.WithPromptTemplate(tmpl))
	assert.Equal(t, tmpl, cfg.SystemPrompt)
}

func Test_State(t *testing.T) {
	t.Parallel()

	for _, s := range []assistants.State{
		assistants.StateBuildingRequest,
		assistants.StateAwaitingFirstCompletion,
		assistants.StateExecutingTools,
		assistants.StateAwaitingFinalCompletion,
		assistants.StateDone,
	} {
		text, err := s.MarshalText()
		assert.NoError(t, err)

		var got assistants.State
		assert.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "EXECUTING_TOOLS", assistants.StateExecutingTools.String())
	assert.Equal(t, "UNKNOWN", assistants.State(42).String())

	var s assistants.State
	assert.EqualError(t, s.UnmarshalText([]byte("WAITING")), "unknown state: WAITING")
}
