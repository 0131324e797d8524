package prompts_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTemplate(t *testing.T) {
	t.Parallel()

	p := prompts.NewPromptTemplate(
		"You are a helpful AI assistant for {{ .Company }}. Today is {{ .Day | lower }}.",
		[]string{"Company"},
	).WithPartials(map[string]any{"Day": "MONDAY", "Company": "Default"})

	res, err := p.Format(map[string]any{"Company": "ParasolCloud"})
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful AI assistant for ParasolCloud. Today is monday.", res)

	res, err = p.Format(nil)
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful AI assistant for Default. Today is monday.", res)

	_, err = prompts.NewPromptTemplate("Hi {{ .Name }}", []string{"Name"}).Format(map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, prompts.ErrMissingVariable))
	assert.EqualError(t, err, "Name: missing input variable")
}

func TestRender(t *testing.T) {
	t.Parallel()

	res, err := prompts.Render("plain {text}", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain {text}", res)

	res, err = prompts.Render(`{{ default "ParasolCloud" .Company }}`, map[string]any{})
	require.Error(t, err, "missing keys fail")
	assert.Empty(t, res)

	res, err = prompts.Render(`{{ .Items | join ", " }}`, map[string]any{"Items": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a, b", res)

	_, err = prompts.Render("{{ .Broken ", nil)
	assert.ErrorContains(t, err, "failed to parse template")
}
