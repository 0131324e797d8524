package llms_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	assert.Equal(t, llms.Message{Role: llms.RoleSystem, Content: "s"}, llms.SystemMessage("s"))
	assert.Equal(t, llms.Message{Role: llms.RoleHuman, Content: "h"}, llms.HumanMessage("h"))
	assert.Equal(t, llms.Message{Role: llms.RoleAI, Content: "a"}, llms.AIMessage("a"))
	assert.Equal(t, "ASSISTANT: a", llms.AIMessage("a").String())

	assert.True(t, llms.RoleHuman.IsValid())
	assert.False(t, llms.Role("tool").IsValid())
}

func TestFirstContent(t *testing.T) {
	var resp *llms.ContentResponse
	assert.Empty(t, resp.FirstContent())
	assert.Empty(t, (&llms.ContentResponse{}).FirstContent())
	assert.Equal(t, "one", (&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "one"}, {Content: "two"}}}).FirstContent())
}

func TestCallOptions(t *testing.T) {
	opts := llms.NewCallOptions(
		llms.WithModel("m"),
		llms.WithMaxTokens(10),
		llms.WithTemperature(0.1),
		llms.WithTopP(0.2),
		llms.WithStopWords([]string{"x"}),
	)
	assert.Equal(t, &llms.CallOptions{Model: "m", MaxTokens: 10, Temperature: 0.1, TopP: 0.2, StopWords: []string{"x"}}, opts)

	opts = llms.NewCallOptions(llms.WithOptions(*opts), llms.WithModel("n"))
	assert.Equal(t, "n", opts.Model)
	assert.Equal(t, 10, opts.MaxTokens)
}

func TestErrors(t *testing.T) {
	cause := errors.New("connection refused")

	err := llms.NewTransportError(0, cause)
	assert.EqualError(t, err, "request failed: connection refused")
	assert.True(t, llms.IsTransportError(err))
	assert.False(t, llms.IsProtocolError(err))
	assert.True(t, errors.Is(err, cause))

	err = llms.NewTransportError(503, cause)
	assert.EqualError(t, err, "request failed: status 503: connection refused")

	wrapped := errors.WithMessage(err, "first call")
	assert.True(t, llms.IsTransportError(wrapped))

	err = llms.NewProtocolError(llms.ErrNoCompletion)
	assert.EqualError(t, err, "no completion returned")
	assert.True(t, llms.IsProtocolError(err))
	assert.False(t, llms.IsTransportError(err))
	assert.True(t, errors.Is(err, llms.ErrNoCompletion))
}
