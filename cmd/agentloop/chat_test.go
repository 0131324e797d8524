package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/callbacks"
	"github.com/effective-security/agentloop/mocks/mockllms"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type echoRequest struct {
	Text string `json:"text" validate:"required"`
}

func TestREPL(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)

	replies := []string{
		"Hi there!",
		`TOOL_CALL: echo {"text": "ping"}`,
		"The echo said ping.",
		"Fresh start.",
	}
	var sent [][]llms.Message
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			sent = append(sent, msgs)
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: replies[len(sent)-1]}}}, nil
		}).Times(4)

	echo := tools.MustFunc("echo", "Echo the text", func(_ context.Context, in *echoRequest) (*string, error) {
		return &in.Text, nil
	})
	registry, err := tools.NewRegistry(echo)
	require.NoError(t, err)

	a, err := assistants.NewAssistant(m, registry)
	require.NoError(t, err)

	in := strings.NewReader("hello\n\n/history\necho ping\n/clear\nagain\n/exit\nnot read\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), in, &out, a, nil, false))

	text := out.String()
	assert.Contains(t, text, "Hi there!\n")
	assert.Contains(t, text, "USER: hello\nASSISTANT: Hi there!\n")
	assert.Contains(t, text, "The echo said ping.\n")
	assert.Contains(t, text, "Conversation cleared.\n")
	assert.Contains(t, text, "Fresh start.\n")
	assert.True(t, strings.HasSuffix(text, "Bye!\n"), text)

	require.Len(t, sent, 4)
	// cleared history is not sent
	assert.Len(t, sent[3], 2)
}

func TestREPL_Verbose(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
		Return(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Hello"}}}, nil)

	a, err := assistants.NewAssistant(m, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), strings.NewReader("hi\n/stats\n"), &out, a, nil, true))

	text := out.String()
	assert.Contains(t, text, "answer: Hello\n")
	assert.Contains(t, text, "succeeded: true\n")
	assert.Contains(t, text, "- DONE\n")
	assert.Contains(t, text, "Statistics are not collected.\n")
}

func TestREPL_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockllms.NewMockModel(ctrl)
	m.EXPECT().GenerateContent(gomock.Any(), gomock.Any()).
		Return(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Hello"}}}, nil).Times(2)

	stats := callbacks.NewScratchpad(callbacks.ModeDefault)
	a, err := assistants.NewAssistant(m, nil, assistants.WithCallback(stats))
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("hi\nhi again\n/stats\n/clear\n/stats\n")
	require.NoError(t, runREPL(context.Background(), in, &out, a, stats, false))

	text := out.String()
	assert.Contains(t, text, "Turns: 2, Failed: 0, With tools: 0\n")
	assert.Contains(t, text, "Turns: 0, Failed: 0, With tools: 0\n")
	assert.Contains(t, text, "LLM calls: 2,")
}

func TestSetupLogging(t *testing.T) {
	for _, l := range []string{"debug", "info", "notice", "warning", "error", ""} {
		assert.NoError(t, setupLogging(l), l)
	}
	assert.EqualError(t, setupLogging("loud"), "unsupported log level: loud")
	require.NoError(t, setupLogging("error"))
}
