package llmutils_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func Test_Stringify(t *testing.T) {
	assert.Equal(t, "null", llmutils.Stringify(nil))
	assert.Equal(t, "plain", llmutils.Stringify("plain"))
	assert.Equal(t, "boom", llmutils.Stringify(errors.New("boom")))
	assert.Equal(t, "{\n  \"a\": 1\n}", llmutils.Stringify(map[string]int{"a": 1}))
	assert.Equal(t, "[\n  1,\n  2\n]", llmutils.Stringify([]int{1, 2}))
	assert.Equal(t, "42", llmutils.Stringify(42))
	assert.Equal(t, "USER: hi", llmutils.Stringify(llms.HumanMessage("hi")))
}

func Test_ToYAML(t *testing.T) {
	assert.Equal(t, "a: 1\n", llmutils.ToYAML(map[string]int{"a": 1}))
	assert.Equal(t, `{"a":1}`, llmutils.ToJSON(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}", llmutils.ToJSONIndent(map[string]int{"a": 1}))
}

func Test_Counts(t *testing.T) {
	msgs := []llms.Message{
		llms.SystemMessage("sys"),
		llms.HumanMessage("question"),
		llms.AIMessage("answer"),
	}
	assert.Equal(t, uint64(len("system")+3+len("user")+8+len("assistant")+6), llmutils.CountMessagesContentSize(msgs))

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: "answer",
				GenerationInfo: map[string]any{
					"InputTokens":  int64(10),
					"OutputTokens": int64(5),
					"TotalTokens":  int64(15),
				},
			},
		},
	}
	in, out, total := llmutils.CountTokens(resp)
	assert.Equal(t, int64(10), in)
	assert.Equal(t, int64(5), out)
	assert.Equal(t, int64(15), total)
	assert.Equal(t, uint64(6), llmutils.CountResponseContentSize(resp))

	in, out, total = llmutils.CountTokens(nil)
	assert.Zero(t, in+out+total)
}

func Test_PrintMessages(t *testing.T) {
	var buf bytes.Buffer
	llmutils.PrintMessages(&buf, []llms.Message{llms.HumanMessage("hi"), llms.AIMessage("hello")})
	assert.Equal(t, "USER: hi\nASSISTANT: hello\n", buf.String())
}

func Test_EnsureEndsWithNewline(t *testing.T) {
	assert.Equal(t, "", llmutils.EnsureEndsWithNewline("  "))
	assert.Equal(t, "text\n", llmutils.EnsureEndsWithNewline(" text "))
}
