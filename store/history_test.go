package store_test

import (
	"sync"
	"testing"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/store"
	"github.com/stretchr/testify/assert"
)

func Test_History(t *testing.T) {
	h := store.NewHistory()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Messages())

	h.AppendTurn("Hello", "Hi there!")
	h.AppendTurn("How is Acme?", "Acme is doing well.")
	assert.Equal(t, 4, h.Len())
	assert.Equal(t, []llms.Message{
		llms.HumanMessage("Hello"),
		llms.AIMessage("Hi there!"),
		llms.HumanMessage("How is Acme?"),
		llms.AIMessage("Acme is doing well."),
	}, h.Messages())

	// returned slice is a copy
	msgs := h.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "Hello", h.Messages()[0].Content)

	h.Reset()
	assert.Equal(t, 0, h.Len())
	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Messages())
}

func Test_HistoryPrior(t *testing.T) {
	prior := []llms.Message{llms.HumanMessage("q"), llms.AIMessage("a")}
	h := store.NewHistory(prior...)
	assert.Equal(t, 2, h.Len())

	prior[0].Content = "changed"
	assert.Equal(t, "q", h.Messages()[0].Content)
}

func Test_HistoryConcurrent(t *testing.T) {
	h := store.NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AppendTurn("q", "a")
			_ = h.Messages()
		}()
	}
	wg.Wait()

	assert.Equal(t, 40, h.Len())
	msgs := h.Messages()
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, llms.RoleHuman, msgs[i].Role)
		assert.Equal(t, llms.RoleAI, msgs[i+1].Role)
	}
}
