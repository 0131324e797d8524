package store

import (
	"slices"
	"sync"

	"github.com/effective-security/agentloop/pkg/llms"
)

// History is an in-memory MessageStore.
// It only grows by whole turns, a (user, assistant) pair.
type History struct {
	mu       sync.RWMutex
	messages []llms.Message
}

var _ MessageStore = (*History)(nil)

// NewHistory returns a history seeded with prior messages.
func NewHistory(prior ...llms.Message) *History {
	return &History{
		messages: slices.Clone(prior),
	}
}

func (h *History) Messages() []llms.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages)
}

func (h *History) AppendTurn(input, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, llms.HumanMessage(input), llms.AIMessage(answer))
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
