// Package store keeps the conversation history of an assistant.
package store

import "github.com/effective-security/agentloop/pkg/llms"

// MessageStore is the conversation history of one session.
type MessageStore interface {
	// Messages returns a copy of the history, oldest first.
	Messages() []llms.Message
	// AppendTurn adds one completed turn: the user input and the final answer.
	AppendTurn(input, answer string)
	// Reset clears the history.
	Reset()
	// Len returns the number of messages.
	Len() int
}
