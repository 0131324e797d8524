package llms

import (
	"fmt"
	"strings"
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "user"
	// RoleAI is a message sent by an AI.
	RoleAI Role = "assistant"
)

// IsValid returns true if the role is one of the supported roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAI:
		return true
	}
	return false
}

// Message is the message sent to a LLM.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// SystemMessage returns a message with RoleSystem.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// HumanMessage returns a message with RoleHuman.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AIMessage returns a message with RoleAI.
func AIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), m.Content)
}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info"`
}

// FirstContent returns the content of the first choice,
// or empty string if there are no choices.
func (r *ContentResponse) FirstContent() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0] == nil {
		return ""
	}
	return r.Choices[0].Content
}
