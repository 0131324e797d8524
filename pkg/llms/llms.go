package llms

import (
	"context"
)

//go:generate mockgen -destination=../../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/agentloop/pkg/llms Model

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderOpenAI is an OpenAI compatible chat completion endpoint,
	// for example vLLM or Ollama serving a local model.
	ProviderOpenAI ProviderType = "OPENAI"
)

// Model is an interface text completion models implement.
type Model interface {
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GetName returns the model name.
	GetName() string
	// GenerateContent asks the model to generate content from a sequence of
	// messages. The first message must have RoleSystem.
	//
	// Errors are *TransportError when the endpoint could not be reached or
	// replied with a failure, and *ProtocolError when the reply was well
	// formed but carried no completion.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}
