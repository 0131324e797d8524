// Package llms provides the types for talking to a text completion model:
// chat messages, call options, responses and the typed transport and protocol errors.
//
// The `openai` subpackage implements Model over an OpenAI compatible
// `/v1/chat/completions` endpoint, such as vLLM serving a Granite model.
package llms
