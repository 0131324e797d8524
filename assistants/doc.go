// Package assistants implements the tool calling conversation loop.
//
// An Assistant sends the system prompt, with the tool catalog, the history and the
// user input to the model. When the reply carries TOOL_CALL directives, the tools
// are executed in order and their results are sent back in a second call that
// produces the final answer. Only the user input and the final answer are kept in
// the history, and a failed turn leaves the history unchanged.
package assistants
