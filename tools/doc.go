// Package tools defines the tools an assistant can invoke: the ITool interface,
// typed tools built from a Go function, the Registry that renders the tool catalog
// for the system prompt, and the Executor that runs a requested tool and always
// produces text suitable for the next prompt.
package tools
