package tools

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidParameters is returned when the parameters can not be
// decoded into, or do not validate against, the tool input.
var ErrInvalidParameters = errors.New("invalid parameters")

// UnknownToolError is returned when the requested tool is not registered.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool `%s` not found, available tools: %s", e.Name, strings.Join(e.Available, ", "))
}

// ExecutionError is returned when a registered tool failed.
type ExecutionError struct {
	Name  string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to call tool %s: %s", e.Name, e.Cause.Error())
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IsUnknownTool returns true if err is, or wraps, an UnknownToolError.
func IsUnknownTool(err error) bool {
	var ue *UnknownToolError
	return errors.As(err, &ue)
}

// IsExecutionError returns true if err is, or wraps, an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// Render returns the text shown to the model for a failed tool call.
func Render(err error) string {
	var ue *UnknownToolError
	if errors.As(err, &ue) {
		return fmt.Sprintf("Error: Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s",
			ue.Name, strings.Join(ue.Available, ", "))
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return fmt.Sprintf("Error executing tool '%s': %s", ee.Name, ee.Cause.Error())
	}
	return "Error: " + err.Error()
}
