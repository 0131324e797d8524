package toolcall

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel is the marker the model emits to request a tool.
const Sentinel = "TOOL_CALL:"

// Syntax is the grammar of the directive parameter payload.
type Syntax string

const (
	// SyntaxJSON is `TOOL_CALL: name {json object}`
	SyntaxJSON Syntax = "json"
	// SyntaxKeyValue is `TOOL_CALL: name(key="value", ...)`
	SyntaxKeyValue Syntax = "key_value"
)

// ParseSyntax returns the Syntax for the name, empty name returns SyntaxJSON.
func ParseSyntax(name string) (Syntax, error) {
	switch Syntax(strings.ToLower(strings.TrimSpace(name))) {
	case "", SyntaxJSON:
		return SyntaxJSON, nil
	case SyntaxKeyValue, "kv", "keyvalue":
		return SyntaxKeyValue, nil
	}
	return "", errors.Newf("unsupported tool call syntax: %q", name)
}

func (s Syntax) String() string {
	return string(s)
}

// Format renders the request as a directive.
func (s Syntax) Format(r Request) string {
	if s == SyntaxKeyValue {
		keys := make([]string, 0, len(r.Parameters))
		for k := range r.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		args := make([]string, 0, len(keys))
		for _, k := range keys {
			v := r.Parameters[k]
			switch val := v.(type) {
			case nil:
				args = append(args, k+"=None")
			case string:
				args = append(args, fmt.Sprintf("%s=%q", k, val))
			default:
				args = append(args, fmt.Sprintf("%s=%v", k, val))
			}
		}
		return fmt.Sprintf("%s %s(%s)", Sentinel, r.Name, strings.Join(args, ", "))
	}

	params := r.Parameters
	if params == nil {
		params = map[string]any{}
	}
	js, _ := json.Marshal(params)
	return fmt.Sprintf("%s %s %s", Sentinel, r.Name, js)
}

// Instructions returns the prompt text that tells the model how to
// request a tool, with the example rendered in this syntax.
func (s Syntax) Instructions(example Request) string {
	var usage string
	if s == SyntaxKeyValue {
		usage = Sentinel + ` {tool_name}(param1="value1", param2="value2")`
	} else {
		usage = Sentinel + " {tool_name} {parameters_as_json}"
	}
	return "To use a tool, respond with: " + usage + "\nExample: " + s.Format(example)
}
