package tools

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/schema"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "tools")

// Registry holds the tools available to an assistant.
// A tool registered with an existing name replaces the previous one
// and keeps its position in the catalog.
type Registry struct {
	lock  sync.RWMutex
	tools map[string]ITool
	names []string
}

// NewRegistry returns a registry with the tools registered in order.
func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]ITool),
	}
	for _, t := range list {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds the tool, or replaces the tool with the same name.
func (r *Registry) Register(tool ITool) error {
	if tool == nil {
		return errors.New("tool is nil")
	}
	name := tool.Name()
	if name == "" {
		return errors.New("tool name is required")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.tools == nil {
		r.tools = make(map[string]ITool)
	}
	if _, ok := r.tools[name]; ok {
		logger.KV(xlog.NOTICE, "status", "tool_replaced", "tool", name)
	} else {
		r.names = append(r.names, name)
	}
	r.tools[name] = tool
	return nil
}

// Lookup returns the tool by exact name.
func (r *Registry) Lookup(name string) (ITool, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string(nil), r.names...)
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []ITool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]ITool, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.tools[name])
	}
	return list
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.names)
}

// Describe returns the tool catalog for the system prompt,
// with the directive instructions for the syntax.
// It returns an empty string when no tools are registered.
func (r *Registry) Describe(syntax toolcall.Syntax) string {
	list := r.Tools()
	if len(list) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You have access to the following tools:\n")
	for _, t := range list {
		b.WriteString("\n- ")
		b.WriteString(t.Name())
		b.WriteString(": ")
		b.WriteString(t.Description())
		if params := t.Parameters(); params != nil && params.Properties != nil && params.Properties.Len() > 0 {
			b.WriteString("\n  Parameters: ")
			b.WriteString(schema.String(params))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(syntax.Instructions(exampleRequest(list[0])))
	return b.String()
}

// exampleRequest returns a call of the tool with its first property,
// using the property example or default value.
func exampleRequest(t ITool) toolcall.Request {
	req := toolcall.Request{Name: t.Name(), Parameters: map[string]any{}}

	params := t.Parameters()
	names := schema.PropertyNames(params)
	if len(names) == 0 {
		return req
	}
	prop, _ := params.Properties.Get(names[0])
	req.Parameters[names[0]] = exampleValue(prop)
	return req
}

func exampleValue(prop *jsonschema.Schema) any {
	switch {
	case prop == nil:
	case len(prop.Examples) > 0:
		return prop.Examples[0]
	case prop.Default != nil:
		return prop.Default
	case len(prop.Enum) > 0:
		return prop.Enum[0]
	}
	return "value"
}
