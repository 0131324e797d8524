// Package prompts renders prompt templates with Go text/template and the sprig functions.
package prompts

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

// ErrMissingVariable is returned when a declared input variable has no value.
var ErrMissingVariable = errors.New("missing input variable")

// PromptTemplate is a template with declared input variables.
type PromptTemplate struct {
	// Template is text/template source.
	Template string
	// InputVariables must be present in the values passed to Format.
	InputVariables []string
	// PartialVariables are defaults merged under the values passed to Format.
	PartialVariables map[string]any
}

// NewPromptTemplate returns a new prompt template.
func NewPromptTemplate(template string, inputVariables []string) PromptTemplate {
	return PromptTemplate{
		Template:       template,
		InputVariables: inputVariables,
	}
}

// WithPartials returns a copy of the template with the default values.
func (p PromptTemplate) WithPartials(partials map[string]any) PromptTemplate {
	p.PartialVariables = partials
	return p
}

// Format renders the template with the values.
func (p PromptTemplate) Format(values map[string]any) (string, error) {
	merged := make(map[string]any, len(p.PartialVariables)+len(values))
	for k, v := range p.PartialVariables {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}

	for _, name := range p.InputVariables {
		if _, ok := merged[name]; !ok {
			return "", errors.Wrapf(ErrMissingVariable, "%s", name)
		}
	}

	return Render(p.Template, merged)
}

// Render renders text/template source with the sprig functions.
// A reference to a missing key fails.
func Render(source string, values map[string]any) (string, error) {
	if !strings.Contains(source, "{{") {
		return source, nil
	}

	tmpl, err := template.New("prompt").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(source)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse template")
	}

	var b strings.Builder
	if err = tmpl.Execute(&b, values); err != nil {
		return "", errors.Wrap(err, "failed to render template")
	}
	return b.String(), nil
}
