package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderError reports a template that failed to compile or execute.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering template %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Render substitutes {{ variable }} references in text with the values bound
// by vars. Each bound variable is exposed to text/template as a niladic
// function, so references to unbound names fail when the template is parsed.
func Render(name, text string, vars Vars) (string, error) {
	funcs := template.FuncMap{}
	for k, v := range vars.bindings() {
		value := v
		funcs[k] = func() string { return value }
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(text)
	if err != nil {
		return "", &RenderError{Template: name, Err: err}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", &RenderError{Template: name, Err: err}
	}
	return buf.String(), nil
}
