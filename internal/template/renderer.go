package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Renderer renders Go text/templates with the sprig and imagereport function map.
type Renderer struct {
	funcMap template.FuncMap
}

// NewRenderer creates a Renderer with the standard function map.
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: FuncMap(),
	}
}

// RenderFile reads a template file and renders it with data.
func (r *Renderer) RenderFile(tmplPath string, data any) ([]byte, error) {
	text, err := os.ReadFile(filepath.Clean(tmplPath))
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", tmplPath, err)
	}

	return r.render(filepath.Base(tmplPath), string(text), data)
}

// RenderString renders an inline template string with data.
func (r *Renderer) RenderString(tmpl string, data any) (string, error) {
	result, err := r.render("inline", tmpl, data)
	if err != nil {
		return "", err
	}

	return string(result), nil
}

func (r *Renderer) render(name, text string, data any) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(r.funcMap).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %q: %w", name, err)
	}

	return buf.Bytes(), nil
}
