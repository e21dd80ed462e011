package formula

import (
	"fmt"
	"strings"
)

// TemplateError reports a template that could not be loaded.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("failed to load template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Suggestion returns actionable guidance for the failure.
func (e *TemplateError) Suggestion() string {
	return "Check the template path in tapgen.toml"
}

// RenderError reports placeholders left unresolved after rendering.
type RenderError struct {
	Template string
	Tokens   []string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template %s contains unresolved tokens: %s",
		e.Template, strings.Join(e.Tokens, ", "))
}

// Suggestion returns actionable guidance for the failure.
func (e *RenderError) Suggestion() string {
	return "Remove or correct the unknown placeholders in the template"
}
