// Package formula renders Homebrew formula files from the tap's
// template and a release record.
//
// The template uses {{TOKEN}} placeholders. Rendering is strict: any
// placeholder left unresolved after substitution fails the render, so
// a template drifting ahead of the generator can never ship a broken
// formula.
package formula

import (
	"errors"
	"os"
	"strings"
)

// Template is a loaded formula template.
type Template struct {
	path    string
	content string
}

// LoadTemplate reads the template at path.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, &TemplateError{Path: path, Err: errors.New("template is empty")}
	}
	return &Template{path: path, content: string(data)}, nil
}

// Path returns where the template was loaded from.
func (t *Template) Path() string {
	return t.path
}
