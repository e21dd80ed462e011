// Package ci publishes job outputs when tapgen runs under GitHub
// Actions.
//
// The sync workflow exports the newest release's tag and digest so
// downstream workflow steps can open pull requests or post release
// notes without re-parsing tapgen's stdout. Outside Actions the
// writer is inert.
package ci

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Writer appends key=value pairs to the file named by GITHUB_OUTPUT.
type Writer struct {
	path string
}

// NewWriter picks up GITHUB_OUTPUT from the environment. The writer
// is disabled when the variable is unset.
func NewWriter() *Writer {
	return &Writer{path: os.Getenv("GITHUB_OUTPUT")}
}

// NewFileWriter targets an explicit output file. Used by tests.
func NewFileWriter(path string) *Writer {
	return &Writer{path: path}
}

// Enabled reports whether outputs will be written.
func (w *Writer) Enabled() bool {
	return w.path != ""
}

// Set appends one key=value line. Outside Actions it is a no-op.
// Values with newlines are rejected rather than silently corrupting
// the output file's line format.
func (w *Writer) Set(key, value string) error {
	if !w.Enabled() {
		return nil
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid output key %q", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("output value for %s contains a newline", key)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
