package manifest

import "fmt"

// NotFoundError reports a tag with no manifest entry.
type NotFoundError struct {
	Tag string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no manifest entry for tag %s", e.Tag)
}

// Suggestion returns actionable guidance for the failure.
func (e *NotFoundError) Suggestion() string {
	return "Run 'tapgen sync' to refresh the manifest, or check the tag spelling"
}

// ParseError reports an unreadable manifest document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed manifest read or write.
type PersistError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to %s manifest %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
