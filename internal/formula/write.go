package formula

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists reports that the target formula file is already present
// and force was not set. Callers decide whether to prompt, skip, or
// fail.
var ErrExists = errors.New("formula file already exists")

// WriteFile writes a rendered formula to path, creating the formula
// directory as needed. Without force an existing file is left
// untouched and ErrExists is returned.
func WriteFile(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create formula directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write formula: %w", err)
	}
	return nil
}
