package digest

import (
	"fmt"
	"net/http"

	"github.com/0xsend/homebrew-canton/internal/httputil"
)

// DownloadError reports a failed or rejected asset download.
type DownloadError struct {
	URL        string
	StatusCode int
	Kind       httputil.FailureKind
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Suggestion returns actionable guidance for the failure, or an empty
// string when there is nothing useful to say.
func (e *DownloadError) Suggestion() string {
	if s := e.Kind.Suggestion(); s != "" {
		return s
	}
	switch {
	case e.StatusCode == http.StatusNotFound:
		return "Check that the release asset still exists upstream"
	case e.StatusCode >= 500:
		return "The download host may be experiencing issues, try again later"
	}
	return ""
}
