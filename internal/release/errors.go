package release

import (
	"fmt"
	"net/http"

	"github.com/0xsend/homebrew-canton/internal/httputil"
)

// FetchError reports a failed release listing against the upstream
// repository. StatusCode is set when the API answered with a non-2xx
// status, RateLimited when the failure was the GitHub rate limit.
type FetchError struct {
	Repo        string
	StatusCode  int
	RateLimited bool
	Kind        httputil.FailureKind
	Err         error
}

func (e *FetchError) Error() string {
	switch {
	case e.RateLimited:
		return fmt.Sprintf("failed to fetch releases for %s: GitHub API rate limit exceeded", e.Repo)
	case e.StatusCode == http.StatusNotFound && e.Err != nil:
		// Keep the tag name visible for by-tag lookups.
		return fmt.Sprintf("failed to fetch releases for %s: %v", e.Repo, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("failed to fetch releases for %s: GitHub API returned status %d", e.Repo, e.StatusCode)
	default:
		return fmt.Sprintf("failed to fetch releases for %s: %v", e.Repo, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Suggestion returns actionable guidance for the failure, or an empty
// string when there is nothing useful to say.
func (e *FetchError) Suggestion() string {
	if e.RateLimited {
		return "Set GITHUB_TOKEN environment variable to increase rate limits"
	}
	if s := e.Kind.Suggestion(); s != "" {
		return s
	}
	if e.StatusCode >= 500 {
		return "GitHub may be experiencing issues, try again later"
	}
	return ""
}
