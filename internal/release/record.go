// Package release queries the upstream GitHub repository for Canton
// releases and normalizes them into Records.
//
// A release qualifies when it carries an asset whose filename contains
// the configured marker (canton-open-source-) and ends with the
// configured suffix (.tar.gz). The Canton version is the piece of the
// asset filename between the two. Qualifying releases are ordered
// prerelease-first, then by publication date descending; the first
// record under that ordering is what the tap treats as "latest".
package release

import (
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Record is one upstream release candidate. SHA256 stays empty until
// the digest workflow computes it; the manifest store only treats an
// entry as cached once the digest is present.
type Record struct {
	Tag           string
	CantonVersion string
	DownloadURL   string
	SHA256        string
	IsPrerelease  bool
	PublishedAt   string // RFC 3339
}

// CleanTag strips a single leading "v" from a release tag, turning
// "v2.8.1" into "2.8.1". Already-clean tags pass through unchanged,
// so the operation is idempotent.
func CleanTag(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag[1:]
	}
	return tag
}

// ReleaseType labels a record for display and template substitution.
func (r Record) ReleaseType() string {
	if r.IsPrerelease {
		return "prerelease"
	}
	return "stable"
}

// publishedTime parses PublishedAt, returning the zero time when the
// field is empty or malformed so broken timestamps sort last.
func (r Record) publishedTime() time.Time {
	t, err := time.Parse(time.RFC3339, r.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Less reports whether a sorts before b under the tap's ordering:
// prereleases before stable releases, newer publication dates first
// within the same release type, semver descending as the tie-break.
func Less(a, b Record) bool {
	if a.IsPrerelease != b.IsPrerelease {
		return a.IsPrerelease
	}

	at, bt := a.publishedTime(), b.publishedTime()
	if !at.Equal(bt) {
		return at.After(bt)
	}

	av, aerr := semver.NewVersion(CleanTag(a.Tag))
	bv, berr := semver.NewVersion(CleanTag(b.Tag))
	if aerr == nil && berr == nil {
		return av.GreaterThan(bv)
	}

	// Non-semver tags fall back to reverse lexical order.
	return a.Tag > b.Tag
}

// Sort orders records in place under the canonical ordering.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(records[i], records[j])
	})
}
