// Package manifest persists versions.json, the tap's record of every
// known release and its computed digest.
//
// The file is the source of truth for formula generation: an entry
// only counts as cached once its sha256 is filled in, and the sync
// workflow saves after each hashed release so an interrupted run
// keeps its progress.
package manifest

import (
	"time"

	"github.com/0xsend/homebrew-canton/internal/release"
)

// Entry is one release recorded in the manifest, keyed by git tag.
type Entry struct {
	CantonVersion string `json:"canton_version"`
	DownloadURL   string `json:"download_url"`
	SHA256        string `json:"sha256"`
	IsPrerelease  bool   `json:"is_prerelease"`
	PublishedAt   string `json:"published_at"`
}

// Manifest is the full versions.json document.
type Manifest struct {
	UpdatedAt time.Time        `json:"updated_at"`
	Versions  map[string]Entry `json:"versions"`
}

// New returns an empty manifest ready for entries.
func New() *Manifest {
	return &Manifest{Versions: make(map[string]Entry)}
}

// Has reports whether tag is cached: present with a computed digest.
// Entries without a digest are placeholders and do not count.
func (m *Manifest) Has(tag string) bool {
	e, ok := m.Versions[tag]
	return ok && e.SHA256 != ""
}

// Lookup returns the entry for tag, or a NotFoundError.
func (m *Manifest) Lookup(tag string) (Entry, error) {
	e, ok := m.Versions[tag]
	if !ok {
		return Entry{}, &NotFoundError{Tag: tag}
	}
	return e, nil
}

// Set records rec under its tag, replacing any existing entry.
func (m *Manifest) Set(rec release.Record) {
	if m.Versions == nil {
		m.Versions = make(map[string]Entry)
	}
	m.Versions[rec.Tag] = Entry{
		CantonVersion: rec.CantonVersion,
		DownloadURL:   rec.DownloadURL,
		SHA256:        rec.SHA256,
		IsPrerelease:  rec.IsPrerelease,
		PublishedAt:   rec.PublishedAt,
	}
}

// Record converts the entry for tag back into a release record.
func (m *Manifest) Record(tag string) (release.Record, error) {
	e, err := m.Lookup(tag)
	if err != nil {
		return release.Record{}, err
	}
	return release.Record{
		Tag:           tag,
		CantonVersion: e.CantonVersion,
		DownloadURL:   e.DownloadURL,
		SHA256:        e.SHA256,
		IsPrerelease:  e.IsPrerelease,
		PublishedAt:   e.PublishedAt,
	}, nil
}

// Newest returns the first cached entry under the release ordering,
// as a record. ok is false when no entry carries a digest.
func (m *Manifest) Newest() (release.Record, bool) {
	var best release.Record
	found := false
	for tag := range m.Versions {
		if !m.Has(tag) {
			continue
		}
		rec, _ := m.Record(tag)
		if !found || release.Less(rec, best) {
			best = rec
			found = true
		}
	}
	return best, found
}

// Records returns all entries as release records in canonical order.
func (m *Manifest) Records() []release.Record {
	records := make([]release.Record, 0, len(m.Versions))
	for tag := range m.Versions {
		rec, _ := m.Record(tag)
		records = append(records, rec)
	}
	release.Sort(records)
	return records
}
