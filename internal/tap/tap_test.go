package tap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xsend/homebrew-canton/internal/formula"
	"github.com/0xsend/homebrew-canton/internal/log"
	"github.com/0xsend/homebrew-canton/internal/manifest"
	"github.com/0xsend/homebrew-canton/internal/release"
	"github.com/0xsend/homebrew-canton/internal/signature"
)

// Shared test fixtures. The three releases cover both tiers of the
// canonical ordering: the snapshot sorts first, then the stables by
// date.
var (
	recSnapshot = release.Record{
		Tag:           "v3.4.0-snapshot.20250610.0",
		CantonVersion: "3.4.0-snapshot.20250610.0",
		DownloadURL:   "https://example.com/canton-open-source-3.4.0-snapshot.20250610.0.tar.gz",
		IsPrerelease:  true,
		PublishedAt:   "2025-06-10T08:00:00Z",
	}
	recStable = release.Record{
		Tag:           "v2.10.2",
		CantonVersion: "2.10.2",
		DownloadURL:   "https://example.com/canton-open-source-2.10.2.tar.gz",
		PublishedAt:   "2025-06-15T08:00:00Z",
	}
	recOld = release.Record{
		Tag:           "v2.10.0",
		CantonVersion: "2.10.0",
		DownloadURL:   "https://example.com/canton-open-source-2.10.0.tar.gz",
		PublishedAt:   "2025-03-01T08:00:00Z",
	}
)

// digestFor fabricates a stable fake digest for a URL.
func digestFor(url string) string {
	return fmt.Sprintf("%064x", len(url))
}

// withDigest returns a copy of rec carrying its fake digest.
func withDigest(rec release.Record) release.Record {
	rec.SHA256 = digestFor(rec.DownloadURL)
	return rec
}

type fakeSource struct {
	records   []release.Record
	fetchErr  error
	latestErr error
}

func (f *fakeSource) FetchReleases(ctx context.Context) ([]release.Record, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]release.Record, len(f.records))
	copy(out, f.records)
	release.Sort(out)
	return out, nil
}

func (f *fakeSource) Latest(ctx context.Context) (release.Record, error) {
	if f.latestErr != nil {
		return release.Record{}, f.latestErr
	}
	records, err := f.FetchReleases(ctx)
	if err != nil {
		return release.Record{}, err
	}
	if len(records) == 0 {
		return release.Record{}, fmt.Errorf("no qualifying releases found")
	}
	return records[0], nil
}

func (f *fakeSource) ByTag(ctx context.Context, tag string) (release.Record, error) {
	if f.fetchErr != nil {
		return release.Record{}, f.fetchErr
	}
	for _, rec := range f.records {
		if rec.Tag == tag {
			return rec, nil
		}
	}
	return release.Record{}, fmt.Errorf("release %s not found", tag)
}

type fakeHasher struct {
	errs      map[string]error
	calls     []string
	deepCalls []string
	entries   int
}

func (f *fakeHasher) FromURL(ctx context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return "", err
	}
	return digestFor(url), nil
}

func (f *fakeHasher) FromURLDeep(ctx context.Context, url string) (string, int, error) {
	f.deepCalls = append(f.deepCalls, url)
	if err := f.errs[url]; err != nil {
		return "", 0, err
	}
	return digestFor(url), f.entries, nil
}

type fakeSigner struct {
	errs  map[string]error
	noSig bool
	calls []string
}

func (f *fakeSigner) VerifyAsset(ctx context.Context, assetURL string) error {
	f.calls = append(f.calls, assetURL)
	if f.noSig {
		return signature.ErrNoSignature
	}
	return f.errs[assetURL]
}

func testStore(t *testing.T) *manifest.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versions.json")
	return manifest.NewStore(path, manifest.WithLogger(log.NewNoop()))
}

func testDeps(t *testing.T, src ReleaseSource, h Hasher) Deps {
	t.Helper()
	return Deps{
		Source: src,
		Hasher: h,
		Store:  testStore(t),
		Logger: log.NewNoop(),
		Out:    io.Discard,
	}
}

// seedStore persists records into the store's manifest.
func seedStore(t *testing.T, store *manifest.Store, records ...release.Record) {
	t.Helper()
	m, err := store.Load()
	require.NoError(t, err)
	for _, rec := range records {
		m.Set(rec)
	}
	require.NoError(t, store.Save(m))
}

func testTemplate(t *testing.T) *formula.Template {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canton.rb.template")
	content := `class Canton{{CLASS_SUFFIX}} < Formula
  desc "Canton {{VERSION_TYPE}} ({{RELEASE_TYPE}})"
  version "{{VERSION}}"
  url "{{DOWNLOAD_URL}}"
  sha256 "{{SHA256}}"
end
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	tmpl, err := formula.LoadTemplate(path)
	require.NoError(t, err)
	return tmpl
}
