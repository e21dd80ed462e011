package functional

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// mockUpstream stands in for the GitHub API and the release download
// host. Every asset serves the same small but structurally valid
// tar.gz archive.
type mockUpstream struct {
	server  *httptest.Server
	archive []byte
}

type mockAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type mockRelease struct {
	TagName     string      `json:"tag_name"`
	Draft       bool        `json:"draft"`
	Prerelease  bool        `json:"prerelease"`
	PublishedAt string      `json:"published_at"`
	Assets      []mockAsset `json:"assets"`
}

func startMockUpstream() (*mockUpstream, error) {
	archive, err := buildArchive()
	if err != nil {
		return nil, err
	}

	m := &mockUpstream{archive: archive}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/digital-asset/daml/releases/tags/", m.handleReleaseByTag)
	mux.HandleFunc("/api/v3/repos/digital-asset/daml/releases", m.handleReleases)
	mux.HandleFunc("/download/", m.handleDownload)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})
	m.server = httptest.NewServer(mux)
	return m, nil
}

func (m *mockUpstream) URL() string {
	return m.server.URL
}

func (m *mockUpstream) Close() {
	m.server.Close()
}

// DownloadURL returns the asset URL the mock serves for a tag.
func (m *mockUpstream) DownloadURL(tag string) string {
	version := strings.TrimPrefix(tag, "v")
	return m.server.URL + "/download/canton-open-source-" + version + ".tar.gz"
}

// releases is the fixed upstream catalog: one stable, one prerelease,
// one release without a qualifying asset, one draft.
func (m *mockUpstream) releases() []mockRelease {
	asset := func(version string) []mockAsset {
		name := "canton-open-source-" + version + ".tar.gz"
		return []mockAsset{{Name: name, BrowserDownloadURL: m.server.URL + "/download/" + name}}
	}
	return []mockRelease{
		{
			TagName:     "v2.10.2",
			PublishedAt: "2025-06-15T08:00:00Z",
			Assets:      asset("2.10.2"),
		},
		{
			TagName:     "v3.4.0-snapshot.20250610.0",
			Prerelease:  true,
			PublishedAt: "2025-06-10T08:00:00Z",
			Assets:      asset("3.4.0-snapshot.20250610.0"),
		},
		{
			TagName:     "v2.10.1",
			PublishedAt: "2025-05-01T08:00:00Z",
			Assets: []mockAsset{{
				Name:               "daml-sdk-2.10.1.tar.gz",
				BrowserDownloadURL: m.server.URL + "/download/daml-sdk-2.10.1.tar.gz",
			}},
		},
		{
			TagName:     "v2.11.0-rc1",
			Draft:       true,
			Prerelease:  true,
			PublishedAt: "2025-06-20T08:00:00Z",
			Assets:      asset("2.11.0-rc1"),
		},
	}
}

func (m *mockUpstream) handleReleases(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.releases())
}

func (m *mockUpstream) handleReleaseByTag(w http.ResponseWriter, r *http.Request) {
	tag := path.Base(r.URL.Path)
	for _, rel := range m.releases() {
		if rel.TagName == tag {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rel)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found"}`))
}

func (m *mockUpstream) handleDownload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Length", strconv.Itoa(len(m.archive)))
	w.Write(m.archive)
}

// buildArchive produces a small but real canton-shaped tar.gz.
func buildArchive() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	files := []struct {
		name string
		body string
		mode int64
	}{
		{"canton-open-source-2.10.2/bin/canton", "#!/bin/sh\nexec echo canton\n", 0o755},
		{"canton-open-source-2.10.2/VERSION", "2.10.2\n", 0o644},
	}
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Mode: f.mode, Size: int64(len(f.body))}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const fixtureTemplate = `class Canton{{CLASS_SUFFIX}} < Formula
  desc "Canton {{VERSION_TYPE}} ({{RELEASE_TYPE}})"
  url "{{DOWNLOAD_URL}}"
  sha256 "{{SHA256}}"
  version "{{VERSION}}"
end
`

const fixtureConfig = `[tap]
manifest = "versions.json"
template = "canton.rb.template"
formula_dir = "Formula"

[upstream]
owner = "digital-asset"
repo = "daml"
asset_marker = "canton-open-source-"
asset_suffix = ".tar.gz"
`

// writeTapFixtures lays out the template and config a scenario's tap
// directory starts from.
func writeTapFixtures(workDir string) error {
	if err := os.WriteFile(filepath.Join(workDir, "canton.rb.template"), []byte(fixtureTemplate), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(workDir, "tapgen.toml"), []byte(fixtureConfig), 0o644)
}
