package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup. Equivalent to t.Chdir,
// which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestGetAPITimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset uses default", "", DefaultAPITimeout},
		{"valid duration", "45s", 45 * time.Second},
		{"invalid falls back to default", "banana", DefaultAPITimeout},
		{"below minimum clamps to 1s", "100ms", 1 * time.Second},
		{"above maximum clamps to 10m", "1h", 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPITimeout, tt.value)
			if got := GetAPITimeout(); got != tt.want {
				t.Errorf("GetAPITimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDownloadTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset uses default", "", DefaultDownloadTimeout},
		{"valid duration", "20m", 20 * time.Minute},
		{"below minimum clamps to 10s", "1s", 10 * time.Second},
		{"above maximum clamps to 2h", "5h", 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDownloadTimeout, tt.value)
			if got := GetDownloadTimeout(); got != tt.want {
				t.Errorf("GetDownloadTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Upstream.Slug() != "digital-asset/daml" {
		t.Errorf("default slug = %q", cfg.Upstream.Slug())
	}
	if cfg.Upstream.AssetMarker != "canton-open-source-" {
		t.Errorf("default asset marker = %q", cfg.Upstream.AssetMarker)
	}
	if cfg.Upstream.AssetSuffix != ".tar.gz" {
		t.Errorf("default asset suffix = %q", cfg.Upstream.AssetSuffix)
	}
	if cfg.Tap.ManifestPath != "versions.json" {
		t.Errorf("default manifest path = %q", cfg.Tap.ManifestPath)
	}
	if cfg.Tap.FormulaDir != "Formula" {
		t.Errorf("default formula dir = %q", cfg.Tap.FormulaDir)
	}
	if cfg.Fallback != nil {
		t.Error("default config should have no fallback record")
	}
	if cfg.Signing.Enabled {
		t.Error("signing should be disabled by default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvAPIBase, "")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Upstream.Repo != "daml" {
		t.Errorf("expected default repo, got %q", cfg.Upstream.Repo)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for explicitly named missing config")
	}
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv(EnvAPIBase, "")
	t.Setenv(EnvManifestPath, "")
	t.Setenv(EnvTemplatePath, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "tapgen.toml")

	content := `
[tap]
manifest = "state/versions.json"
template = "tpl/canton.rb.template"
formula_dir = "Formula"

[upstream]
owner = "digital-asset"
repo = "daml"
asset_marker = "canton-open-source-"
asset_suffix = ".tar.gz"

[fallback]
tag = "v2.7.0"
canton_version = "2.7.0"
download_url = "https://example.com/canton-open-source-2.7.0.tar.gz"
sha256 = "deadbeef"
is_prerelease = false
published_at = "2023-07-01T00:00:00Z"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Tap.ManifestPath != "state/versions.json" {
		t.Errorf("manifest path = %q", cfg.Tap.ManifestPath)
	}
	if cfg.Fallback == nil {
		t.Fatal("expected fallback record")
	}
	if cfg.Fallback.Tag != "v2.7.0" {
		t.Errorf("fallback tag = %q", cfg.Fallback.Tag)
	}
	if cfg.Fallback.IsPrerelease {
		t.Error("fallback should be stable")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapgen.toml")
	if err := os.WriteFile(path, []byte("[tap]\nmanifset = \"oops.json\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("expected 'unknown key' in error, got: %v", err)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapgen.toml")
	if err := os.WriteFile(path, []byte("[tap\nbroken"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}

func TestLoadAppliesAPIBaseEnv(t *testing.T) {
	t.Setenv(EnvAPIBase, "http://127.0.0.1:9999")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Upstream.APIBase != "http://127.0.0.1:9999" {
		t.Errorf("APIBase = %q", cfg.Upstream.APIBase)
	}
}

func TestLoadAppliesPathEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvTemplatePath, "")
	t.Setenv(EnvManifestPath, "ci/versions.json")
	t.Setenv(EnvFormulaDir, "ci/Formula")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Tap.ManifestPath != "ci/versions.json" {
		t.Errorf("manifest path = %q", cfg.Tap.ManifestPath)
	}
	if cfg.Tap.FormulaDir != "ci/Formula" {
		t.Errorf("formula dir = %q", cfg.Tap.FormulaDir)
	}
	if cfg.Tap.TemplatePath != "templates/canton.rb.template" {
		t.Errorf("template path should keep its default, got %q", cfg.Tap.TemplatePath)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIBase, "")
	path := filepath.Join(t.TempDir(), "tapgen.toml")

	cfg := Default()
	cfg.Fallback = &FallbackRecord{
		Tag:           "v2.8.1",
		CantonVersion: "2.8.1",
		DownloadURL:   "https://example.com/canton-open-source-2.8.1.tar.gz",
		SHA256:        strings.Repeat("ab", 32),
		PublishedAt:   "2024-01-01T00:00:00Z",
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error: %v", err)
	}
	if loaded.Fallback == nil || loaded.Fallback.Tag != "v2.8.1" {
		t.Errorf("fallback did not round-trip: %+v", loaded.Fallback)
	}
	if loaded.Fallback.SHA256 != strings.Repeat("ab", 32) {
		t.Errorf("fallback sha256 did not round-trip")
	}
}
