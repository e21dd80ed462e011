// Package config holds tapgen's runtime configuration: repository
// paths for the manifest, template and formula output, the upstream
// release source, and the optional fallback and signing blocks.
//
// Configuration layers, later wins:
//  1. built-in defaults (the digital-asset/daml Canton tap)
//  2. tapgen.toml in the working directory (or TAPGEN_CONFIG)
//  3. environment variables (TAPGEN_API_BASE, the tap paths, the
//     timeouts)
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvConfigFile overrides the config file location.
	EnvConfigFile = "TAPGEN_CONFIG"

	// EnvAPIBase overrides the GitHub API base URL. Used by the
	// functional test suite to point the binary at a mock server.
	EnvAPIBase = "TAPGEN_API_BASE"

	// EnvManifestPath overrides the manifest file location.
	EnvManifestPath = "TAPGEN_MANIFEST"

	// EnvTemplatePath overrides the formula template location.
	EnvTemplatePath = "TAPGEN_TEMPLATE"

	// EnvFormulaDir overrides where rendered formulas are written.
	EnvFormulaDir = "TAPGEN_FORMULA_DIR"

	// EnvAPITimeout configures the GitHub API request timeout.
	EnvAPITimeout = "TAPGEN_API_TIMEOUT"

	// EnvDownloadTimeout configures the asset download timeout used
	// when hashing release tarballs.
	EnvDownloadTimeout = "TAPGEN_DOWNLOAD_TIMEOUT"

	// DefaultConfigFile is the config filename looked up in the
	// working directory when TAPGEN_CONFIG is unset.
	DefaultConfigFile = "tapgen.toml"

	// DefaultAPITimeout is the default timeout for API requests.
	DefaultAPITimeout = 30 * time.Second

	// DefaultDownloadTimeout is the default timeout for a full asset
	// download. Canton tarballs run to hundreds of megabytes, so this
	// is the one deliberately long timeout in the system.
	DefaultDownloadTimeout = 15 * time.Minute
)

// GetAPITimeout returns the configured API timeout from
// TAPGEN_API_TIMEOUT. If not set or invalid, returns
// DefaultAPITimeout. Accepts duration strings like "30s", "2m30s".
func GetAPITimeout() time.Duration {
	return envDuration(EnvAPITimeout, DefaultAPITimeout, 1*time.Second, 10*time.Minute)
}

// GetDownloadTimeout returns the configured asset download timeout
// from TAPGEN_DOWNLOAD_TIMEOUT. If not set or invalid, returns
// DefaultDownloadTimeout. Accepts duration strings like "10m", "1h".
func GetDownloadTimeout() time.Duration {
	return envDuration(EnvDownloadTimeout, DefaultDownloadTimeout, 10*time.Second, 2*time.Hour)
}

// envDuration parses a duration env var, falling back to def on
// invalid values and clamping to [min, max] with a stderr warning.
func envDuration(name string, def, min, max time.Duration) time.Duration {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}

	if duration < min {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			name, duration, min)
		return min
	}
	if duration > max {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			name, duration, max)
		return max
	}

	return duration
}

// Config is the full tapgen configuration, mirroring tapgen.toml.
type Config struct {
	Tap      TapConfig       `toml:"tap"`
	Upstream UpstreamConfig  `toml:"upstream"`
	Fallback *FallbackRecord `toml:"fallback,omitempty"`
	Signing  SigningConfig   `toml:"signing,omitempty"`
}

// TapConfig locates the tap's files relative to the working directory.
type TapConfig struct {
	// ManifestPath is the version manifest file. Default "versions.json".
	ManifestPath string `toml:"manifest"`

	// TemplatePath is the formula template. Default
	// "templates/canton.rb.template".
	TemplatePath string `toml:"template"`

	// FormulaDir is where rendered formulas are written. Default "Formula".
	FormulaDir string `toml:"formula_dir"`
}

// UpstreamConfig identifies the release source and the asset naming
// convention that marks a release as shippable.
type UpstreamConfig struct {
	// Owner/Repo form the GitHub repository slug. Defaults
	// "digital-asset"/"daml" (Canton open-source releases are
	// published on the daml repo).
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`

	// AssetMarker must appear in a release asset's filename for the
	// release to qualify. Default "canton-open-source-".
	AssetMarker string `toml:"asset_marker"`

	// AssetSuffix is the required asset filename suffix. Default ".tar.gz".
	AssetSuffix string `toml:"asset_suffix"`

	// APIBase overrides the GitHub API endpoint. Empty means the
	// public API. TAPGEN_API_BASE takes precedence over this field.
	APIBase string `toml:"api_base"`
}

// FallbackRecord is the last-resort release baked into config, used
// only when the live API is unreachable. Kept current by the
// update-fallback command.
type FallbackRecord struct {
	Tag           string `toml:"tag"`
	CantonVersion string `toml:"canton_version"`
	DownloadURL   string `toml:"download_url"`
	SHA256        string `toml:"sha256"`
	IsPrerelease  bool   `toml:"is_prerelease"`
	PublishedAt   string `toml:"published_at"`
}

// SigningConfig enables detached-signature verification of release
// assets. Off unless a public key is configured.
type SigningConfig struct {
	Enabled bool `toml:"enabled"`

	// PublicKeyPath points at an armored PGP public key file.
	PublicKeyPath string `toml:"public_key"`

	// Fingerprint, when set, must match the key's fingerprint
	// (uppercase hex, no spaces).
	Fingerprint string `toml:"fingerprint"`
}

// Default returns the built-in configuration for the Canton tap.
func Default() *Config {
	return &Config{
		Tap: TapConfig{
			ManifestPath: "versions.json",
			TemplatePath: "templates/canton.rb.template",
			FormulaDir:   "Formula",
		},
		Upstream: UpstreamConfig{
			Owner:       "digital-asset",
			Repo:        "daml",
			AssetMarker: "canton-open-source-",
			AssetSuffix: ".tar.gz",
		},
	}
}

// Slug returns the owner/repo form of the upstream repository.
func (u UpstreamConfig) Slug() string {
	return u.Owner + "/" + u.Repo
}
