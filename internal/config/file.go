package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ResolvePath returns the config file location for a --config flag
// value: the flag itself when set, else TAPGEN_CONFIG, else
// DefaultConfigFile in the working directory.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return env
	}
	return DefaultConfigFile
}

// Load reads the configuration, layering the config file (if any)
// and environment overrides onto the defaults. The path argument
// usually comes from the --config flag; empty means TAPGEN_CONFIG,
// then DefaultConfigFile in the working directory.
//
// A missing config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	explicit := path != "" || os.Getenv(EnvConfigFile) != ""
	path = ResolvePath(path)

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in config file %s", undecoded[0].String(), path)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies environment overrides on top of file values.
func (c *Config) applyEnv() {
	if base := os.Getenv(EnvAPIBase); base != "" {
		c.Upstream.APIBase = base
	}
	if p := os.Getenv(EnvManifestPath); p != "" {
		c.Tap.ManifestPath = p
	}
	if p := os.Getenv(EnvTemplatePath); p != "" {
		c.Tap.TemplatePath = p
	}
	if p := os.Getenv(EnvFormulaDir); p != "" {
		c.Tap.FormulaDir = p
	}
}

// Save writes the configuration to path atomically (temp file in the
// same directory, then rename). Used by update-fallback; any comments
// in a hand-edited file are not preserved.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tapgen-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	encoder := toml.NewEncoder(tmp)
	if err := encoder.Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}
