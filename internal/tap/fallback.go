package tap

import (
	"errors"
	"fmt"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/manifest"
	"github.com/0xsend/homebrew-canton/internal/release"
)

// FallbackResult reports an update-fallback run.
type FallbackResult struct {
	Record  release.Record
	Updated bool
}

// UpdateFallback promotes the newest hashed manifest entry into the
// [fallback] block of the config file, so release fetching keeps
// working when the GitHub API is down. Already-current fallbacks are
// left untouched.
func UpdateFallback(cfg *config.Config, cfgPath string, store *manifest.Store) (*FallbackResult, error) {
	m, err := store.Load()
	if err != nil {
		return nil, err
	}

	rec, ok := m.Newest()
	if !ok {
		return nil, errors.New("manifest has no hashed entries to promote, run sync first")
	}

	if fb := cfg.Fallback; fb != nil && fb.Tag == rec.Tag && fb.SHA256 == rec.SHA256 {
		return &FallbackResult{Record: rec}, nil
	}

	cfg.Fallback = &config.FallbackRecord{
		Tag:           rec.Tag,
		CantonVersion: rec.CantonVersion,
		DownloadURL:   rec.DownloadURL,
		SHA256:        rec.SHA256,
		IsPrerelease:  rec.IsPrerelease,
		PublishedAt:   rec.PublishedAt,
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to persist fallback record: %w", err)
	}
	return &FallbackResult{Record: rec, Updated: true}, nil
}
