package tap

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/0xsend/homebrew-canton/internal/release"
	"github.com/0xsend/homebrew-canton/internal/signature"
)

// Syncer refreshes the manifest from upstream releases.
type Syncer struct {
	deps Deps
}

// NewSyncer creates a sync workflow over deps.
func NewSyncer(deps Deps) *Syncer {
	deps.fill()
	return &Syncer{deps: deps}
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Added    int
	Skipped  int
	Failed   int
	Unsigned int
	Total    int
	Newest   release.Record
	Updated  bool
}

// Sync walks the newest limit releases and hashes every one the
// manifest does not already cache. The manifest is saved after each
// hashed release, so an interrupted run resumes where it stopped
// instead of re-downloading. Hash and signature failures are counted
// and logged but do not abort the remaining releases.
func (s *Syncer) Sync(ctx context.Context, limit int) (*SyncResult, error) {
	d := &s.deps

	records, err := d.Source.FetchReleases(ctx)
	if err != nil {
		return nil, err
	}

	m, err := d.Store.Load()
	if err != nil {
		return nil, err
	}

	batch := take(records, limit)
	res := &SyncResult{Total: len(batch)}

	for _, rec := range batch {
		if m.Has(rec.Tag) {
			d.Logger.Debug("release already cached", "tag", rec.Tag)
			res.Skipped++
			continue
		}

		if rec.SHA256 == "" {
			fmt.Fprintf(d.Out, "   Hashing %s\n", rec.Tag)
			sum, err := d.Hasher.FromURL(ctx, rec.DownloadURL)
			if err != nil {
				d.Logger.Error("failed to hash release", "tag", rec.Tag, "error", err)
				fmt.Fprintf(d.Out, "   ✗ %s: %v\n", rec.Tag, err)
				res.Failed++
				continue
			}
			rec.SHA256 = sum
		}

		if d.Signer != nil {
			err := d.Signer.VerifyAsset(ctx, rec.DownloadURL)
			switch {
			case errors.Is(err, signature.ErrNoSignature):
				d.Logger.Info("no signature published for release", "tag", rec.Tag)
				res.Unsigned++
			case err != nil:
				d.Logger.Error("signature check failed", "tag", rec.Tag, "error", err)
				fmt.Fprintf(d.Out, "   ✗ %s: %v\n", rec.Tag, err)
				res.Failed++
				continue
			}
		}

		m.Set(rec)
		if err := d.Store.Save(m); err != nil {
			return res, err
		}
		res.Added++
		fmt.Fprintf(d.Out, "   ✓ %s (sha256 %s)\n", rec.Tag, shortDigest(rec.SHA256))
	}

	res.Updated = res.Added > 0
	if newest, ok := m.Newest(); ok {
		res.Newest = newest
		s.publishOutputs(res)
	}

	fmt.Fprintf(d.Out, "Added %d, skipped %d of %d releases\n",
		res.Added, res.Skipped, res.Total)
	return res, nil
}

// publishOutputs exports the newest cached release for downstream
// workflow steps.
func (s *Syncer) publishOutputs(res *SyncResult) {
	d := &s.deps
	outputs := [][2]string{
		{"tag", res.Newest.Tag},
		{"sha256", res.Newest.SHA256},
		{"updated", strconv.FormatBool(res.Updated)},
	}
	for _, kv := range outputs {
		if err := d.CI.Set(kv[0], kv[1]); err != nil {
			d.Logger.Warn("failed to write job output", "key", kv[0], "error", err)
		}
	}
}
