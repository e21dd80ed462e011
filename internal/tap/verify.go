package tap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/0xsend/homebrew-canton/internal/progress"
	"github.com/0xsend/homebrew-canton/internal/signature"
)

// Verifier re-downloads cached releases and checks them against the
// manifest digests.
type Verifier struct {
	deps Deps
}

// NewVerifier creates a verification workflow over deps.
func NewVerifier(deps Deps) *Verifier {
	deps.fill()
	return &Verifier{deps: deps}
}

// VerifyOptions bounds a verification run. Count limits how many
// entries are checked, newest first; zero or negative means all.
// Deep additionally walks each tarball's structure while hashing.
type VerifyOptions struct {
	Count int
	Deep  bool
}

// Mismatch is one manifest entry whose asset no longer matches.
type Mismatch struct {
	Tag      string
	Expected string
	Actual   string
}

// Failure is one entry that could not be checked at all.
type Failure struct {
	Tag string
	Err error
}

// VerifyResult summarizes a verification run.
type VerifyResult struct {
	Checked    int
	Matched    int
	Unsigned   int
	Mismatches []Mismatch
	Failures   []Failure
}

// OK reports whether every checked entry matched.
func (r *VerifyResult) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Failures) == 0
}

// Verify re-hashes the newest cached entries and compares against the
// stored digests. A mismatch or download failure is recorded and the
// walk continues, so one bad entry never hides the state of the rest.
func (v *Verifier) Verify(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	d := &v.deps

	m, err := d.Store.Load()
	if err != nil {
		return nil, err
	}

	var cached []string
	for _, rec := range m.Records() {
		if rec.SHA256 != "" {
			cached = append(cached, rec.Tag)
		}
	}
	if opts.Count > 0 && opts.Count < len(cached) {
		cached = cached[:opts.Count]
	}

	res := &VerifyResult{}
	spin := progress.NewSpinner(os.Stderr)
	spin.Start(fmt.Sprintf("Verifying %d manifest entries", len(cached)))
	defer spin.Stop()

	for i, tag := range cached {
		entry := m.Versions[tag]
		spin.SetMessage(fmt.Sprintf("Verifying %s (%d/%d)", tag, i+1, len(cached)))
		res.Checked++

		var sum string
		if opts.Deep {
			var entries int
			sum, entries, err = d.Hasher.FromURLDeep(ctx, entry.DownloadURL)
			if err == nil {
				d.Logger.Debug("archive walked", "tag", tag, "entries", entries)
			}
		} else {
			sum, err = d.Hasher.FromURL(ctx, entry.DownloadURL)
		}
		if err != nil {
			d.Logger.Error("failed to verify release", "tag", tag, "error", err)
			res.Failures = append(res.Failures, Failure{Tag: tag, Err: err})
			continue
		}

		if !strings.EqualFold(sum, entry.SHA256) {
			d.Logger.Error("digest mismatch",
				"tag", tag, "expected", entry.SHA256, "actual", sum)
			res.Mismatches = append(res.Mismatches, Mismatch{
				Tag: tag, Expected: entry.SHA256, Actual: sum,
			})
			continue
		}

		if d.Signer != nil {
			err := d.Signer.VerifyAsset(ctx, entry.DownloadURL)
			switch {
			case errors.Is(err, signature.ErrNoSignature):
				res.Unsigned++
			case err != nil:
				d.Logger.Error("signature check failed", "tag", tag, "error", err)
				res.Failures = append(res.Failures, Failure{Tag: tag, Err: err})
				continue
			}
		}
		res.Matched++
	}

	spin.StopWithMessage(v.summary(res))
	v.report(res)
	return res, nil
}

func (v *Verifier) summary(res *VerifyResult) string {
	if res.OK() {
		return fmt.Sprintf("✓ %d entries verified", res.Matched)
	}
	return fmt.Sprintf("✗ %d of %d entries failed verification",
		len(res.Mismatches)+len(res.Failures), res.Checked)
}

func (v *Verifier) report(res *VerifyResult) {
	d := &v.deps
	for _, mm := range res.Mismatches {
		fmt.Fprintf(d.Out, "   ✗ %s: expected %s, got %s\n",
			mm.Tag, shortDigest(mm.Expected), shortDigest(mm.Actual))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(d.Out, "   ✗ %s: %v\n", f.Tag, f.Err)
	}
	if res.Unsigned > 0 {
		fmt.Fprintf(d.Out, "   %d entries have no published signature\n", res.Unsigned)
	}
}
