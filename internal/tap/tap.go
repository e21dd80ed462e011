// Package tap orchestrates release discovery, hashing, manifest
// persistence, and formula rendering into the tapgen workflows.
//
// Each workflow type takes its collaborators through Deps, so tests
// substitute in-memory fakes for the GitHub client and the download
// path while exercising the real manifest store on a temp dir.
package tap

import (
	"context"
	"io"
	"os"

	"github.com/0xsend/homebrew-canton/internal/ci"
	"github.com/0xsend/homebrew-canton/internal/log"
	"github.com/0xsend/homebrew-canton/internal/manifest"
	"github.com/0xsend/homebrew-canton/internal/release"
)

// DefaultSyncLimit bounds how many releases one sync run will hash.
// Hashing means downloading the full tarball, so unbounded first runs
// against a repository with years of releases would take hours.
const DefaultSyncLimit = 10

// ReleaseSource resolves upstream releases. *release.Client is the
// production implementation.
type ReleaseSource interface {
	FetchReleases(ctx context.Context) ([]release.Record, error)
	Latest(ctx context.Context) (release.Record, error)
	ByTag(ctx context.Context, tag string) (release.Record, error)
}

// Hasher computes asset digests. *digest.Calculator is the production
// implementation.
type Hasher interface {
	FromURL(ctx context.Context, url string) (string, error)
	FromURLDeep(ctx context.Context, url string) (string, int, error)
}

// SignatureChecker verifies an asset's detached signature.
// *signature.Verifier is the production implementation.
type SignatureChecker interface {
	VerifyAsset(ctx context.Context, assetURL string) error
}

// Deps bundles the collaborators shared by the workflows. Signer and
// CI are optional; Logger and Out default to the package logger and
// stdout.
type Deps struct {
	Source ReleaseSource
	Hasher Hasher
	Store  *manifest.Store
	Signer SignatureChecker
	CI     *ci.Writer
	Logger log.Logger
	Out    io.Writer
}

func (d *Deps) fill() {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.CI == nil {
		d.CI = ci.NewWriter()
	}
}

// shortDigest abbreviates a sha256 for display.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// take returns the first limit records, or all of them when limit is
// zero or negative.
func take(records []release.Record, limit int) []release.Record {
	if limit <= 0 || limit >= len(records) {
		return records
	}
	return records[:limit]
}
