// Package digest downloads release tarballs over HTTPS and computes
// their SHA-256 checksums for formula generation.
//
// Assets are streamed through the hash rather than buffered, so the
// multi-hundred-megabyte Canton tarballs never land on disk or in
// memory. Compression is explicitly disabled end to end: the digest
// must cover the identity bytes Homebrew will download, not a
// transfer-encoded variant.
package digest

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/httputil"
	"github.com/0xsend/homebrew-canton/internal/log"
	"github.com/0xsend/homebrew-canton/internal/progress"
)

// Calculator streams release assets and produces lowercase hex
// SHA-256 digests.
type Calculator struct {
	client *http.Client
	logger log.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithHTTPClient replaces the default secure client. Tests use this to
// trust a local TLS server.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Calculator) {
		c.client = client
	}
}

// WithLogger sets the logger used for download debug output.
func WithLogger(logger log.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// New creates a Calculator with the hardened download client and the
// configured download timeout.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		client: httputil.NewSecureClient(httputil.ClientOptions{
			Timeout: config.GetDownloadTimeout(),
		}),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromURL downloads url and returns the SHA-256 of the response body
// as lowercase hex. URLs must pass httputil.RequireSecureURL.
func (c *Calculator) FromURL(ctx context.Context, url string) (string, error) {
	h := sha256.New()
	if err := c.stream(ctx, url, h, nil); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FromURLDeep behaves like FromURL but additionally decodes the body
// as a gzip compressed tar archive while hashing, so a corrupt or
// truncated tarball is rejected even when its checksum is internally
// consistent. Returns the digest and the number of archive entries.
func (c *Calculator) FromURLDeep(ctx context.Context, url string) (string, int, error) {
	h := sha256.New()
	entries := 0
	err := c.stream(ctx, url, h, func(r io.Reader) error {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("not a gzip stream: %w", err)
		}
		tr := tar.NewReader(gz)
		for {
			_, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("tar entry %d: %w", entries, err)
			}
			entries++
		}
		if entries == 0 {
			return errors.New("archive contains no entries")
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	c.logger.Debug("archive verified", "url", url, "entries", entries)
	return hex.EncodeToString(h.Sum(nil)), entries, nil
}

// stream performs the download, feeding every body byte through h.
// When walk is non-nil it consumes the body via a tee; stream drains
// whatever the walker leaves behind so the hash always covers the
// full asset.
func (c *Calculator) stream(ctx context.Context, url string, h hash.Hash, walk func(io.Reader) error) error {
	if err := httputil.RequireSecureURL(url); err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	req.Header.Set("Accept-Encoding", "identity")

	c.logger.Debug("downloading asset", "url", url)
	resp, err := c.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Kind: httputil.ClassifyNetworkError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}
	if encoding := resp.Header.Get("Content-Encoding"); encoding != "" && encoding != "identity" {
		return &DownloadError{
			URL: url,
			Err: fmt.Errorf("compressed responses not supported (got %s)", encoding),
		}
	}

	var sink io.Writer = h
	if progress.ShouldShowProgress() && resp.ContentLength > 0 {
		pw := progress.NewWriter(h, resp.ContentLength, os.Stdout)
		defer pw.Finish()
		sink = pw
	}

	if walk == nil {
		if _, err := io.Copy(sink, resp.Body); err != nil {
			return &DownloadError{URL: url, Kind: httputil.ClassifyNetworkError(err), Err: err}
		}
		return nil
	}

	tee := io.TeeReader(resp.Body, sink)
	if err := walk(tee); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	// The gzip reader stops at the end of the compressed stream; hash
	// any trailing bytes so the digest matches a plain download.
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return &DownloadError{URL: url, Kind: httputil.ClassifyNetworkError(err), Err: err}
	}
	return nil
}
