// Package signature verifies detached PGP signatures on release
// assets against a pinned public key.
//
// Verification is an optional tier on top of the SHA-256 digests:
// when [signing] is enabled in tapgen.toml, sync and verify also
// check the .asc signature GitHub serves next to each asset. Releases
// without a published signature are reported, not failed, because
// upstream has not signed every historical release.
package signature

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/crypto"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/httputil"
	"github.com/0xsend/homebrew-canton/internal/log"
)

const (
	// maxKeySize caps the public key file at 100KB.
	maxKeySize = 100 * 1024

	// maxSignatureSize caps a detached signature at 10KB.
	maxSignatureSize = 10 * 1024

	signatureFetchTimeout = 30 * time.Second
)

// ErrNoSignature reports that the asset has no published .asc
// signature. Callers treat this as a skip, not a failure.
var ErrNoSignature = errors.New("no detached signature published")

// Verifier checks detached signatures with a single trusted key.
type Verifier struct {
	keyRing     *crypto.KeyRing
	fingerprint string
	client      *http.Client
	logger      log.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHTTPClient replaces the default secure client. Tests use this
// to trust a local TLS server.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		v.client = client
	}
}

// WithLogger sets the logger used for verification debug output.
func WithLogger(logger log.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier loads the public key named in cfg and pins it to the
// configured fingerprint when one is set.
func NewVerifier(cfg config.SigningConfig, opts ...Option) (*Verifier, error) {
	data, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	if len(data) > maxKeySize {
		return nil, fmt.Errorf("public key exceeds maximum size of %d bytes", maxKeySize)
	}

	key, err := crypto.NewKeyFromArmored(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	keyFingerprint := strings.ToUpper(key.GetFingerprint())
	if cfg.Fingerprint != "" {
		pinned, err := ParseFingerprint(cfg.Fingerprint)
		if err != nil {
			return nil, err
		}
		if keyFingerprint != pinned {
			return nil, fmt.Errorf("key fingerprint mismatch: expected %s, got %s", pinned, keyFingerprint)
		}
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyring: %w", err)
	}

	v := &Verifier{
		keyRing:     keyRing,
		fingerprint: keyFingerprint,
		client: httputil.NewSecureClient(httputil.ClientOptions{
			Timeout: config.GetDownloadTimeout(),
		}),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Fingerprint returns the trusted key fingerprint in GPG display
// format.
func (v *Verifier) Fingerprint() string {
	return FormatFingerprint(v.fingerprint)
}

// VerifyAsset fetches the detached signature next to assetURL and
// verifies the asset bytes against it. Returns ErrNoSignature when
// the .asc asset does not exist upstream.
func (v *Verifier) VerifyAsset(ctx context.Context, assetURL string) error {
	if err := httputil.RequireSecureURL(assetURL); err != nil {
		return err
	}

	sigData, err := v.fetchSignature(ctx, assetURL+".asc")
	if err != nil {
		return err
	}

	sig, err := crypto.NewPGPSignatureFromArmored(string(sigData))
	if err != nil {
		sig = crypto.NewPGPSignature(sigData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create asset request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch asset for signature check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch asset for signature check: HTTP %d", resp.StatusCode)
	}

	if err := v.keyRing.VerifyDetachedStream(resp.Body, sig, 0); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	v.logger.Debug("signature verified", "url", assetURL, "fingerprint", v.Fingerprint())
	return nil
}

func (v *Verifier) fetchSignature(ctx context.Context, sigURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, signatureFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signature from %s: %w", sigURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoSignature
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch signature: HTTP %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxSignatureSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}
	if len(data) > maxSignatureSize {
		return nil, fmt.Errorf("signature exceeds maximum size of %d bytes", maxSignatureSize)
	}
	return data, nil
}

// FormatFingerprint renders a fingerprint in the standard GPG format,
// grouped by four.
func FormatFingerprint(fp string) string {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return fp
	}
	var parts []string
	for i := 0; i < 40; i += 4 {
		parts = append(parts, fp[i:i+4])
	}
	return strings.Join(parts, " ")
}

// ParseFingerprint normalizes a fingerprint to 40 uppercase hex
// characters, rejecting anything else.
func ParseFingerprint(fp string) (string, error) {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return "", fmt.Errorf("fingerprint must be 40 hex characters, got %d", len(fp))
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", fmt.Errorf("fingerprint contains invalid hex characters: %w", err)
	}
	return fp, nil
}
