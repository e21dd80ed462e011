package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/digest"
	"github.com/0xsend/homebrew-canton/internal/log"
	"github.com/0xsend/homebrew-canton/internal/manifest"
	"github.com/0xsend/homebrew-canton/internal/release"
	"github.com/0xsend/homebrew-canton/internal/signature"
	"github.com/0xsend/homebrew-canton/internal/tap"
)

// loadConfig reads the config honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configFlag)
}

// newStore builds the manifest store for cfg.
func newStore(cfg *config.Config) *manifest.Store {
	return manifest.NewStore(cfg.Tap.ManifestPath, manifest.WithLogger(log.Default()))
}

// buildDeps assembles the workflow collaborators from cfg: the GitHub
// release client, the digest calculator, the manifest store, and the
// signature verifier when signing is configured.
func buildDeps(cfg *config.Config) (tap.Deps, error) {
	logger := log.Default()

	source, err := release.New(cfg, release.WithLogger(logger))
	if err != nil {
		return tap.Deps{}, err
	}
	if !source.Authenticated() {
		logger.Debug("no GITHUB_TOKEN set, using anonymous API access")
	}

	deps := tap.Deps{
		Source: source,
		Hasher: digest.New(digest.WithLogger(logger)),
		Store:  newStore(cfg),
		Logger: logger,
	}

	if cfg.Signing.Enabled {
		signer, err := signature.NewVerifier(cfg.Signing, signature.WithLogger(logger))
		if err != nil {
			return tap.Deps{}, err
		}
		deps.Signer = signer
		logger.Info("signature verification enabled", "fingerprint", signer.Fingerprint())
	}

	return deps, nil
}

// confirmWithUser prompts the user with a message and waits for a y/N
// response. Non-interactive sessions decline automatically.
func confirmWithUser(prompt string) bool {
	if !isInteractive() {
		return false
	}

	fmt.Fprintf(os.Stderr, "%s (y/N) ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// isInteractive returns true if stdin is connected to a terminal.
// Piped and redirected stdin, including /dev/null, is not interactive.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
