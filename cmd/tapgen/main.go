// tapgen maintains the homebrew-canton tap: it tracks upstream Canton
// releases on GitHub, hashes their assets into versions.json, and
// renders Homebrew formulas from the tap's template.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/buildinfo"
	"github.com/0xsend/homebrew-canton/internal/log"
)

var (
	configFlag  string
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "tapgen",
	Short: "Keep the Canton Homebrew tap in sync with upstream releases",
	Long: `tapgen automates the homebrew-canton tap: it discovers Canton
releases on GitHub, computes sha256 digests for their assets, caches
the results in versions.json, and renders Homebrew formulas from the
tap's template.

A typical CI run:

  tapgen sync
  tapgen generate --latest --force
  tapgen generate-all`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: determineLogLevel(),
		})
		log.SetDefault(log.New(handler))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file (default tapgen.toml, overridable with TAPGEN_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"show operational detail")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"only show errors")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"show debug output")
}

// determineLogLevel resolves the stderr log level. Flags beat the
// TAPGEN_DEBUG/TAPGEN_VERBOSE/TAPGEN_QUIET environment variables, and
// more verbose always beats less verbose.
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	case isTruthy(os.Getenv("TAPGEN_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("TAPGEN_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("TAPGEN_QUIET")):
		return slog.LevelError
	}
	return slog.LevelWarn
}

// isTruthy interprets common boolean-ish env var values.
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// fail prints the error with its suggestion when one exists, then
// exits 1. Every fatal path funnels through here so output stays
// uniform.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var suggester interface{ Suggestion() string }
	if errors.As(err, &suggester) {
		if hint := suggester.Suggestion(); hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", hint)
		}
	}
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
