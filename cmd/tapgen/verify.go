package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/tap"
)

var (
	verifyCountFlag int
	verifyDeepFlag  bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-download cached releases and check their digests",
	Long: `Re-download the newest cached releases, re-hash them, and compare
against the digests stored in the manifest. Every entry is checked
even after a mismatch, and the exit code is nonzero if any entry
failed.

--deep additionally walks each tarball's gzip and tar structure while
hashing, catching archives that are intact byte-wise but truncated.

Examples:
  tapgen verify
  tapgen verify --count 3 --deep`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			return err
		}

		res, err := tap.NewVerifier(deps).Verify(cmd.Context(), tap.VerifyOptions{
			Count: verifyCountFlag,
			Deep:  verifyDeepFlag,
		})
		if err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("verification failed for %d of %d entries",
				len(res.Mismatches)+len(res.Failures), res.Checked)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().IntVar(&verifyCountFlag, "count", 10,
		"number of entries to check, newest first (0 for all)")
	verifyCmd.Flags().BoolVar(&verifyDeepFlag, "deep", false,
		"also validate each archive's gzip and tar structure")
	rootCmd.AddCommand(verifyCmd)
}
