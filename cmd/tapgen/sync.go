package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/tap"
)

var syncLimitFlag int

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"generate-manifest"},
	Short:   "Refresh the version manifest from upstream releases",
	Long: `Fetch the qualifying Canton releases from GitHub, download and hash
every asset the manifest does not already cache, and save the result
to versions.json.

The manifest is saved after each hashed release, so an interrupted
run picks up where it left off. Under GitHub Actions the newest tag,
its digest, and whether anything changed are appended to the file
named by GITHUB_OUTPUT.

Examples:
  tapgen sync
  tapgen sync --limit 3
  tapgen generate-manifest --limit 0   # hash everything`,
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

		res, err := tap.NewSyncer(deps).Sync(cmd.Context(), syncLimitFlag)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d releases failed to sync", res.Failed, res.Total)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncLimitFlag, "limit", tap.DefaultSyncLimit,
		"maximum releases to hash in one run (0 for all)")
	rootCmd.AddCommand(syncCmd)
}
