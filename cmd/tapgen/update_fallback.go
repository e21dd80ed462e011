package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/tap"
)

var updateFallbackCmd = &cobra.Command{
	Use:   "update-fallback",
	Short: "Promote the newest cached release to the config fallback",
	Long: `Write the newest hashed manifest entry into the [fallback] block of
the config file. The fallback record keeps formula generation working
when the GitHub API is unreachable.

The config file is rewritten atomically; comments in a hand-edited
file are not preserved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		res, err := tap.UpdateFallback(cfg, config.ResolvePath(configFlag), newStore(cfg))
		if err != nil {
			return err
		}

		if res.Updated {
			fmt.Printf("Fallback updated to %s\n", res.Record.Tag)
		} else {
			fmt.Printf("Fallback already current (%s)\n", res.Record.Tag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateFallbackCmd)
}
