package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tapgen %s\n", buildinfo.Version())
		if commit := buildinfo.Commit(); commit != "" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if date := buildinfo.Date(); date != "" {
			fmt.Printf("  built:  %s\n", date)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
