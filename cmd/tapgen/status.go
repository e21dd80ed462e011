package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/tap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tap's local state",
	Long: `Summarize the manifest, fallback record, template, and rendered
formulas, then list every cached release with its hash and render
state. Works entirely offline.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := tap.CollectStatus(cfg, newStore(cfg))
		if err != nil {
			return err
		}
		st.Print(os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
