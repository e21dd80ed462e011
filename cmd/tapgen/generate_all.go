package main

import (
	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/formula"
	"github.com/0xsend/homebrew-canton/internal/tap"
)

var generateAllCmd = &cobra.Command{
	Use:   "generate-all",
	Short: "Render formulas for every cached release missing one",
	Long: `Compare the manifest against the formula directory and render a
pinned formula for every hashed release that does not have one.
Existing pinned formulas are left untouched; Formula/canton.rb is
always rewritten afterward so it tracks the newest release.

Run after sync to backfill formulas for newly discovered releases:

  tapgen sync && tapgen generate-all`,
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
		tmpl, err := formula.LoadTemplate(cfg.Tap.TemplatePath)
		if err != nil {
			return err
		}

		gen := tap.NewGenerator(deps, tmpl, cfg.Tap.FormulaDir)
		_, err = gen.GenerateAll(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(generateAllCmd)
}
