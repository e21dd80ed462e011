package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xsend/homebrew-canton/internal/formula"
	"github.com/0xsend/homebrew-canton/internal/tap"
)

var (
	generateLatestFlag bool
	generateForceFlag  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [tag]",
	Short: "Render the Homebrew formula for one release",
	Long: `Render a formula from the tap's template. A tag argument produces the
pinned formula Formula/canton@<version>.rb; --latest produces the
unversioned Formula/canton.rb tracking the newest release.

Digests are served from the manifest when cached; otherwise the asset
is downloaded, hashed, and cached on the way through. When the target
file already exists, interactive runs ask before overwriting and
non-interactive runs fail unless --force is given.

Examples:
  tapgen generate v2.10.2
  tapgen generate --latest --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var tag string
		if len(args) == 1 {
			tag = args[0]
		}

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

		opts := tap.GenerateOptions{
			Tag:    tag,
			Latest: generateLatestFlag,
			Force:  generateForceFlag,
		}
		if isInteractive() {
			opts.Confirm = func(path string) bool {
				return confirmWithUser(fmt.Sprintf("%s already exists, overwrite?", path))
			}
		}

		gen := tap.NewGenerator(deps, tmpl, cfg.Tap.FormulaDir)
		_, err = gen.Generate(cmd.Context(), opts)
		return err
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateLatestFlag, "latest", false,
		"render the unversioned formula for the newest release")
	generateCmd.Flags().BoolVarP(&generateForceFlag, "force", "f", false,
		"overwrite an existing formula without asking")
	rootCmd.AddCommand(generateCmd)
}
