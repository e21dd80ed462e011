package tap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/formula"
	"github.com/0xsend/homebrew-canton/internal/manifest"
)

// Status is an offline snapshot of the tap's local state. Nothing in
// here touches the network, so the status command works on a plane.
type Status struct {
	ManifestPath   string
	ManifestExists bool
	UpdatedAt      time.Time
	Versions       int
	Hashed         int
	NewestTag      string
	Upstream       string
	TokenSet       bool
	FallbackTag    string
	TemplatePath   string
	TemplateExists bool
	FormulaDir     string
	FormulaCount   int
	Entries        []StatusEntry
}

// StatusEntry is one manifest entry matched against the formula dir.
type StatusEntry struct {
	Tag           string
	CantonVersion string
	ReleaseType   string
	Hashed        bool
	Rendered      bool
}

// CollectStatus inspects the manifest, config, and tap files.
func CollectStatus(cfg *config.Config, store *manifest.Store) (*Status, error) {
	st := &Status{
		ManifestPath: store.Path(),
		Upstream:     cfg.Upstream.Slug(),
		TokenSet:     os.Getenv("GITHUB_TOKEN") != "",
		TemplatePath: cfg.Tap.TemplatePath,
		FormulaDir:   cfg.Tap.FormulaDir,
	}

	if _, err := os.Stat(store.Path()); err == nil {
		st.ManifestExists = true
	}

	m, err := store.Load()
	if err != nil {
		return nil, err
	}
	st.UpdatedAt = m.UpdatedAt
	st.Versions = len(m.Versions)
	if rec, ok := m.Newest(); ok {
		st.NewestTag = rec.Tag
	}

	for _, rec := range m.Records() {
		entry := StatusEntry{
			Tag:           rec.Tag,
			CantonVersion: rec.CantonVersion,
			ReleaseType:   rec.ReleaseType(),
			Hashed:        rec.SHA256 != "",
		}
		if entry.Hashed {
			st.Hashed++
		}
		path := filepath.Join(cfg.Tap.FormulaDir, formula.FileName(rec, false))
		if _, err := os.Stat(path); err == nil {
			entry.Rendered = true
		}
		st.Entries = append(st.Entries, entry)
	}

	if cfg.Fallback != nil {
		st.FallbackTag = cfg.Fallback.Tag
	}

	if _, err := os.Stat(cfg.Tap.TemplatePath); err == nil {
		st.TemplateExists = true
	}

	formulas, err := filepath.Glob(filepath.Join(cfg.Tap.FormulaDir, "canton*.rb"))
	if err == nil {
		st.FormulaCount = len(formulas)
	}

	return st, nil
}

// Print writes the status in a human-readable layout.
func (s *Status) Print(w io.Writer) {
	fmt.Fprintf(w, "Manifest:  %s", s.ManifestPath)
	if !s.ManifestExists {
		fmt.Fprintf(w, " (not created yet, run 'tapgen sync')\n")
	} else {
		fmt.Fprintf(w, " (%d versions, %d hashed)\n", s.Versions, s.Hashed)
		if !s.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "  Updated: %s\n", s.UpdatedAt.Format(time.RFC3339))
		}
		if s.NewestTag != "" {
			fmt.Fprintf(w, "  Newest:  %s\n", s.NewestTag)
		}
	}

	fmt.Fprintf(w, "Upstream:  %s", s.Upstream)
	if s.TokenSet {
		fmt.Fprintf(w, " (authenticated)\n")
	} else {
		fmt.Fprintf(w, " (anonymous, set GITHUB_TOKEN for higher rate limits)\n")
	}

	if s.FallbackTag != "" {
		fmt.Fprintf(w, "Fallback:  %s\n", s.FallbackTag)
	} else {
		fmt.Fprintf(w, "Fallback:  none (run 'tapgen update-fallback')\n")
	}

	fmt.Fprintf(w, "Template:  %s", s.TemplatePath)
	if s.TemplateExists {
		fmt.Fprintf(w, "\n")
	} else {
		fmt.Fprintf(w, " (missing)\n")
	}

	fmt.Fprintf(w, "Formulas:  %s (%d rendered)\n", s.FormulaDir, s.FormulaCount)

	if len(s.Entries) > 0 {
		fmt.Fprintf(w, "\n   %-28s %-28s %-10s %-7s %s\n",
			"TAG", "CANTON", "TYPE", "HASHED", "RENDERED")
		for _, e := range s.Entries {
			fmt.Fprintf(w, "   %-28s %-28s %-10s %-7s %s\n",
				e.Tag, e.CantonVersion, e.ReleaseType, yesNo(e.Hashed), yesNo(e.Rendered))
		}
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
