package tap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/0xsend/homebrew-canton/internal/formula"
	"github.com/0xsend/homebrew-canton/internal/manifest"
	"github.com/0xsend/homebrew-canton/internal/release"
)

// Generator renders formula files from manifest entries or live
// releases.
type Generator struct {
	deps       Deps
	tmpl       *formula.Template
	formulaDir string
}

// NewGenerator creates a formula generation workflow writing into
// formulaDir.
func NewGenerator(deps Deps, tmpl *formula.Template, formulaDir string) *Generator {
	deps.fill()
	return &Generator{deps: deps, tmpl: tmpl, formulaDir: formulaDir}
}

// GenerateOptions selects what to generate and how to handle an
// existing file. Confirm, when set, is asked before overwriting
// without Force; a nil Confirm makes an existing file an error.
type GenerateOptions struct {
	Tag     string
	Latest  bool
	Force   bool
	Confirm func(path string) bool
}

// GenerateResult reports what a generate call produced.
type GenerateResult struct {
	Record  release.Record
	Path    string
	Written bool
	Skipped bool
}

// Generate renders one formula. With Latest set it resolves the
// newest release and writes canton.rb; with a tag it writes the
// pinned canton@<version>.rb. Digests come from the manifest when
// cached, otherwise the asset is hashed and the manifest updated on
// the way through.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Latest == (opts.Tag != "") {
		return nil, errors.New("generate needs exactly one of a tag or the latest flag")
	}

	rec, err := g.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	content, err := formula.Render(g.tmpl, rec, opts.Latest)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(g.formulaDir, formula.FileName(rec, opts.Latest))
	res := &GenerateResult{Record: rec, Path: path}

	err = formula.WriteFile(path, content, opts.Force)
	if errors.Is(err, formula.ErrExists) {
		if opts.Confirm == nil {
			return res, fmt.Errorf("%w (pass --force to overwrite)", err)
		}
		if !opts.Confirm(path) {
			res.Skipped = true
			fmt.Fprintf(g.deps.Out, "Skipped %s\n", path)
			return res, nil
		}
		err = formula.WriteFile(path, content, true)
	}
	if err != nil {
		return res, err
	}

	res.Written = true
	fmt.Fprintf(g.deps.Out, "Wrote %s (%s, sha256 %s)\n",
		path, rec.Tag, shortDigest(rec.SHA256))
	return res, nil
}

// resolve produces a fully hashed record for the request. Manifest
// entries win over the network; anything resolved live is cached back
// into the manifest.
func (g *Generator) resolve(ctx context.Context, opts GenerateOptions) (release.Record, error) {
	d := &g.deps

	m, err := d.Store.Load()
	if err != nil {
		return release.Record{}, err
	}

	if opts.Latest {
		if newest, ok := m.Newest(); ok {
			return newest, nil
		}
		d.Logger.Debug("manifest has no hashed entries, fetching latest from upstream")
		rec, err := d.Source.Latest(ctx)
		if err != nil {
			return release.Record{}, err
		}
		return g.ensureDigest(ctx, m, rec)
	}

	if m.Has(opts.Tag) {
		return m.Record(opts.Tag)
	}

	rec, err := d.Source.ByTag(ctx, opts.Tag)
	if err != nil {
		return release.Record{}, err
	}
	return g.ensureDigest(ctx, m, rec)
}

// ensureDigest hashes rec when needed and persists it, so the next
// run serves the same release from the manifest.
func (g *Generator) ensureDigest(ctx context.Context, m *manifest.Manifest, rec release.Record) (release.Record, error) {
	d := &g.deps

	if cached, err := m.Record(rec.Tag); err == nil && cached.SHA256 != "" {
		return cached, nil
	}

	if rec.SHA256 == "" {
		fmt.Fprintf(d.Out, "   Hashing %s\n", rec.Tag)
		sum, err := d.Hasher.FromURL(ctx, rec.DownloadURL)
		if err != nil {
			return release.Record{}, err
		}
		rec.SHA256 = sum
	}

	m.Set(rec)
	if err := d.Store.Save(m); err != nil {
		return release.Record{}, err
	}
	return rec, nil
}

// GenerateAllResult reports a generate-all run.
type GenerateAllResult struct {
	Written  []string
	Existing int
	Latest   string
}

// GenerateAll renders a pinned formula for every cached manifest
// entry that does not have one yet, leaving existing files alone,
// then rewrites the latest formula so it tracks the newest release.
func (g *Generator) GenerateAll(ctx context.Context) (*GenerateAllResult, error) {
	m, err := g.deps.Store.Load()
	if err != nil {
		return nil, err
	}

	res := &GenerateAllResult{}
	for _, rec := range m.Records() {
		if rec.SHA256 == "" {
			continue
		}

		path := filepath.Join(g.formulaDir, formula.FileName(rec, false))
		content, err := formula.Render(g.tmpl, rec, false)
		if err != nil {
			return res, err
		}

		err = formula.WriteFile(path, content, false)
		if errors.Is(err, formula.ErrExists) {
			res.Existing++
			continue
		}
		if err != nil {
			return res, err
		}

		res.Written = append(res.Written, path)
		fmt.Fprintf(g.deps.Out, "Wrote %s (%s)\n", path, rec.Tag)
	}

	if newest, ok := m.Newest(); ok {
		content, err := formula.Render(g.tmpl, newest, true)
		if err != nil {
			return res, err
		}
		path := filepath.Join(g.formulaDir, formula.FileName(newest, true))
		if err := formula.WriteFile(path, content, true); err != nil {
			return res, err
		}
		res.Latest = path
		fmt.Fprintf(g.deps.Out, "Wrote %s (%s)\n", path, newest.Tag)
	}

	fmt.Fprintf(g.deps.Out, "Generated %d new formulas, %d already present\n",
		len(res.Written), res.Existing)
	return res, nil
}
