package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/0xsend/homebrew-canton/internal/config"
	"github.com/0xsend/homebrew-canton/internal/httputil"
	"github.com/0xsend/homebrew-canton/internal/log"
)

const releasesPerPage = 100

// Client lists and resolves releases from the upstream repository.
// When a fallback record is configured, any fetch failure is reported
// as a warning and the fallback is returned instead, so CI keeps
// working through GitHub outages.
type Client struct {
	gh            *github.Client
	owner         string
	repo          string
	marker        string
	suffix        string
	fallback      *Record
	authenticated bool
	logger        log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithGitHubClient replaces the underlying GitHub API client. Used by
// tests to point the Client at a local mock server.
func WithGitHubClient(gh *github.Client) Option {
	return func(c *Client) {
		c.gh = gh
	}
}

// WithLogger sets the logger used for fallback warnings and debug
// output.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the upstream repository named in cfg.
// GITHUB_TOKEN is picked up from the environment when present;
// unauthenticated access works but is rate limited to 60 requests
// per hour.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	var httpClient *http.Client
	authenticated := false
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		authenticated = true
	}

	gh := github.NewClient(httpClient)
	if base := cfg.Upstream.APIBase; base != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", base, err)
		}
	}

	c := &Client{
		gh:            gh,
		owner:         cfg.Upstream.Owner,
		repo:          cfg.Upstream.Repo,
		marker:        cfg.Upstream.AssetMarker,
		suffix:        cfg.Upstream.AssetSuffix,
		authenticated: authenticated,
		logger:        log.Default(),
	}
	if fb := cfg.Fallback; fb != nil {
		c.fallback = &Record{
			Tag:           fb.Tag,
			CantonVersion: fb.CantonVersion,
			DownloadURL:   fb.DownloadURL,
			SHA256:        fb.SHA256,
			IsPrerelease:  fb.IsPrerelease,
			PublishedAt:   fb.PublishedAt,
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authenticated reports whether the client carries a GITHUB_TOKEN.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// Slug returns the upstream repository as owner/repo.
func (c *Client) Slug() string {
	return c.owner + "/" + c.repo
}

// FetchReleases returns all qualifying releases in canonical order:
// prereleases first, newest publication date first within each type.
// Drafts and releases without a qualifying asset are dropped. On
// fetch failure with a configured fallback record, the fallback is
// returned as the only entry.
func (c *Client) FetchReleases(ctx context.Context) ([]Record, error) {
	records, err := c.listReleases(ctx)
	if err != nil {
		if c.fallback != nil {
			c.logger.Warn("release fetch failed, using fallback record",
				"repo", c.Slug(), "tag", c.fallback.Tag, "error", err)
			return []Record{*c.fallback}, nil
		}
		return nil, err
	}

	Sort(records)
	return records, nil
}

// Latest returns the first release under the canonical ordering.
func (c *Client) Latest(ctx context.Context) (Record, error) {
	records, err := c.FetchReleases(ctx)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, &FetchError{Repo: c.Slug(), Err: errors.New("no qualifying releases found")}
	}
	return records[0], nil
}

// ByTag resolves a single release by its git tag. The fallback record
// is substituted only when its tag matches the request.
func (c *Client) ByTag(ctx context.Context, tag string) (Record, error) {
	rel, resp, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	if err != nil {
		if c.fallback != nil && c.fallback.Tag == tag {
			c.logger.Warn("release fetch failed, using fallback record",
				"repo", c.Slug(), "tag", tag, "error", err)
			return *c.fallback, nil
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Record{}, &FetchError{
				Repo:       c.Slug(),
				StatusCode: http.StatusNotFound,
				Err:        fmt.Errorf("release %s not found", tag),
			}
		}
		return Record{}, c.wrapErr(err)
	}

	rec, ok := c.qualify(rel)
	if !ok {
		return Record{}, &FetchError{
			Repo: c.Slug(),
			Err:  fmt.Errorf("release %s has no %s*%s asset", tag, c.marker, c.suffix),
		}
	}
	return rec, nil
}

func (c *Client) listReleases(ctx context.Context) ([]Record, error) {
	var records []Record
	opt := &github.ListOptions{PerPage: releasesPerPage}
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, c.owner, c.repo, opt)
		if err != nil {
			return nil, c.wrapErr(err)
		}
		for _, rel := range releases {
			if rec, ok := c.qualify(rel); ok {
				records = append(records, rec)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	c.logger.Debug("fetched releases", "repo", c.Slug(), "qualifying", len(records))
	return records, nil
}

// qualify converts an API release into a Record when it carries a
// canton open-source asset. Drafts never qualify.
func (c *Client) qualify(rel *github.RepositoryRelease) (Record, bool) {
	if rel.GetDraft() {
		return Record{}, false
	}
	for _, asset := range rel.Assets {
		name := asset.GetName()
		idx := strings.Index(name, c.marker)
		if idx < 0 || !strings.HasSuffix(name, c.suffix) {
			continue
		}
		version := strings.TrimSuffix(name[idx+len(c.marker):], c.suffix)
		if version == "" {
			continue
		}
		return Record{
			Tag:           rel.GetTagName(),
			CantonVersion: version,
			DownloadURL:   asset.GetBrowserDownloadURL(),
			IsPrerelease:  rel.GetPrerelease(),
			PublishedAt:   publishedAt(rel),
		}, true
	}
	return Record{}, false
}

func publishedAt(rel *github.RepositoryRelease) string {
	if rel.PublishedAt == nil {
		return ""
	}
	return rel.PublishedAt.Format(time.RFC3339)
}

func (c *Client) wrapErr(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &FetchError{
			Repo:        c.Slug(),
			StatusCode:  http.StatusForbidden,
			RateLimited: true,
			Err:         err,
		}
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &FetchError{
			Repo:       c.Slug(),
			StatusCode: ghErr.Response.StatusCode,
			Err:        err,
		}
	}

	return &FetchError{
		Repo: c.Slug(),
		Kind: httputil.ClassifyNetworkError(err),
		Err:  err,
	}
}
