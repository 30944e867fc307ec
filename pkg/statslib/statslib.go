// Package statslib fetches the live figures shown on the landing page: the
// repository's star and fork counts and the package's latest published version.
package statslib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/cameroncooke/xcodebuildmcp-site/pkg/logger"
)

// RepoMetrics is the projection of the repository API response. A field the
// upstream omits stays nil and is encoded as null.
type RepoMetrics struct {
	Stars *int `json:"stars"`
	Forks *int `json:"forks"`
}

// LatestVersion is the projection of the registry's latest-version document.
type LatestVersion struct {
	Version *string `json:"version"`
}

type registryDocument struct {
	Version *string `json:"version"`
}

// #############################################################################
// # Core Stats Library
// #############################################################################

// StatsLib looks up the repository metrics and the latest package version.
// It is safe for concurrent use.
type StatsLib struct {
	Config Config

	github   *github.Client
	registry *http.Client
	log      *logger.Logger
	group    singleflight.Group
}

// Option configures a StatsLib built by New.
type Option func(*options)

type options struct {
	base http.RoundTripper
	log  *logger.Logger
}

// WithTransport sets the RoundTripper that performs the actual network calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithLogger sets where the library logs upstream URLs and cache hits.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a StatsLib. Both upstreams share one in-memory cache; the token,
// when set, is attached to GitHub calls only.
func New(cfg Config, opts ...Option) (*StatsLib, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{base: http.DefaultTransport, log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	shared := o.base
	if cfg.Freshness > 0 {
		shared = newCacheTransport(o.base, httpcache.NewMemoryCache(), cfg.Freshness)
	}

	githubTransport := shared
	if cfg.Token != "" {
		githubTransport = &oauth2.Transport{
			Base:   shared,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		}
	}

	gh := github.NewClient(&http.Client{Transport: githubTransport, Timeout: cfg.Timeout})
	if cfg.Repository.APIURL != DefaultAPIURL {
		baseURL, err := url.Parse(withTrailingSlash(cfg.Repository.APIURL))
		if err != nil {
			return nil, fmt.Errorf("error parsing GitHub API URL: %w", err)
		}
		gh.BaseURL = baseURL
	}

	return &StatsLib{
		Config:   cfg,
		github:   gh,
		registry: &http.Client{Transport: shared, Timeout: cfg.Timeout},
		log:      o.log,
	}, nil
}

// RepoURL is the upstream endpoint RepoMetrics reads.
func (s *StatsLib) RepoURL() string {
	return s.github.BaseURL.String() + "repos/" + s.Config.Repository.Owner + "/" + s.Config.Repository.Name
}

// VersionURL is the upstream endpoint LatestVersion reads.
func (s *StatsLib) VersionURL() string {
	return withTrailingSlash(s.Config.Package.RegistryURL) + url.PathEscape(s.Config.Package.Name) + "/latest"
}

// RepoMetrics performs a single lookup of the repository's star and fork counts.
// Concurrent callers share one upstream call, which is not bound to any one
// caller's cancellation.
func (s *StatsLib) RepoMetrics(ctx context.Context) (RepoMetrics, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.RepoURL(), func() (interface{}, error) {
		return s.fetchRepoMetrics(shared)
	})
	if err != nil {
		return RepoMetrics{}, err
	}
	return v.(RepoMetrics), nil
}

func (s *StatsLib) fetchRepoMetrics(ctx context.Context) (RepoMetrics, error) {
	if s.Config.LogURLs {
		s.log.Infof("GET %s", s.RepoURL())
	}

	req, err := s.github.NewRequest(http.MethodGet, fmt.Sprintf("repos/%v/%v", s.Config.Repository.Owner, s.Config.Repository.Name), nil)
	if err != nil {
		return RepoMetrics{}, fmt.Errorf("error creating request: %w", err)
	}

	// Decode the raw body ourselves: go-github treats an empty body as success.
	var body bytes.Buffer
	resp, err := s.github.Do(ctx, req, &body)
	if err != nil {
		return RepoMetrics{}, fmt.Errorf("failed to fetch GitHub stats: %w", err)
	}
	if resp != nil && fromCache(resp.Response) {
		s.log.Debugf("served %s from cache", s.RepoURL())
	}

	var repo github.Repository
	if err := json.Unmarshal(body.Bytes(), &repo); err != nil {
		return RepoMetrics{}, fmt.Errorf("failed to fetch GitHub stats: error decoding response: %w", err)
	}

	return RepoMetrics{
		Stars: repo.StargazersCount,
		Forks: repo.ForksCount,
	}, nil
}

// LatestVersion performs a single lookup of the package's latest version,
// shared between concurrent callers like RepoMetrics.
func (s *StatsLib) LatestVersion(ctx context.Context) (LatestVersion, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.VersionURL(), func() (interface{}, error) {
		return s.fetchLatestVersion(shared)
	})
	if err != nil {
		return LatestVersion{}, err
	}
	return v.(LatestVersion), nil
}

func (s *StatsLib) fetchLatestVersion(ctx context.Context) (LatestVersion, error) {
	versionURL := s.VersionURL()
	if s.Config.LogURLs {
		s.log.Infof("GET %s", versionURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL, nil)
	if err != nil {
		return LatestVersion{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.registry.Do(req)
	if err != nil {
		return LatestVersion{}, fmt.Errorf("failed to fetch NPM version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return LatestVersion{}, fmt.Errorf("failed to fetch NPM version: %s", resp.Status)
	}
	if fromCache(resp) {
		s.log.Debugf("served %s from cache", versionURL)
	}

	var doc registryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return LatestVersion{}, fmt.Errorf("error decoding NPM response: %w", err)
	}

	return LatestVersion{Version: doc.Version}, nil
}

// FallbackRepoMetrics returns the configured counts served when the
// repository lookup fails.
func (s *StatsLib) FallbackRepoMetrics() RepoMetrics {
	stars, forks := s.Config.Fallback.Stars, s.Config.Fallback.Forks
	return RepoMetrics{Stars: &stars, Forks: &forks}
}

// FallbackLatestVersion returns the configured version served when the
// registry lookup fails.
func (s *StatsLib) FallbackLatestVersion() LatestVersion {
	version := s.Config.Fallback.Version
	return LatestVersion{Version: &version}
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
