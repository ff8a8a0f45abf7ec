// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// An empty token yields an unauthenticated client, which works for public
// repositories at a much lower rate limit.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// UserExists reports whether the given user or organization exists. Only a
// definitive 404 maps to false; any other failure propagates as an error so
// callers never mistake a transient outage for a missing user.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	_, resp, err := c.gh.Users.Get(ctx, username)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("fetching user %s: %w", username, err)
	}

	logRateLimit(resp, "users/"+username, 1)

	return true, nil
}

// RepositoryExists reports whether owner/name exists. Same 404 contract as
// UserExists.
func (c *Client) RepositoryExists(ctx context.Context, owner, name string) (bool, error) {
	_, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	logRateLimit(resp, owner+"/"+name, 1)

	return true, nil
}

// LatestCommit returns the most recent commit on the repository's default
// branch, or nil, nil for a repository with no commits yet (GitHub answers
// 409 Conflict for an empty repository).
func (c *Client) LatestCommit(ctx context.Context, owner, name string) (*model.Commit, error) {
	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: 1},
	}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, nil
		}
		return nil, fmt.Errorf("listing commits for %s/%s: %w", owner, name, err)
	}

	logRateLimit(resp, owner+"/"+name+"/commits", len(commits))

	if len(commits) == 0 {
		return nil, nil
	}

	return mapCommit(commits[0]), nil
}

// mapCommit converts a go-github RepositoryCommit to a domain model Commit.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapCommit(rc *gh.RepositoryCommit) *model.Commit {
	commit := rc.GetCommit()

	return &model.Commit{
		SHA:        rc.GetSHA(),
		AuthorName: commit.GetAuthor().GetName(),
		AuthoredAt: commit.GetAuthor().GetDate().Time,
		Message:    commit.GetMessage(),
		URL:        rc.GetHTMLURL(),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
