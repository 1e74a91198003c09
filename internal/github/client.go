// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
)

// Client defines the read operations on GitHub pull requests the reviewer needs.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
}

type gitHubClient struct {
	client *github.Client
}

// NewGitHubClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewGitHubClient(client *github.Client) Client {
	return &gitHubClient{client: client}
}

// NewPATClient creates a new GitHub client authenticated with a Personal Access Token (PAT).
// A non-empty cfg.APIURL points the client at a GitHub Enterprise Server instance.
// The timeout of base, when set, is kept on the authenticated client.
func NewPATClient(ctx context.Context, cfg config.GitHubConfig, base *http.Client) (Client, error) {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token.Reveal()},
	)
	tc := oauth2.NewClient(ctx, ts)
	if base != nil {
		tc.Timeout = base.Timeout
	}

	client := github.NewClient(tc)
	if cfg.APIURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github.api_url: %w", err)
		}
	}
	return &gitHubClient{client: client}, nil
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// GetPullRequestDiff retrieves the diff of a pull request as a string.
func (g *gitHubClient) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := g.client.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{
		Type: github.Diff,
	})
	if err != nil {
		return "", err
	}
	return diff, nil
}

// Source adapts a Client bound to one repository to core.PullRequestSource.
type Source struct {
	client Client
	owner  string
	repo   string
}

// NewSource binds client to owner/repo.
func NewSource(client Client, owner, repo string) *Source {
	return &Source{client: client, owner: owner, repo: repo}
}

// GetPullRequest fetches the metadata of pull request id. The author's profile
// name is preferred over the login; the user embedded in a pull request often
// carries only the login.
func (s *Source) GetPullRequest(ctx context.Context, id int) (*core.PullRequestInfo, error) {
	pr, err := s.client.GetPullRequest(ctx, s.owner, s.repo, id)
	if err != nil {
		return nil, transportError("github: get pull request", err)
	}

	author := pr.GetUser().GetName()
	if author == "" {
		author = pr.GetUser().GetLogin()
	}
	number := pr.GetNumber()
	if number == 0 {
		number = id
	}

	return &core.PullRequestInfo{
		ID:                number,
		Title:             pr.GetTitle(),
		AuthorDisplayName: author,
		Description:       pr.GetBody(),
		SourceBranch:      pr.GetHead().GetRef(),
		TargetBranch:      pr.GetBase().GetRef(),
		URL:               pr.GetHTMLURL(),
	}, nil
}

// GetPullRequestDiff fetches the unified diff of pull request id.
func (s *Source) GetPullRequestDiff(ctx context.Context, id int) (string, error) {
	diff, err := s.client.GetPullRequestDiff(ctx, s.owner, s.repo, id)
	if err != nil {
		return "", transportError("github: get pull request diff", err)
	}
	return diff, nil
}

func transportError(op string, err error) error {
	te := &core.TransportError{Op: op, Err: err}
	var ghErr *github.ErrorResponse
	var rateErr *github.RateLimitError
	switch {
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		te.StatusCode = ghErr.Response.StatusCode
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		te.StatusCode = rateErr.Response.StatusCode
	}
	return te
}
