// Package bitbucket provides read access to Bitbucket Cloud pull requests.
package bitbucket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
)

const (
	// DefaultAPIURL is the Bitbucket Cloud REST API root.
	DefaultAPIURL = "https://api.bitbucket.org/2.0"

	maxErrorBodyLen = 512
)

// Client reads pull requests of one Bitbucket repository. It implements
// core.PullRequestSource.
type Client struct {
	baseURL     string
	workspace   string
	repo        string
	token       config.Secret
	username    string
	appPassword config.Secret
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a client for cfg.Workspace/cfg.Repo. A bearer token takes
// precedence over username plus app password. A RateLimit of zero disables
// client-side throttling.
func NewClient(cfg config.BitbucketConfig, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:     baseURL,
		workspace:   cfg.Workspace,
		repo:        cfg.Repo,
		token:       cfg.Token,
		username:    cfg.Username,
		appPassword: cfg.AppPassword,
		httpClient:  httpClient,
		limiter:     limiter,
	}
}

type pullRequestResponse struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Summary     struct {
		Raw string `json:"raw"`
	} `json:"summary"`
	Author struct {
		DisplayName string `json:"display_name"`
		Nickname    string `json:"nickname"`
	} `json:"author"`
	Source struct {
		Branch struct {
			Name string `json:"name"`
		} `json:"branch"`
	} `json:"source"`
	Destination struct {
		Branch struct {
			Name string `json:"name"`
		} `json:"branch"`
	} `json:"destination"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
}

// GetPullRequest fetches the metadata of pull request id.
func (c *Client) GetPullRequest(ctx context.Context, id int) (*core.PullRequestInfo, error) {
	const op = "bitbucket: get pull request"

	body, err := c.get(ctx, op, c.pullRequestURL(id), "application/json")
	if err != nil {
		return nil, err
	}

	var pr pullRequestResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	description := pr.Description
	if description == "" {
		description = pr.Summary.Raw
	}
	author := pr.Author.DisplayName
	if author == "" {
		author = pr.Author.Nickname
	}
	number := pr.ID
	if number == 0 {
		number = id
	}

	return &core.PullRequestInfo{
		ID:                number,
		Title:             pr.Title,
		AuthorDisplayName: author,
		Description:       description,
		SourceBranch:      pr.Source.Branch.Name,
		TargetBranch:      pr.Destination.Branch.Name,
		URL:               pr.Links.HTML.Href,
	}, nil
}

// GetPullRequestDiff fetches the unified diff of pull request id.
func (c *Client) GetPullRequestDiff(ctx context.Context, id int) (string, error) {
	body, err := c.get(ctx, "bitbucket: get pull request diff", c.pullRequestURL(id)+"/diff", "text/plain")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) pullRequestURL(id int) string {
	return fmt.Sprintf("%s/repositories/%s/%s/pullrequests/%d",
		c.baseURL, url.PathEscape(c.workspace), url.PathEscape(c.repo), id)
}

func (c *Client) get(ctx context.Context, op, apiURL, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", accept)
	if !c.token.IsZero() {
		req.Header.Set("Authorization", "Bearer "+c.token.Reveal())
	} else {
		req.SetBasicAuth(c.username, c.appPassword.Reveal())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(errorMessage(body))}
	}
	return body, nil
}

// errorMessage extracts Bitbucket's error.message, falling back to a truncated body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBodyLen {
		msg = msg[:maxErrorBodyLen] + "..."
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}
