package wire

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/bitbucket"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/review"
)

var AppSet = wire.NewSet(
	app.NewApp,
	review.NewOrchestrator,
	llm.NewPromptManager,
	provideSource,
	provideReviewer,
)

// provideSource builds the pull request source for the configured host.
func provideSource(ctx context.Context, cfg *config.Config) (core.PullRequestSource, error) {
	httpClient := newHTTPClient(cfg.HTTP.Timeout)

	switch cfg.Host {
	case config.HostBitbucket:
		return bitbucket.NewClient(cfg.Bitbucket, httpClient), nil
	case config.HostGitHub:
		client, err := github.NewPATClient(ctx, cfg.GitHub, httpClient)
		if err != nil {
			return nil, &core.ConfigurationError{Key: "github.api_url", Reason: "invalid GitHub API URL", Err: err}
		}
		return github.NewSource(client, cfg.GitHub.Owner, cfg.GitHub.Repo), nil
	default:
		return nil, &core.ConfigurationError{Key: "host", Reason: fmt.Sprintf("unsupported host %q", cfg.Host)}
	}
}

func provideReviewer(cfg *config.Config, prompts *llm.PromptManager) core.Reviewer {
	return llm.NewOpenAIReviewer(cfg.AI, prompts, newHTTPClient(cfg.AI.Timeout))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: timeout,
	}
}
