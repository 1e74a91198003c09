package bitbucket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
)

const samplePullRequest = `{
  "id": 42,
  "title": "Add retry to payment webhook",
  "description": "Retries failed deliveries with backoff.",
  "author": {"display_name": "Jane Doe", "nickname": "jdoe"},
  "source": {"branch": {"name": "feature/retry"}},
  "destination": {"branch": {"name": "main"}},
  "links": {"html": {"href": "https://bitbucket.org/acme/payments/pull-requests/42"}}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*config.BitbucketConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.BitbucketConfig{
		Workspace: "acme",
		Repo:      "payments",
		Token:     "bb-token",
		APIURL:    srv.URL + "/",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg, srv.Client())
}

func TestClient_GetPullRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repositories/acme/payments/pullrequests/42", r.URL.Path)
		assert.Equal(t, "Bearer bb-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePullRequest))
	}, nil)

	pr, err := c.GetPullRequest(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, &core.PullRequestInfo{
		ID:                42,
		Title:             "Add retry to payment webhook",
		AuthorDisplayName: "Jane Doe",
		Description:       "Retries failed deliveries with backoff.",
		SourceBranch:      "feature/retry",
		TargetBranch:      "main",
		URL:               "https://bitbucket.org/acme/payments/pull-requests/42",
	}, pr)
}

func TestClient_GetPullRequest_Fallbacks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"title":"t","summary":{"raw":"from summary"},"author":{"nickname":"jdoe"}}`))
	}, nil)

	pr, err := c.GetPullRequest(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 9, pr.ID)
	assert.Equal(t, "from summary", pr.Description)
	assert.Equal(t, "jdoe", pr.AuthorDisplayName)
}

func TestClient_BasicAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "jdoe", user)
		assert.Equal(t, "app-pass", pass)
		_, _ = w.Write([]byte(samplePullRequest))
	}, func(cfg *config.BitbucketConfig) {
		cfg.Token = ""
		cfg.Username = "jdoe"
		cfg.AppPassword = "app-pass"
	})

	_, err := c.GetPullRequest(context.Background(), 42)
	require.NoError(t, err)
}

func TestClient_GetPullRequestDiff(t *testing.T) {
	const diff = "diff --git a/foo.js b/foo.js\n--- a/foo.js\n+++ b/foo.js\n@@ -1 +1 @@\n-a\n+b\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repositories/acme/payments/pullrequests/42/diff", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(diff))
	}, nil)

	got, err := c.GetPullRequestDiff(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, diff, got)
}

func TestClient_EmptyDiffIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	got, err := c.GetPullRequestDiff(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "Not found with error envelope",
			status:  http.StatusNotFound,
			body:    `{"type":"error","error":{"message":"Pull request not found"}}`,
			wantMsg: "Pull request not found",
		},
		{
			name:    "Unauthorized with plain body",
			status:  http.StatusUnauthorized,
			body:    "Unauthorized",
			wantMsg: "Unauthorized",
		},
		{
			name:    "Server error with empty body",
			status:  http.StatusBadGateway,
			wantMsg: "empty response body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			_, err := c.GetPullRequest(context.Background(), 42)
			var te *core.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Contains(t, te.Error(), tt.wantMsg)
			assert.NotContains(t, te.Error(), "bb-token")
		})
	}
}

func TestClient_MalformedMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "not-a-number"`))
	}, nil)

	_, err := c.GetPullRequest(context.Background(), 42)
	assert.True(t, core.IsTransportError(err))
}

func TestClient_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(config.BitbucketConfig{Workspace: "acme", Repo: "payments", Token: "x", APIURL: srv.URL}, nil)
	_, err := c.GetPullRequestDiff(context.Background(), 1)

	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(samplePullRequest))
	}, func(cfg *config.BitbucketConfig) {
		cfg.RateLimit = 0.001
	})

	_, err := c.GetPullRequest(context.Background(), 42)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetPullRequest(ctx, 42)
	assert.True(t, core.IsTransportError(err))
	assert.Equal(t, int32(1), calls.Load())
}
