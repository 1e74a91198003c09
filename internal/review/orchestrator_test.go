package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/mocks"
)

const fooDiff = "diff --git a/foo.js b/foo.js\n--- a/foo.js\n+++ b/foo.js\n@@ -1 +1 @@\n-var a = 1;\n+let a = 1;\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingProgress struct {
	mu    sync.Mutex
	lines []string
}

func (p *recordingProgress) Step(name string) { p.add("step: " + name) }

func (p *recordingProgress) Info(format string, args ...any) {
	p.add("info: " + fmt.Sprintf(format, args...))
}

func (p *recordingProgress) Done(details ...string) {
	p.add("done: " + strings.Join(details, "; "))
}

func (p *recordingProgress) add(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, s)
}

func (p *recordingProgress) text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.lines, "\n")
}

func TestOrchestrator_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPullRequestSource(ctrl)
	reviewer := mocks.NewMockReviewer(ctrl)

	pr := &core.PullRequestInfo{ID: 42, Title: "Use let", AuthorDisplayName: "Jane Doe"}
	source.EXPECT().GetPullRequest(gomock.Any(), 42).Return(pr, nil)
	source.EXPECT().GetPullRequestDiff(gomock.Any(), 42).Return(fooDiff, nil)

	wantPrompt := "File: foo.js\n```diff\n" + strings.TrimSpace(fooDiff) + "\n```"
	decision := &core.ReviewDecision{
		ReviewText: core.FormatReviewText("Looks fine", core.DecisionApprove, "no issues"),
		Decision:   core.DecisionApprove,
		Reason:     "no issues",
	}
	reviewer.EXPECT().Review(gomock.Any(), wantPrompt, "Prefer let over var.").Return(decision, nil)

	progress := &recordingProgress{}
	o := NewOrchestrator(source, reviewer, progress, discardLogger())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	report, err := o.Run(context.Background(), 42, "Prefer let over var.")
	require.NoError(t, err)

	assert.Equal(t, *pr, report.PullRequest)
	assert.Equal(t, *decision, report.Review)
	assert.Equal(t, []string{"foo.js"}, report.Files)
	assert.Equal(t, fixed, report.GeneratedAt)

	out := progress.text()
	assert.Contains(t, out, "PR #42: Use let")
	assert.Contains(t, out, "foo.js (+1/-1)")
	assert.Contains(t, out, "Decision: APPROVE")
}

func TestOrchestrator_EmptyDiffStillReviews(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPullRequestSource(ctrl)
	reviewer := mocks.NewMockReviewer(ctrl)

	source.EXPECT().GetPullRequest(gomock.Any(), 1).Return(&core.PullRequestInfo{ID: 1, Title: "Empty"}, nil)
	source.EXPECT().GetPullRequestDiff(gomock.Any(), 1).Return("", nil)
	reviewer.EXPECT().Review(gomock.Any(), "", "rules").Return(&core.ReviewDecision{Decision: core.DecisionApprove}, nil)

	progress := &recordingProgress{}
	report, err := NewOrchestrator(source, reviewer, progress, discardLogger()).Run(context.Background(), 1, "rules")
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Contains(t, progress.text(), "no file changes")
}

func TestOrchestrator_FetchFailureCancelsSibling(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(source *mocks.MockPullRequestSource, fetchErr error)
		wantInErr string
	}{
		{
			name: "Metadata fails after a delay while diff succeeds",
			setup: func(source *mocks.MockPullRequestSource, fetchErr error) {
				source.EXPECT().GetPullRequest(gomock.Any(), 7).DoAndReturn(
					func(_ context.Context, _ int) (*core.PullRequestInfo, error) {
						time.Sleep(20 * time.Millisecond)
						return nil, fetchErr
					})
				source.EXPECT().GetPullRequestDiff(gomock.Any(), 7).Return(fooDiff, nil)
			},
			wantInErr: "fetching pull request #7",
		},
		{
			name: "Diff fails while metadata blocks until cancelled",
			setup: func(source *mocks.MockPullRequestSource, fetchErr error) {
				source.EXPECT().GetPullRequest(gomock.Any(), 7).DoAndReturn(
					func(ctx context.Context, _ int) (*core.PullRequestInfo, error) {
						select {
						case <-ctx.Done():
							return nil, ctx.Err()
						case <-time.After(5 * time.Second):
							return &core.PullRequestInfo{ID: 7}, nil
						}
					})
				source.EXPECT().GetPullRequestDiff(gomock.Any(), 7).Return("", fetchErr)
			},
			wantInErr: "fetching diff of pull request #7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mocks.NewMockPullRequestSource(ctrl)
			reviewer := mocks.NewMockReviewer(ctrl)

			fetchErr := &core.TransportError{Op: "get", StatusCode: http.StatusNotFound, Err: errors.New("not found")}
			tt.setup(source, fetchErr)

			start := time.Now()
			report, err := NewOrchestrator(source, reviewer, nil, discardLogger()).Run(context.Background(), 7, "rules")

			assert.Nil(t, report)
			assert.ErrorIs(t, err, fetchErr)
			assert.Contains(t, err.Error(), tt.wantInErr)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestOrchestrator_ReviewerErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPullRequestSource(ctrl)
	reviewer := mocks.NewMockReviewer(ctrl)

	source.EXPECT().GetPullRequest(gomock.Any(), 3).Return(&core.PullRequestInfo{ID: 3}, nil)
	source.EXPECT().GetPullRequestDiff(gomock.Any(), 3).Return(fooDiff, nil)
	protoErr := &core.ProtocolError{Reason: "response contains no function call"}
	reviewer.EXPECT().Review(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, protoErr)

	report, err := NewOrchestrator(source, reviewer, nil, discardLogger()).Run(context.Background(), 3, "rules")
	assert.Nil(t, report)

	var got *core.ProtocolError
	require.ErrorAs(t, err, &got)
	assert.Same(t, protoErr, got)
}

// TestOrchestrator_EndToEnd runs the real prompt builder and OpenAI reviewer
// against a fake chat-completions server.
func TestOrchestrator_EndToEnd(t *testing.T) {
	var userPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		userPrompt = body.Messages[1].Content

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[{"id":"c1","type":"function",` +
			`"function":{"name":"submit_review","arguments":"{\"review\":\"Looks fine\",\"decision\":\"APPROVE\",\"reason\":\"no issues\"}"}}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	pm, err := llm.NewPromptManager()
	require.NoError(t, err)
	reviewer := llm.NewOpenAIReviewer(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL}, pm, srv.Client())

	ctrl := gomock.NewController(t)
	source := mocks.NewMockPullRequestSource(ctrl)
	source.EXPECT().GetPullRequest(gomock.Any(), 42).Return(&core.PullRequestInfo{ID: 42, Title: "Use let", AuthorDisplayName: "Jane Doe"}, nil)
	source.EXPECT().GetPullRequestDiff(gomock.Any(), 42).Return(fooDiff, nil)

	report, err := NewOrchestrator(source, reviewer, nil, discardLogger()).Run(context.Background(), 42, "Prefer let.")
	require.NoError(t, err)

	assert.Equal(t, "Looks fine\n\nDECISION: APPROVE\nREASON: no issues", report.Review.ReviewText)
	assert.Equal(t, core.DecisionApprove, report.Review.Decision)
	assert.True(t, strings.HasPrefix(userPrompt, "File: foo.js\n```diff\ndiff --git a/foo.js b/foo.js"))
}
