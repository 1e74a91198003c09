// Package review runs one pull request through the fetch, parse, prompt and
// model pipeline and assembles the resulting report.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/diff"
	"github.com/sevigo/pr-warden/internal/llm"
)

// Progress receives human-facing status updates while a review runs.
// Step begins a stage, Info adds a detail line to it and Done closes it.
type Progress interface {
	Step(name string)
	Info(format string, args ...any)
	Done(details ...string)
}

// NopProgress discards all progress updates.
type NopProgress struct{}

func (NopProgress) Step(string) {}

func (NopProgress) Info(string, ...any) {}

func (NopProgress) Done(...string) {}

// Orchestrator wires a pull request source to a reviewer.
type Orchestrator struct {
	source   core.PullRequestSource
	reviewer core.Reviewer
	progress Progress
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator. A nil progress discards updates.
func NewOrchestrator(source core.PullRequestSource, reviewer core.Reviewer, progress Progress, logger *slog.Logger) *Orchestrator {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Orchestrator{
		source:   source,
		reviewer: reviewer,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reviews pull request prID against rulesGuide. Metadata and diff are
// fetched concurrently; if either fetch fails, the other is cancelled and no
// report is produced. Errors from collaborators are wrapped with %w so their
// kind survives.
func (o *Orchestrator) Run(ctx context.Context, prID int, rulesGuide string) (*core.ReviewReport, error) {
	o.progress.Step("Fetching pull request")
	pr, rawDiff, err := o.fetch(ctx, prID)
	if err != nil {
		return nil, err
	}
	o.progress.Info("PR #%d: %s", pr.ID, pr.Title)
	o.progress.Info("Author: %s", pr.AuthorDisplayName)
	if pr.SourceBranch != "" && pr.TargetBranch != "" {
		o.progress.Info("Branches: %s -> %s", pr.SourceBranch, pr.TargetBranch)
	}
	o.progress.Done(fmt.Sprintf("Diff size: %d bytes", len(rawDiff)))

	o.progress.Step("Parsing diff")
	req := core.ReviewRequest{Files: diff.Parse(rawDiff), RulesGuide: rulesGuide}
	if len(req.Files) == 0 {
		o.progress.Info("no file changes")
	}
	var totalAdded, totalRemoved int
	for _, f := range req.Files {
		added, removed := diff.CountChanges(f.Patch)
		totalAdded += added
		totalRemoved += removed
		o.progress.Info("%s (+%d/-%d)", f.Filename, added, removed)
	}
	o.progress.Done(fmt.Sprintf("Files: %d, +%d/-%d lines", len(req.Files), totalAdded, totalRemoved))

	o.progress.Step("Requesting review")
	prompt := llm.BuildUserPrompt(req.Files)
	o.logger.Debug("review prompt built", "pr", prID, "files", len(req.Files), "prompt_bytes", len(prompt))

	start := o.now()
	decision, err := o.reviewer.Review(ctx, prompt, req.RulesGuide)
	if err != nil {
		return nil, fmt.Errorf("review of pull request #%d failed: %w", prID, err)
	}
	o.logger.Debug("review decision received", "pr", prID, "decision", decision.Decision, "elapsed", time.Since(start).Round(time.Millisecond))
	o.progress.Done("Decision: " + string(decision.Decision))

	return &core.ReviewReport{
		PullRequest: *pr,
		Review:      *decision,
		Files:       req.Filenames(),
		GeneratedAt: o.now().UTC(),
	}, nil
}

// fetch retrieves metadata and diff in parallel. Each goroutine owns its
// result slot; the slots are read only after Wait returns.
func (o *Orchestrator) fetch(ctx context.Context, prID int) (*core.PullRequestInfo, string, error) {
	var (
		pr      *core.PullRequestInfo
		rawDiff string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := o.source.GetPullRequest(gctx, prID)
		if err != nil {
			return fmt.Errorf("fetching pull request #%d: %w", prID, err)
		}
		pr = info
		return nil
	})
	g.Go(func() error {
		d, err := o.source.GetPullRequestDiff(gctx, prID)
		if err != nil {
			return fmt.Errorf("fetching diff of pull request #%d: %w", prID, err)
		}
		rawDiff = d
		return nil
	})

	if err := g.Wait(); err != nil {
		o.logger.Debug("pull request fetch failed", "pr", prID, "error", err)
		return nil, "", err
	}
	if pr == nil {
		return nil, "", fmt.Errorf("fetching pull request #%d: %w", prID, &core.TransportError{Op: "get pull request", Err: errors.New("empty response")})
	}
	return pr, rawDiff, nil
}
