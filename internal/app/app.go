// Package app holds the fully wired components of one pr-warden run.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/review"
)

// App holds the main application components.
type App struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	Orchestrator *review.Orchestrator
}

// NewApp bundles the configured components.
func NewApp(cfg *config.Config, logger *slog.Logger, orchestrator *review.Orchestrator) *App {
	return &App{
		Cfg:          cfg,
		Logger:       logger,
		Orchestrator: orchestrator,
	}
}

// Review runs the configured pull request through the orchestrator. User-facing
// progress belongs to the orchestrator; App only writes debug diagnostics.
func (a *App) Review(ctx context.Context, rulesGuide string) (*core.ReviewReport, error) {
	a.Logger.Debug("starting pull request review", "config", a.Cfg)
	start := time.Now()

	rep, err := a.Orchestrator.Run(ctx, a.Cfg.PR, rulesGuide)
	if err != nil {
		a.Logger.Debug("pull request review failed", "pr", a.Cfg.PR, "error", err)
		return nil, err
	}

	a.Logger.Debug("pull request review completed",
		"pr", a.Cfg.PR,
		"files", len(rep.Files),
		"decision", rep.Review.Decision,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return rep, nil
}
