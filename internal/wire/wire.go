//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/pr-warden/internal/app"
	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/review"
)

func InitializeApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress review.Progress) (*app.App, error) {
	wire.Build(AppSet)
	return &app.App{}, nil
}
