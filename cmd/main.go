package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"book-recommender/internal/app"
	"book-recommender/internal/config"
	"book-recommender/internal/logging"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.LogLevel)

	// ---- Handler ----
	h, cleanup, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build handler", "err", err)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	lambda.Start(h.Handle)
}
