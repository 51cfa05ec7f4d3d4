package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"book-recommender/internal/app"
	"book-recommender/internal/config"
	"book-recommender/internal/devserver"
	"book-recommender/internal/logging"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.Setup(os.Stdout, cfg.LogLevel)

	h, cleanup, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Error("failed to build handler", "err", err)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	log.Info("dev server listening", "addr", cfg.DevAddr)
	if err := devserver.NewRouter(h).Run(cfg.DevAddr); err != nil {
		log.Error("dev server stopped", "err", err)
		os.Exit(1)
	}
}
