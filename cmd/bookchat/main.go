package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"book-recommender/internal/assistant"
	"book-recommender/internal/cli"
	"book-recommender/internal/config"
	"book-recommender/internal/integrations/googlebooks"
	"book-recommender/internal/logging"
	"book-recommender/internal/transport"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "proxy or direct")
	flag.StringVar(&cfg.ProxyURL, "proxy", cfg.ProxyURL, "chat proxy base URL")
	flag.StringVar(&cfg.UserID, "user", cfg.UserID, "user id for bookmarks")
	flag.StringVar(&cfg.OpenAIModel, "model", cfg.OpenAIModel, "model for direct mode")
	flag.Parse()

	logging.Setup(os.Stderr, cfg.LogLevel)
	ctx := context.Background()
	hc := &http.Client{Timeout: 60 * time.Second}

	var t assistant.Transport
	switch cfg.Mode {
	case config.ModeDirect:
		if cfg.OpenAIAPIKey == "" {
			fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required in direct mode")
			os.Exit(1)
		}
		d, err := transport.NewDirect(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		t = d
	case config.ModeProxy:
		p, err := transport.NewProxy(cfg.ProxyURL, hc)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		t = p
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", cfg.Mode)
		os.Exit(1)
	}

	books, err := googlebooks.NewClient(ctx, googlebooks.WithAPIKey(cfg.GoogleBooksAPIKey))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	session := assistant.NewSession(t, assistant.WithEnricher(assistant.NewEnricher(books)))

	remote, err := transport.NewBookmarks(cfg.ProxyURL, hc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	shelf := assistant.NewShelf(remote, cfg.UserID)

	if err := cli.New(session, shelf, os.Stdout).Run(ctx, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
