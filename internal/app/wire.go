// Package app assembles the proxy's handler from configuration. Both the
// Lambda entrypoint and the dev server use it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"book-recommender/handler"
	"book-recommender/internal/assistant"
	"book-recommender/internal/config"
	"book-recommender/internal/integrations/gemini"
	"book-recommender/internal/integrations/googlebooks"
	"book-recommender/internal/integrations/openai"
	"book-recommender/internal/integrations/paramstore"
	"book-recommender/internal/logging"
	"book-recommender/internal/repository"
	fsstore "book-recommender/internal/repository/firestore"
	"book-recommender/internal/usecase"
)

// localPrefix names the in-memory parameters used when no PARAM_PREFIX is set.
const localPrefix = "/local"

// coverLookupLimit caps concurrent catalog requests per recommendation.
const coverLookupLimit = 4

type awsLoader struct {
	once sync.Once
	cfg  aws.Config
	err  error
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = awsconfig.LoadDefaultConfig(ctx)
	})
	return l.cfg, l.err
}

// Build wires the handler. The returned cleanup releases backend clients.
func Build(ctx context.Context, cfg config.Server) (*handler.Handler, func() error, error) {
	log := logging.Logger()
	loader := &awsLoader{}
	cleanup := func() error { return nil }

	// ---- Parameters ----
	var params paramstore.Getter
	prefix := cfg.ParamPrefix
	if prefix == "" {
		prefix = localPrefix
		params = paramstore.Static{localPrefix + "/config/model": cfg.OpenAIModel}
		log.Info("using local parameters", "model", cfg.OpenAIModel)
	} else {
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		params = ssmClient
	}

	// ---- Upstream ----
	var openaiOpts []openai.Option
	if cfg.OpenAIAPIKey != "" {
		openaiOpts = append(openaiOpts, openai.WithAPIKey(cfg.OpenAIAPIKey))
	}
	var (
		llm       usecase.LLMClient
		moderator usecase.Moderator
	)
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := gemini.NewClient(params, prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create Gemini client: %w", err)
		}
		llm = g
	default:
		o, err := openai.NewClient(params, prefix, append(openaiOpts, openai.WithJSONReplies(cfg.StructuredReplies))...)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create OpenAI client: %w", err)
		}
		llm = o
	}
	if cfg.ModerationEnabled {
		m, err := openai.NewClient(params, prefix, openaiOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create moderation client: %w", err)
		}
		moderator = m
	}

	chat, err := usecase.NewChatService(params, llm, moderator, usecase.ChatConfig{
		ParamPrefix:      prefix,
		MaxMessages:      cfg.MaxMessages,
		MaxMessageLength: cfg.MaxMessageLength,
		Structured:       cfg.StructuredReplies,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("app: create chat service: %w", err)
	}

	// ---- Covers ----
	books, err := googlebooks.NewClient(ctx, googlebooks.WithAPIKey(cfg.GoogleBooksAPIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("app: create Google Books client: %w", err)
	}
	recommend, err := usecase.NewRecommendService(chat, assistant.NewEnricher(books, assistant.WithConcurrencyLimit(coverLookupLimit)))
	if err != nil {
		return nil, nil, fmt.Errorf("app: create recommend service: %w", err)
	}

	// ---- Bookmarks ----
	var store usecase.BookmarkStore
	switch cfg.BookmarkBackend {
	case config.BackendFirestore:
		fs, err := fsstore.NewStore(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create Firestore store: %w", err)
		}
		store = fs
		cleanup = fs.Close
	case config.BackendMemory:
		store = repository.NewMemoryStore()
	case config.BackendDynamoDB:
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		dyn, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.BookmarkTable)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create DynamoDB store: %w", err)
		}
		store = dyn
	default:
		return nil, nil, errors.New("app: unknown bookmark backend " + cfg.BookmarkBackend)
	}
	bookmarks, err := usecase.NewBookmarkService(store)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("app: create bookmark service: %w", err)
	}

	h, err := handler.NewHandler(chat, recommend, bookmarks)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("app: create handler: %w", err)
	}
	log.Info("handler ready",
		"provider", cfg.LLMProvider,
		"bookmark_backend", cfg.BookmarkBackend,
		"moderation", cfg.ModerationEnabled,
		"structured", cfg.StructuredReplies,
	)
	return h, cleanup, nil
}
