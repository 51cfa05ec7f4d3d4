// Package config reads the environment once per entrypoint.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	BackendDynamoDB  = "dynamodb"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"

	ModeProxy  = "proxy"
	ModeDirect = "direct"
)

// Server configures the Lambda function and the dev server.
type Server struct {
	ParamPrefix       string
	LLMProvider       string
	BookmarkBackend   string
	BookmarkTable     string
	FirestoreProject  string
	MaxMessages       int
	MaxMessageLength  int
	ModerationEnabled bool
	StructuredReplies bool
	GoogleBooksAPIKey string
	LogLevel          string
	DevAddr           string
	// OpenAIAPIKey replaces the parameter store for local runs.
	OpenAIAPIKey string
	OpenAIModel  string
}

// Client configures the terminal client.
type Client struct {
	Mode              string
	ProxyURL          string
	UserID            string
	OpenAIAPIKey      string
	OpenAIModel       string
	GoogleBooksAPIKey string
	LogLevel          string
}

func LoadServer() (Server, error) {
	return loadServer(os.Getenv)
}

func LoadClient() (Client, error) {
	return loadClient(os.Getenv)
}

func loadServer(getenv func(string) string) (Server, error) {
	e := env(getenv)
	cfg := Server{
		ParamPrefix:       e.str("PARAM_PREFIX", ""),
		LLMProvider:       strings.ToLower(e.str("LLM_PROVIDER", ProviderOpenAI)),
		BookmarkBackend:   strings.ToLower(e.str("BOOKMARK_BACKEND", BackendDynamoDB)),
		BookmarkTable:     e.str("BOOKMARK_TABLE", ""),
		FirestoreProject:  e.str("FIRESTORE_PROJECT", ""),
		MaxMessages:       e.int("MAX_MESSAGES", 50),
		MaxMessageLength:  e.int("MAX_MESSAGE_LENGTH", 1000),
		ModerationEnabled: e.bool("MODERATION_ENABLED", false),
		StructuredReplies: e.bool("STRUCTURED_REPLIES", true),
		GoogleBooksAPIKey: e.str("GOOGLE_BOOKS_API_KEY", ""),
		LogLevel:          e.str("LOG_LEVEL", "info"),
		DevAddr:           e.str("DEV_ADDR", ":8888"),
		OpenAIAPIKey:      e.str("OPENAI_API_KEY", ""),
		OpenAIModel:       e.str("OPENAI_MODEL", "gpt-4o-mini"),
	}

	var errs []error
	switch cfg.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of openai, gemini", cfg.LLMProvider))
	}
	if cfg.ParamPrefix == "" && !cfg.LocalKey() {
		errs = append(errs, missing("PARAM_PREFIX"))
	}
	switch cfg.BookmarkBackend {
	case BackendDynamoDB:
		if cfg.BookmarkTable == "" {
			errs = append(errs, missing("BOOKMARK_TABLE"))
		}
	case BackendFirestore:
		if cfg.FirestoreProject == "" {
			errs = append(errs, missing("FIRESTORE_PROJECT"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("BOOKMARK_BACKEND %q is not one of dynamodb, firestore, memory", cfg.BookmarkBackend))
	}
	if err := errors.Join(errs...); err != nil {
		return Server{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LocalKey reports whether OpenAI should be called with OPENAI_API_KEY
// instead of credentials from the parameter store.
func (s Server) LocalKey() bool {
	return s.LLMProvider == ProviderOpenAI && s.OpenAIAPIKey != ""
}

func loadClient(getenv func(string) string) (Client, error) {
	e := env(getenv)
	cfg := Client{
		Mode:              strings.ToLower(e.str("BOOKCHAT_MODE", ModeProxy)),
		ProxyURL:          e.str("BOOKCHAT_PROXY_URL", "http://localhost:8888"),
		UserID:            e.str("BOOKCHAT_USER_ID", ""),
		OpenAIAPIKey:      e.str("OPENAI_API_KEY", ""),
		OpenAIModel:       e.str("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleBooksAPIKey: e.str("GOOGLE_BOOKS_API_KEY", ""),
		LogLevel:          e.str("LOG_LEVEL", "warn"),
	}
	switch cfg.Mode {
	case ModeProxy:
	case ModeDirect:
		if cfg.OpenAIAPIKey == "" {
			return Client{}, fmt.Errorf("config: %w", missing("OPENAI_API_KEY"))
		}
	default:
		return Client{}, fmt.Errorf("config: BOOKCHAT_MODE %q is not one of proxy, direct", cfg.Mode)
	}
	return cfg, nil
}

func missing(key string) error {
	return fmt.Errorf("required environment variable %s is not set", key)
}

type env func(string) string

func (e env) str(key, def string) string {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return def
	}
	return v
}

func (e env) int(key string, def int) int {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (e env) bool(key string, def bool) bool {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
