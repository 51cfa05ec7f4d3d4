package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"book-recommender/internal/domain"
	"book-recommender/internal/integrations/paramstore"
	"book-recommender/internal/prompt"
)

const (
	defaultMaxMessages      = 50
	defaultMaxMessageLength = 1000
)

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.Turn) (string, error)
}

// Moderator screens user input. A nil Moderator disables the check.
type Moderator interface {
	Moderate(ctx context.Context, input string) (bool, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ChatConfig holds the request limits and prompt mode of a ChatService.
type ChatConfig struct {
	ParamPrefix      string
	MaxMessages      int
	MaxMessageLength int
	// Structured appends the recommendation JSON contract to the persona.
	Structured bool
}

// ChatService is the proxy side of the chat transport: it validates the
// conversation, injects the persona once and forwards it upstream.
type ChatService struct {
	params    ParamGetter
	llm       LLMClient
	moderator Moderator
	cfg       ChatConfig

	cacheMu     sync.RWMutex
	cacheLoaded bool
	model       string
	persona     string
}

type ChatInput struct {
	Messages []domain.Turn
}

type ChatOutput struct {
	Message string
	Role    domain.Role
}

func NewChatService(p ParamGetter, llm LLMClient, mod Moderator, cfg ChatConfig) (*ChatService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	if cfg.ParamPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessageLength
	}
	return &ChatService{
		params:    p,
		llm:       llm,
		moderator: mod,
		cfg:       cfg,
	}, nil
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if err := s.validate(in.Messages); err != nil {
		return ChatOutput{}, err
	}
	if err := s.ensureConfig(ctx); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	if s.moderator != nil {
		if latest, ok := latestUserTurn(in.Messages); ok {
			flagged, err := s.moderator.Moderate(ctx, latest)
			if err != nil {
				if isRateLimited(err) {
					return ChatOutput{}, newError(ErrorRateLimited, "moderation_rate_limited", err)
				}
				return ChatOutput{}, newError(ErrorUpstream, "moderation_error", err)
			}
			if flagged {
				return ChatOutput{}, newError(ErrorInvalidQuestion, "moderation_flagged", nil)
			}
		}
	}

	s.cacheMu.RLock()
	model, persona := s.model, s.persona
	s.cacheMu.RUnlock()

	raw, err := s.llm.Chat(ctx, model, domain.WithSystemPrompt(in.Messages, persona))
	if err != nil {
		if isRateLimited(err) {
			return ChatOutput{}, newError(ErrorRateLimited, "llm_rate_limited", err)
		}
		return ChatOutput{}, newError(ErrorUpstream, "llm_error", err)
	}
	if strings.TrimSpace(raw) == "" {
		return ChatOutput{}, newError(ErrorUpstream, "empty_reply", nil)
	}

	return ChatOutput{Message: raw, Role: domain.RoleAssistant}, nil
}

func (s *ChatService) validate(messages []domain.Turn) error {
	if len(messages) == 0 {
		return newError(ErrorInvalidInput, "empty_messages", nil)
	}
	if len(messages) > s.cfg.MaxMessages {
		return newError(ErrorInvalidInput, "too_many_messages", nil)
	}
	for _, m := range messages {
		if !m.Role.Valid() {
			return newError(ErrorInvalidInput, "invalid_role", nil)
		}
		if m.Role == domain.RoleSystem {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			return newError(ErrorInvalidInput, "empty_content", nil)
		}
		if m.Role == domain.RoleUser && utf8.RuneCountInString(m.Content) > s.cfg.MaxMessageLength {
			return newError(ErrorInvalidInput, "message_too_long", nil)
		}
	}
	return nil
}

func (s *ChatService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	model, err := s.params.GetParameter(ctx, s.cfg.ParamPrefix+"/config/model")
	if err != nil {
		return fmt.Errorf("usecase: load model: %w", err)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return errors.New("usecase: model parameter is empty")
	}
	override, err := paramstore.GetOptional(ctx, s.params, s.cfg.ParamPrefix+"/persona_prompt")
	if err != nil {
		return fmt.Errorf("usecase: load persona prompt: %w", err)
	}

	s.model = model
	s.persona = buildPersona(strings.TrimSpace(override), s.cfg.Structured)
	s.cacheLoaded = true
	return nil
}

func buildPersona(override string, structured bool) string {
	if override == "" {
		return prompt.ForMode(structured)
	}
	if structured {
		return override + "\n\nOutput Contract:\n" + prompt.OutputContract()
	}
	return override
}

func latestUserTurn(messages []domain.Turn) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

func isRateLimited(err error) bool {
	status, ok := upstreamStatusCode(err)
	return ok && status == 429
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
