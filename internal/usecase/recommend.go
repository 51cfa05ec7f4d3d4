package usecase

import (
	"context"
	"errors"

	"book-recommender/internal/assistant"
	"book-recommender/internal/domain"
	"book-recommender/internal/logging"
	"book-recommender/internal/render"
)

type Chatter interface {
	Chat(ctx context.Context, in ChatInput) (ChatOutput, error)
}

// CoverEnricher fills book covers in place. *assistant.Enricher satisfies it.
type CoverEnricher interface {
	Enrich(ctx context.Context, p *domain.RecommendationPayload)
}

// RecommendService runs a chat turn and returns the interpreted reply with
// covers resolved, for clients that do not interpret replies themselves.
type RecommendService struct {
	chat     Chatter
	enricher CoverEnricher
}

type RecommendOutput struct {
	Message string
	Role    domain.Role
	Payload domain.Payload
	// HTML is the rendered message of a chat payload, empty otherwise.
	HTML string
}

// NewRecommendService builds the service. enricher may be nil, in which case
// books are returned without covers.
func NewRecommendService(chat Chatter, enricher CoverEnricher) (*RecommendService, error) {
	if chat == nil {
		return nil, errors.New("usecase: chat service must not be nil")
	}
	return &RecommendService{chat: chat, enricher: enricher}, nil
}

func (s *RecommendService) Recommend(ctx context.Context, in ChatInput) (RecommendOutput, error) {
	out, err := s.chat.Chat(ctx, in)
	if err != nil {
		return RecommendOutput{}, err
	}

	res := RecommendOutput{Message: out.Message, Role: out.Role}
	res.Payload = assistant.Interpret(out.Message)
	switch p := res.Payload.(type) {
	case *domain.RecommendationPayload:
		if s.enricher != nil {
			s.enricher.Enrich(ctx, p)
		}
	case *domain.ChatPayload:
		html, err := render.HTML(p.Message)
		if err != nil {
			logging.FromContext(ctx).Warn("render chat html", "err", err)
			break
		}
		res.HTML = html
	}
	return res, nil
}
