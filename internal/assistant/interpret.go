// Package assistant is the client side of the book chat: the conversation
// session, reply interpretation, cover enrichment and the bookmark shelf.
package assistant

import (
	"encoding/json"
	"strings"

	"book-recommender/internal/domain"
)

type envelope struct {
	Type    string             `json:"type"`
	Intro   string             `json:"intro"`
	Books   []domain.BookEntry `json:"books"`
	Message *string            `json:"message"`
}

// Interpret classifies raw model output. A recommendation object becomes a
// *domain.RecommendationPayload, a chat object with a message becomes a
// *domain.ChatPayload, and anything else is returned verbatim as chat text.
func Interpret(raw string) domain.Payload {
	body := stripFence(strings.TrimSpace(raw))

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return domain.NewChatPayload(raw)
	}

	switch domain.PayloadType(env.Type) {
	case domain.PayloadRecommendation:
		books := make([]domain.BookEntry, 0, len(env.Books))
		for _, b := range env.Books {
			b.Cover = ""
			books = append(books, b)
		}
		return &domain.RecommendationPayload{
			Kind:  domain.PayloadRecommendation,
			Intro: env.Intro,
			Books: books,
		}
	case domain.PayloadChat:
		if env.Message != nil {
			return domain.NewChatPayload(*env.Message)
		}
	}
	return domain.NewChatPayload(raw)
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[\"") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
