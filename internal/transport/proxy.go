package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"book-recommender/internal/domain"
)

type chatRequest struct {
	Messages []domain.Turn `json:"messages"`
}

type chatResponse struct {
	Message *string `json:"message"`
	Role    string  `json:"role"`
}

// Proxy sends conversations to the chat proxy's /chat route. The proxy holds
// the model credentials and injects the persona.
type Proxy struct {
	ep endpoint
}

func NewProxy(baseURL string, hc *http.Client) (*Proxy, error) {
	ep, err := newEndpoint(baseURL, hc)
	if err != nil {
		return nil, err
	}
	return &Proxy{ep: ep}, nil
}

func (p *Proxy) Send(ctx context.Context, turns []domain.Turn) (domain.Turn, error) {
	var out chatResponse
	if err := p.ep.do(ctx, "chat", http.MethodPost, "/chat", nil, chatRequest{Messages: turns}, &out); err != nil {
		return domain.Turn{}, err
	}
	if out.Message == nil || strings.TrimSpace(*out.Message) == "" {
		return domain.Turn{}, &Error{Op: "chat", StatusCode: http.StatusOK, Err: errors.New("response has no message")}
	}
	return domain.Turn{Role: domain.RoleAssistant, Content: *out.Message}, nil
}
