package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"book-recommender/internal/domain"
	"book-recommender/internal/logging"
	"book-recommender/internal/prompt"
)

var (
	ErrBusy       = errors.New("assistant: a request is already in flight")
	ErrEmptyInput = errors.New("assistant: input must not be empty")
)

// Transport sends the full conversation and returns the assistant turn.
// Implementations report failures as *transport.Error.
type Transport interface {
	Send(ctx context.Context, turns []domain.Turn) (domain.Turn, error)
}

// Reply is the outcome of one Submit. On a transport failure Turn holds the
// fallback message and Err the cause.
type Reply struct {
	Turn    domain.Turn
	Payload domain.Payload
	Err     error
}

// Session owns one conversation. At most one Submit runs at a time.
type Session struct {
	transport Transport
	enricher  *Enricher

	mu       sync.Mutex
	turns    []domain.Turn
	inFlight bool
}

type SessionOption func(*Session)

func WithEnricher(e *Enricher) SessionOption {
	return func(s *Session) {
		s.enricher = e
	}
}

func NewSession(t Transport, opts ...SessionOption) *Session {
	s := &Session{transport: t}
	for _, opt := range opts {
		opt(s)
	}
	s.turns = seedTurns()
	return s
}

func seedTurns() []domain.Turn {
	return []domain.Turn{{Role: domain.RoleAssistant, Content: prompt.Greeting}}
}

// Turns returns a copy of the conversation.
func (s *Session) Turns() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) AppendTurn(t domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Reset replaces the conversation with the seed greeting.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = seedTurns()
}

// Submit appends text as a user turn, sends the whole conversation and
// appends the reply. A transport failure appends one fallback assistant turn
// and returns both the fallback Reply and the error.
func (s *Session) Submit(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return Reply{}, ErrBusy
	}
	s.inFlight = true
	s.turns = append(s.turns, domain.Turn{Role: domain.RoleUser, Content: text})
	history := make([]domain.Turn, len(s.turns))
	copy(history, s.turns)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	turn, err := s.transport.Send(ctx, history)
	if err != nil {
		logging.FromContext(ctx).Warn("chat request failed", "err", err)
		fallback := domain.Turn{Role: domain.RoleAssistant, Content: prompt.Fallback}
		s.AppendTurn(fallback)
		return Reply{Turn: fallback, Payload: domain.NewChatPayload(prompt.Fallback), Err: err}, err
	}

	turn.Role = domain.RoleAssistant
	s.AppendTurn(turn)

	payload := Interpret(turn.Content)
	if rec, ok := payload.(*domain.RecommendationPayload); ok {
		s.enricher.Enrich(ctx, rec)
	}
	return Reply{Turn: turn, Payload: payload}, nil
}
