package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"book-recommender/internal/domain"
	"book-recommender/internal/prompt"
	"book-recommender/internal/transport"
)

type fakeTransport struct {
	reply   string
	err     error
	sent    []domain.Turn
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeTransport) Send(_ context.Context, turns []domain.Turn) (domain.Turn, error) {
	f.calls++
	f.sent = turns
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return domain.Turn{}, f.err
	}
	return domain.Turn{Role: domain.RoleAssistant, Content: f.reply}, nil
}

func TestNewSession_SeedsGreeting(t *testing.T) {
	s := NewSession(&fakeTransport{})
	require.Equal(t, []domain.Turn{{Role: domain.RoleAssistant, Content: prompt.Greeting}}, s.Turns())
}

func TestSession_SubmitChat(t *testing.T) {
	tr := &fakeTransport{reply: "어떤 장르를 좋아하세요?"}
	s := NewSession(tr)

	reply, err := s.Submit(context.Background(), "  책 추천해줘 ")
	require.NoError(t, err)
	require.Equal(t, domain.NewChatPayload("어떤 장르를 좋아하세요?"), reply.Payload)

	require.Len(t, tr.sent, 2)
	require.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "책 추천해줘"}, tr.sent[1])

	turns := s.Turns()
	require.Len(t, turns, 3)
	require.Equal(t, reply.Turn, turns[2])
}

func TestSession_SubmitRecommendationIsEnriched(t *testing.T) {
	tr := &fakeTransport{reply: threeBooks}
	f := &fakeFinder{covers: map[string]string{"Dune": "https://covers/dune"}}
	s := NewSession(tr, WithEnricher(NewEnricher(f)))

	reply, err := s.Submit(context.Background(), "SF")
	require.NoError(t, err)
	rec, ok := reply.Payload.(*domain.RecommendationPayload)
	require.True(t, ok)
	require.Equal(t, "https://covers/dune", rec.Books[0].Cover)
	require.Empty(t, rec.Books[1].Cover)
	require.Empty(t, rec.Books[2].Cover)
	require.Equal(t, threeBooks, s.Turns()[2].Content)
}

func TestSession_SubmitWithoutEnricher(t *testing.T) {
	s := NewSession(&fakeTransport{reply: threeBooks})
	reply, err := s.Submit(context.Background(), "SF")
	require.NoError(t, err)
	rec := reply.Payload.(*domain.RecommendationPayload)
	require.Len(t, rec.Books, 3)
}

func TestSession_TransportFailureAppendsOneFallback(t *testing.T) {
	tr := &fakeTransport{reply: "first"}
	s := NewSession(tr)
	_, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)
	before := s.Turns()

	cause := errors.New("status 500")
	tr.err = cause
	reply, err := s.Submit(context.Background(), "again")
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, reply.Err, cause)
	require.Equal(t, prompt.Fallback, reply.Turn.Content)

	after := s.Turns()
	require.Len(t, after, len(before)+2)
	require.Equal(t, before, after[:len(before)])
	require.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "again"}, after[len(before)])
	require.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: prompt.Fallback}, after[len(before)+1])
}

func TestSession_RejectsEmptyInput(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSession(tr)
	_, err := s.Submit(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Zero(t, tr.calls)
	require.Len(t, s.Turns(), 1)
}

func TestSession_RejectsConcurrentSubmit(t *testing.T) {
	tr := &fakeTransport{reply: "ok", started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(tr)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()
	<-tr.started

	_, err := s.Submit(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	close(tr.release)
	require.NoError(t, <-done)
	require.Len(t, s.Turns(), 3)
}

func TestSession_ResetAndAppend(t *testing.T) {
	s := NewSession(&fakeTransport{reply: "ok"})
	_, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)
	s.AppendTurn(domain.Turn{Role: domain.RoleUser, Content: "extra"})
	require.Len(t, s.Turns(), 4)

	s.Reset()
	require.Equal(t, []domain.Turn{{Role: domain.RoleAssistant, Content: prompt.Greeting}}, s.Turns())
}

func TestSession_ProxyServerErrorAppendsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error","code":"INTERNAL_ERROR","details":"llm_error"}`))
	}))
	defer srv.Close()

	proxy, err := transport.NewProxy(srv.URL, srv.Client())
	require.NoError(t, err)
	s := NewSession(proxy)

	reply, err := s.Submit(context.Background(), "추리소설 추천해줘")
	var te *transport.Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusInternalServerError, te.StatusCode)
	require.Equal(t, domain.NewChatPayload(prompt.Fallback), reply.Payload)

	turns := s.Turns()
	require.Len(t, turns, 3)
	require.Equal(t, domain.RoleUser, turns[1].Role)
	require.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: prompt.Fallback}, turns[2])
}
