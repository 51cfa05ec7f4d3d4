package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"book-recommender/internal/domain"
)

func TestNewProxy_RequiresBaseURL(t *testing.T) {
	_, err := NewProxy("  ", nil)
	require.Error(t, err)
}

func TestProxy_Send(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":"hello there","role":"assistant"}`))
	}))
	defer srv.Close()

	p, err := NewProxy(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	turns := []domain.Turn{
		{Role: domain.RoleAssistant, Content: "greeting"},
		{Role: domain.RoleUser, Content: "hi"},
	}
	turn, err := p.Send(context.Background(), turns)
	require.NoError(t, err)
	require.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "hello there"}, turn)
	require.Equal(t, turns, got.Messages)
}

func TestProxy_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error","code":"UPSTREAM_ERROR","details":"llm_error"}`))
	}))
	defer srv.Close()

	p, err := NewProxy(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = p.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusInternalServerError, te.StatusCode)
	require.Equal(t, http.StatusInternalServerError, te.HTTPStatusCode())
	require.Equal(t, "UPSTREAM_ERROR", te.Code)
	require.Equal(t, "llm_error", te.Message)
}

func TestProxy_Send_MissingMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"role":"assistant"}`))
	}))
	defer srv.Close()

	p, err := NewProxy(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = p.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, "chat", te.Op)
}

func TestProxy_Send_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	p, err := NewProxy(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = p.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	var te *Error
	require.ErrorAs(t, err, &te)
}

func TestProxy_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p, err := NewProxy(url, nil)
	require.NoError(t, err)

	_, err = p.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Zero(t, te.StatusCode)
	require.NotNil(t, errors.Unwrap(err))
}
