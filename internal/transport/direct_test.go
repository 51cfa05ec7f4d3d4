package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"

	"book-recommender/internal/domain"
	"book-recommender/internal/prompt"
)

func TestNewDirect_RequiresKey(t *testing.T) {
	_, err := NewDirect(" ", "")
	require.Error(t, err)

	d, err := NewDirect("sk-test", "")
	require.NoError(t, err)
	require.Equal(t, DefaultModel, d.model)
}

func TestDirect_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi!"}}]}`))
	}))
	defer srv.Close()

	d, err := NewDirect("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	turn, err := d.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hello"}})
	require.NoError(t, err)
	require.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "hi!"}, turn)

	require.Equal(t, "gpt-4o-mini", got["model"])
	require.InDelta(t, 0.7, got["temperature"], 1e-9)
	require.EqualValues(t, 1000, got["max_tokens"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	require.Equal(t, "system", first["role"])
	require.Equal(t, prompt.PersonaWithSchema(), first["content"])
	second := msgs[1].(map[string]any)
	require.Equal(t, "user", second["role"])
	require.Equal(t, "hello", second["content"])
}

func TestDirect_Send_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	d, err := NewDirect("sk-bad", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = d.Send(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hello"}})
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusUnauthorized, te.StatusCode)
}
