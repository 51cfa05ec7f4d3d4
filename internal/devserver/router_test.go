package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	got  events.APIGatewayProxyRequest
	resp events.APIGatewayProxyResponse
}

func (r *recordingHandler) Handle(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	r.got = req
	return r.resp, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_ForwardsAsProxyEvent(t *testing.T) {
	h := &recordingHandler{resp: events.APIGatewayProxyResponse{
		StatusCode: http.StatusCreated,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"X-Correlation-Id":            "corr-1",
			"Access-Control-Allow-Origin": "*",
		},
		Body: `{"message":"hi","role":"assistant"}`,
	}}
	r := NewRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/chat?debug=1", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, `{"message":"hi","role":"assistant"}`, w.Body.String())
	require.Equal(t, "corr-1", w.Header().Get("X-Correlation-Id"))

	require.Equal(t, http.MethodPost, h.got.HTTPMethod)
	require.Equal(t, "/chat", h.got.Path)
	require.Equal(t, `{"messages":[]}`, h.got.Body)
	require.Equal(t, "1", h.got.QueryStringParameters["debug"])
	require.Equal(t, "application/json", h.got.Headers["Content-Type"])
	require.Equal(t, "user-1", h.got.RequestContext.Authorizer["principalId"])
}

func TestRouter_NoUserHeader(t *testing.T) {
	h := &recordingHandler{resp: events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: `{}`}}
	r := NewRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookmarks", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, h.got.RequestContext.Authorizer)
}

func TestRouter_Health(t *testing.T) {
	h := &recordingHandler{}
	r := NewRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	require.Empty(t, h.got.HTTPMethod)
}

func TestRouter_Preflight(t *testing.T) {
	r := NewRouter(&recordingHandler{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
