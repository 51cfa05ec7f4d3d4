package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"book-recommender/internal/domain"
	"book-recommender/internal/logging"
	"book-recommender/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const (
	routeChat      = "/chat"
	routeRecommend = "/recommend"
	routeBookmarks = "/bookmarks"
	routeToggle    = "/bookmarks/toggle"
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type RecommendUseCase interface {
	Recommend(ctx context.Context, in usecase.ChatInput) (usecase.RecommendOutput, error)
}

type BookmarkUseCase interface {
	Toggle(ctx context.Context, in usecase.ToggleInput) (usecase.ToggleOutput, error)
	List(ctx context.Context, userID string) ([]domain.Bookmark, error)
}

type Handler struct {
	chat      ChatUseCase
	recommend RecommendUseCase
	bookmarks BookmarkUseCase
}

type chatRequest struct {
	Messages []domain.Turn `json:"messages"`
}

type chatResponse struct {
	Message string      `json:"message"`
	Role    domain.Role `json:"role"`
}

type recommendResponse struct {
	Role    domain.Role    `json:"role"`
	Message string         `json:"message"`
	Payload domain.Payload `json:"payload"`
	HTML    string         `json:"html,omitempty"`
}

type toggleRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Reason      string `json:"reason"`
	Cover       string `json:"cover"`
	Thumbnail   string `json:"thumbnail"`
	Publisher   string `json:"publisher"`
	Description string `json:"description"`
	Memo        string `json:"memo"`
}

type toggleResponse struct {
	Bookmarked bool            `json:"bookmarked"`
	Bookmark   domain.Bookmark `json:"bookmark"`
}

type listResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func NewHandler(chat ChatUseCase, recommend RecommendUseCase, bookmarks BookmarkUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if recommend == nil {
		return nil, errors.New("handler: recommend use case must not be nil")
	}
	if bookmarks == nil {
		return nil, errors.New("handler: bookmark use case must not be nil")
	}
	return &Handler{chat: chat, recommend: recommend, bookmarks: bookmarks}, nil
}

// Handle serves API Gateway proxy events. Errors are always reported in the
// response, never as the returned error.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = logging.WithCorrelationID(ctx, correlationID)

	resp := h.route(ctx, req)
	resp.Headers[correlationHeader] = correlationID

	logging.FromContext(ctx).Info("request",
		"method", req.HTTPMethod,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (h *Handler) route(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, "")
	}

	path := strings.TrimRight(req.Path, "/")
	var method string
	switch path {
	case routeChat, routeRecommend, routeToggle:
		method = http.MethodPost
	case routeBookmarks:
		method = http.MethodGet
	default:
		return respondJSON(http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
	}
	if req.HTTPMethod != method {
		return respondJSON(http.StatusMethodNotAllowed, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
	}

	switch path {
	case routeChat:
		return h.handleChat(ctx, req)
	case routeRecommend:
		return h.handleRecommend(ctx, req)
	case routeBookmarks:
		return h.handleList(ctx, req)
	default:
		return h.handleToggle(ctx, req)
	}
}

func (h *Handler) handleChat(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in chatRequest
	if err := decodeBody(req, &in); err != nil {
		return invalidBody(ctx, err)
	}
	out, err := h.chat.Chat(ctx, usecase.ChatInput{Messages: in.Messages})
	if err != nil {
		return errorFrom(ctx, err)
	}
	return respondJSON(http.StatusOK, chatResponse{Message: out.Message, Role: out.Role})
}

func (h *Handler) handleRecommend(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in chatRequest
	if err := decodeBody(req, &in); err != nil {
		return invalidBody(ctx, err)
	}
	out, err := h.recommend.Recommend(ctx, usecase.ChatInput{Messages: in.Messages})
	if err != nil {
		return errorFrom(ctx, err)
	}
	return respondJSON(http.StatusOK, recommendResponse{
		Role:    out.Role,
		Message: out.Message,
		Payload: out.Payload,
		HTML:    out.HTML,
	})
}

func (h *Handler) handleList(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	list, err := h.bookmarks.List(ctx, userID(req))
	if err != nil {
		return errorFrom(ctx, err)
	}
	return respondJSON(http.StatusOK, listResponse{Bookmarks: list})
}

func (h *Handler) handleToggle(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	uid := userID(req)
	if uid == "" {
		return errorFrom(ctx, &usecase.Error{Code: usecase.ErrorAuthRequired, Reason: "missing_identity"})
	}
	var in toggleRequest
	if err := decodeBody(req, &in); err != nil {
		return invalidBody(ctx, err)
	}
	thumb := in.Thumbnail
	if thumb == "" {
		thumb = in.Cover
	}
	out, err := h.bookmarks.Toggle(ctx, usecase.ToggleInput{
		UserID: uid,
		Book: usecase.BookInput{
			Title:        in.Title,
			Author:       in.Author,
			ThumbnailURL: thumb,
			Publisher:    in.Publisher,
			Description:  in.Description,
			Memo:         in.Memo,
		},
	})
	if err != nil {
		return errorFrom(ctx, err)
	}
	return respondJSON(http.StatusOK, toggleResponse{Bookmarked: out.Bookmarked, Bookmark: out.Bookmark})
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	return json.Unmarshal(body, v)
}

func invalidBody(ctx context.Context, err error) events.APIGatewayProxyResponse {
	return errorFrom(ctx, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_body", Err: err})
}

// userID reads the caller identity set by the API Gateway authorizer.
func userID(req events.APIGatewayProxyRequest) string {
	auth := req.RequestContext.Authorizer
	if auth == nil {
		return ""
	}
	if claims, ok := auth["claims"].(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok && strings.TrimSpace(sub) != "" {
			return strings.TrimSpace(sub)
		}
	}
	if pid, ok := auth["principalId"].(string); ok {
		return strings.TrimSpace(pid)
	}
	return ""
}

func errorFrom(ctx context.Context, err error) events.APIGatewayProxyResponse {
	log := logging.FromContext(ctx)

	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.Error("unexpected error", "err", err)
		return respondJSON(http.StatusInternalServerError, errorResponse{
			Error: http.StatusText(http.StatusInternalServerError),
			Code:  string(usecase.ErrorInternal),
		})
	}

	status := statusFor(ucErr.Code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	} else {
		log.Warn("request rejected", "code", ucErr.Code, "reason", ucErr.Reason)
	}
	return respondJSON(status, errorResponse{
		Error:   http.StatusText(status),
		Code:    string(ucErr.Code),
		Details: ucErr.Reason,
	})
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidQuestion:
		return http.StatusBadRequest
	case usecase.ErrorAuthRequired:
		return http.StatusUnauthorized
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return respond(http.StatusInternalServerError, `{"error":"Internal Server Error","code":"INTERNAL_ERROR"}`)
	}
	return respond(status, string(body))
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
		},
		Body: body,
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
