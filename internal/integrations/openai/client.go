package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"book-recommender/internal/domain"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1/"
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// tokenPayload is the JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError carries the status of a failed upstream call.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("openai: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("openai: unexpected status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends chat completions and moderation checks to OpenAI.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string
	jsonReplies bool
	staticKey   string

	sdk oai.Client

	keyMu  sync.Mutex
	apiKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey uses a fixed key instead of reading one from the parameter store.
// The dev server uses it with OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.staticKey = strings.TrimSpace(key)
	}
}

// WithJSONReplies asks for a JSON object reply whenever the conversation
// mentions JSON. The endpoint rejects JSON mode for conversations that do not.
func WithJSONReplies(enabled bool) Option {
	return func(c *Client) {
		c.jsonReplies = enabled
	}
}

// NewClient creates a Client that reads its key from <prefix>/open-ai-token
// on first use. A failed lookup is not cached, so the next call retries it.
// With WithAPIKey the getter may be nil.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		getter:     ps,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.staticKey == "" {
		if ps == nil {
			return nil, errors.New("openai: paramstore getter must not be nil")
		}
		paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
		if paramPrefix == "" {
			return nil, errors.New("openai: parameter prefix must not be empty")
		}
		c.paramPrefix = paramPrefix
	}
	c.sdk = oai.NewClient(
		option.WithBaseURL(normalizeBaseURL(c.baseURL)),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)
	return c, nil
}

func normalizeBaseURL(base string) string {
	if base == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/"
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.staticKey != "" {
		return c.staticKey, nil
	}
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	key, err := fetchAPIKeyFromParamStore(ctx, c.getter, c.tokenParameterName())
	if err != nil {
		return "", err
	}
	c.apiKey = key
	return key, nil
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/open-ai-token"
}

// Chat sends the turns as-is and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, model string, messages []domain.Turn) (string, error) {
	if model == "" {
		return "", errors.New("openai: model must not be empty")
	}
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	params := oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(model),
		Messages:    toMessages(messages),
		Temperature: oai.Float(defaultTemperature),
		MaxTokens:   oai.Int(defaultMaxTokens),
	}
	if c.jsonReplies && mentionsJSON(messages) {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		return "", wrapError("chat request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Moderate calls the Moderations API and reports whether the input is flagged.
func (c *Client) Moderate(ctx context.Context, input string) (bool, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return false, err
	}

	resp, err := c.sdk.Moderations.New(ctx, oai.ModerationNewParams{
		Input: oai.ModerationNewParamsInputUnion{OfString: oai.String(input)},
	}, option.WithAPIKey(apiKey))
	if err != nil {
		return false, wrapError("moderation request failed", err)
	}
	if len(resp.Results) == 0 {
		return false, errors.New("openai: no results in moderation response")
	}
	return resp.Results[0].Flagged, nil
}

func toMessages(turns []domain.Turn) []oai.ChatCompletionMessageParamUnion {
	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			msgs = append(msgs, oai.SystemMessage(t.Content))
		case domain.RoleAssistant:
			msgs = append(msgs, oai.ChatCompletionMessageParamOfAssistant(t.Content))
		default:
			msgs = append(msgs, oai.UserMessage(t.Content))
		}
	}
	return msgs
}

func mentionsJSON(turns []domain.Turn) bool {
	for _, t := range turns {
		if strings.Contains(strings.ToLower(t.Content), "json") {
			return true
		}
	}
	return false
}

func wrapError(op string, err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return &HTTPStatusError{StatusCode: apiErr.StatusCode, Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("openai: %s: %w", op, err)
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("openai: paramstore getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("openai: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("openai: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("openai: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", fmt.Errorf("openai: API token is empty")
	}
	return tp.Token, nil
}
