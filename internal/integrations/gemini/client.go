package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"book-recommender/internal/domain"
)

const (
	defaultTemperature = float32(0.7)
	defaultMaxTokens   = int32(1000)
)

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// generator is the slice of the genai Models service used here.
// *genai.Models satisfies it.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// HTTPStatusError carries the status code of a failed API call.
type HTTPStatusError struct {
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: generate content: status %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends chat turns to Gemini. The API key is read from the parameter
// store on first use unless a generator is injected.
type Client struct {
	getter      Getter
	paramPrefix string

	mu     sync.Mutex
	models generator
}

type Option func(*Client)

// WithGenerator injects a ready generator, bypassing key lookup.
func WithGenerator(g generator) Option {
	return func(c *Client) {
		c.models = g
	}
}

// NewClient creates a Client that resolves its key from <prefix>/gemini-token.
func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	c := &Client{getter: ps}
	for _, opt := range opts {
		opt(c)
	}
	if c.models != nil {
		return c, nil
	}
	if ps == nil {
		return nil, errors.New("gemini: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	c.paramPrefix = paramPrefix
	return c, nil
}

// resolveModels builds the genai client on first use. Failures are not
// cached; the next call looks the key up again.
func (c *Client) resolveModels(ctx context.Context) (generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models != nil {
		return c.models, nil
	}
	key, err := c.getter.GetParameter(ctx, c.paramPrefix+"/gemini-token")
	if err != nil {
		return nil, fmt.Errorf("gemini: fetch token from paramstore: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("gemini: API token is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.models = client.Models
	return c.models, nil
}

// Chat converts the turns into Gemini contents and returns the reply text.
// System turns are joined into the system instruction and assistant turns
// are sent with the model role.
func (c *Client) Chat(ctx context.Context, model string, messages []domain.Turn) (string, error) {
	if model == "" {
		return "", errors.New("gemini: model must not be empty")
	}
	models, err := c.resolveModels(ctx)
	if err != nil {
		return "", err
	}

	system, contents := toContents(messages)
	if len(contents) == 0 {
		return "", errors.New("gemini: no user or assistant turns")
	}

	temp := defaultTemperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: defaultMaxTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &HTTPStatusError{StatusCode: apiErr.Code, Err: err}
		}
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", errors.New("gemini: empty reply")
	}
	return text, nil
}

func toContents(messages []domain.Turn) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
