package transport

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"book-recommender/internal/domain"
	"book-recommender/internal/prompt"
)

const DefaultModel = "gpt-4o-mini"

// Direct calls OpenAI chat completions with a key held by the caller,
// injecting the persona with the recommendation contract.
type Direct struct {
	client openai.Client
	model  string
}

func NewDirect(apiKey, model string, opts ...option.RequestOption) (*Direct, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("transport: openai api key missing")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Direct{client: openai.NewClient(reqOpts...), model: model}, nil
}

func (d *Direct) Send(ctx context.Context, turns []domain.Turn) (domain.Turn, error) {
	turns = domain.WithSystemPrompt(turns, prompt.PersonaWithSchema())

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(t.Content))
		case domain.RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}

	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(d.model),
		Messages:    msgs,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		te := &Error{Op: "direct chat", Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			te.StatusCode = apiErr.StatusCode
		}
		return domain.Turn{}, te
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return domain.Turn{}, &Error{Op: "direct chat", Err: errors.New("empty choices")}
	}
	return domain.Turn{Role: domain.RoleAssistant, Content: resp.Choices[0].Message.Content}, nil
}
