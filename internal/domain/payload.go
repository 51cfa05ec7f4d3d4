package domain

// PayloadType discriminates the two shapes an assistant reply can take.
type PayloadType string

const (
	PayloadRecommendation PayloadType = "recommendation"
	PayloadChat           PayloadType = "chat"
)

// Payload is an interpreted assistant reply: either *RecommendationPayload or
// *ChatPayload.
type Payload interface {
	Type() PayloadType
}

// BookEntry is one recommended book. Cover stays empty until enrichment runs.
type BookEntry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
	Cover  string `json:"cover,omitempty"`
}

// RecommendationPayload is the structured reply the model is instructed to
// emit. The prompt asks for exactly three books; the count is not enforced.
type RecommendationPayload struct {
	Kind  PayloadType `json:"type"`
	Intro string      `json:"intro"`
	Books []BookEntry `json:"books"`
}

func (*RecommendationPayload) Type() PayloadType { return PayloadRecommendation }

// ChatPayload is free-form assistant text.
type ChatPayload struct {
	Kind    PayloadType `json:"type"`
	Message string      `json:"message"`
}

func (*ChatPayload) Type() PayloadType { return PayloadChat }

// NewChatPayload wraps text as a chat payload.
func NewChatPayload(message string) *ChatPayload {
	return &ChatPayload{Kind: PayloadChat, Message: message}
}
