package assistant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"book-recommender/internal/domain"
)

const threeBooks = `{"type":"recommendation","intro":"SF 좋아하시는군요!","books":[
{"title":"Dune","author":"Frank Herbert","reason":"epic"},
{"title":"Neuromancer","author":"William Gibson","reason":"cyberpunk","cover":"http://bogus"},
{"title":"삼체","author":"류츠신","reason":"hard SF"}]}`

func TestInterpret_Recommendation(t *testing.T) {
	p := Interpret(threeBooks)
	rec, ok := p.(*domain.RecommendationPayload)
	require.True(t, ok)
	require.Equal(t, domain.PayloadRecommendation, rec.Type())
	require.Equal(t, "SF 좋아하시는군요!", rec.Intro)
	require.Len(t, rec.Books, 3)
	for _, b := range rec.Books {
		require.Empty(t, b.Cover)
	}
	require.Equal(t, "삼체", rec.Books[2].Title)
}

func TestInterpret_PlainText(t *testing.T) {
	p := Interpret("hello")
	require.Equal(t, domain.NewChatPayload("hello"), p)
}

func TestInterpret_ChatObject(t *testing.T) {
	p := Interpret(`{"type":"chat","message":"어떤 장르를 좋아하세요?"}`)
	require.Equal(t, domain.NewChatPayload("어떤 장르를 좋아하세요?"), p)
}

func TestInterpret_FallsBackToRawText(t *testing.T) {
	cases := []string{
		`{"type":"chat"}`,
		`{"type":"poem","message":"x"}`,
		`{"intro":"no type"}`,
		`[1,2,3]`,
		`{"type":"recommendation",`,
		``,
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			require.Equal(t, domain.NewChatPayload(raw), Interpret(raw))
		})
	}
}

func TestInterpret_RecommendationDefaults(t *testing.T) {
	rec, ok := Interpret(`{"type":"recommendation"}`).(*domain.RecommendationPayload)
	require.True(t, ok)
	require.Equal(t, "", rec.Intro)
	require.NotNil(t, rec.Books)
	require.Empty(t, rec.Books)
}

func TestInterpret_AcceptsAnyBookCount(t *testing.T) {
	rec, ok := Interpret(`{"type":"recommendation","intro":"","books":[{"title":"A"}]}`).(*domain.RecommendationPayload)
	require.True(t, ok)
	require.Len(t, rec.Books, 1)
}

func TestInterpret_CodeFence(t *testing.T) {
	raw := "```json\n" + `{"type":"chat","message":"hi"}` + "\n```"
	require.Equal(t, domain.NewChatPayload("hi"), Interpret(raw))

	raw = "```\n" + threeBooks + "\n```"
	_, ok := Interpret(raw).(*domain.RecommendationPayload)
	require.True(t, ok)
}

func TestInterpret_RoundTrip(t *testing.T) {
	want := &domain.RecommendationPayload{
		Kind:  domain.PayloadRecommendation,
		Intro: "intro",
		Books: []domain.BookEntry{
			{Title: "A", Author: "a", Reason: "r1"},
			{Title: "B", Author: "b", Reason: "r2"},
			{Title: "C", Author: "c", Reason: "r3"},
		},
	}
	raw, err := json.Marshal(want)
	require.NoError(t, err)
	require.Equal(t, want, Interpret(string(raw)))
}
