// Package prompt holds the fixed persona instruction sent with every chat
// request and the recommendation JSON contract the model is asked to follow.
package prompt

import "strings"

// Greeting seeds a fresh conversation.
const Greeting = "안녕하세요! 저는 도서 추천 도우미예요. 어떤 책을 찾고 계신가요? " +
	"취향이나 관심사를 알려주시면 맞춤 도서를 추천해 드릴게요! 📚"

// Fallback is appended as the assistant turn when the chat endpoint fails.
const Fallback = "죄송합니다. 오류가 발생했어요. 잠시 후 다시 시도해 주세요."

// Persona returns the plain persona instruction.
func Persona() string {
	return strings.Join([]string{
		"Role:",
		"You are a friendly book recommendation expert.",
		"",
		"Task:",
		"Talk with the user to learn their taste, interests, and the genres or topics they want to read about.",
		"Once you know enough, recommend suitable books.",
		"",
		"Behavior Rules:",
		behaviorRules(),
	}, "\n")
}

// PersonaWithSchema returns the persona instruction followed by the output
// contract for structured recommendations.
func PersonaWithSchema() string {
	return Persona() + "\n\nOutput Contract:\n" + OutputContract()
}

// ForMode picks the persona variant used by the proxy.
func ForMode(structured bool) string {
	if structured {
		return PersonaWithSchema()
	}
	return Persona()
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Converse in Korean unless the user writes in another language.",
		"2) Ask a short follow-up question when the request is too vague to recommend from.",
		"3) Every recommendation names the title, the author, and a brief reason.",
		"4) Recommend only books that exist.",
	}, "\n")
}

// OutputContract describes the two JSON shapes the interpreter understands.
func OutputContract() string {
	return strings.Join([]string{
		"Return JSON only, with no surrounding text.",
		`When recommending, return {"type":"recommendation","intro":"<text>","books":[{"title":"<text>","author":"<text>","reason":"<text>"}]} with exactly 3 books.`,
		`Otherwise return {"type":"chat","message":"<text>"}.`,
	}, "\n")
}
