// Package render turns interpreted replies into HTML for the web route and
// plain text for the terminal client.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"book-recommender/internal/domain"
)

// Raw HTML in model output is dropped; goldmark renders it as a comment.
var md = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML renders Markdown chat text.
func HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return buf.String(), nil
}

// Text formats a payload for a terminal. marked reports whether a title is
// bookmarked and may be nil.
func Text(p domain.Payload, marked func(title string) bool) string {
	switch v := p.(type) {
	case *domain.ChatPayload:
		return v.Message
	case *domain.RecommendationPayload:
		var b strings.Builder
		if v.Intro != "" {
			b.WriteString(v.Intro)
			b.WriteString("\n")
		}
		for i, book := range v.Books {
			star := " "
			if marked != nil && marked(book.Title) {
				star = "*"
			}
			fmt.Fprintf(&b, "\n%s %d. %s", star, i+1, book.Title)
			if book.Author != "" {
				fmt.Fprintf(&b, " / %s", book.Author)
			}
			if book.Reason != "" {
				fmt.Fprintf(&b, "\n     %s", book.Reason)
			}
			if book.Cover != "" {
				fmt.Fprintf(&b, "\n     %s", book.Cover)
			}
		}
		return b.String()
	default:
		return ""
	}
}
