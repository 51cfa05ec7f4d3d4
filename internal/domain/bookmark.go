package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// StatusWish is the status given to newly created bookmarks.
const StatusWish = "wish"

// Bookmark is a user-owned persisted record marking a book of interest.
// At most one exists per (user, BookID).
type Bookmark struct {
	BookID       string    `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	BookAuthor   string    `json:"book_author"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Status       string    `json:"status"`
	Memo         string    `json:"memo"`
	Publisher    string    `json:"publisher"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeBookID derives the storage key for a book from its title. Input is
// NFC-composed first so decomposed Hangul jamo collapse into syllables, then
// every rune that is not an ASCII letter or digit or a Hangul syllable is
// dropped. Distinct titles may normalize to the same key.
func NormalizeBookID(title string) string {
	composed := norm.NFC.String(title)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if keepInBookID(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepInBookID(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0xAC00 && r <= 0xD7A3:
		return true
	}
	return false
}
