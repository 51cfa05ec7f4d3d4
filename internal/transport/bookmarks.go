package transport

import (
	"context"
	"net/http"

	"book-recommender/internal/domain"
)

type listBookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type toggleResponse struct {
	Bookmarked bool            `json:"bookmarked"`
	Bookmark   domain.Bookmark `json:"bookmark"`
}

// Bookmarks is the HTTP client of the proxy's bookmark routes. It satisfies
// assistant.BookmarkBackend.
type Bookmarks struct {
	ep endpoint
}

func NewBookmarks(baseURL string, hc *http.Client) (*Bookmarks, error) {
	ep, err := newEndpoint(baseURL, hc)
	if err != nil {
		return nil, err
	}
	return &Bookmarks{ep: ep}, nil
}

func (b *Bookmarks) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	var out listBookmarksResponse
	if err := b.ep.do(ctx, "list bookmarks", http.MethodGet, "/bookmarks", userHeader(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Bookmarks, nil
}

func (b *Bookmarks) Toggle(ctx context.Context, userID string, book domain.BookEntry) (bool, domain.Bookmark, error) {
	var out toggleResponse
	if err := b.ep.do(ctx, "toggle bookmark", http.MethodPost, "/bookmarks/toggle", userHeader(userID), book, &out); err != nil {
		return false, domain.Bookmark{}, err
	}
	return out.Bookmarked, out.Bookmark, nil
}

func userHeader(userID string) http.Header {
	h := http.Header{}
	if userID != "" {
		h.Set(UserIDHeader, userID)
	}
	return h
}
