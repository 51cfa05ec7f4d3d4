package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"book-recommender/internal/domain"
)

// BookmarkStore is implemented by the DynamoDB and Firestore repositories.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error)
	GetBookmark(ctx context.Context, userID, bookID string) (domain.Bookmark, bool, error)
	PutBookmark(ctx context.Context, userID string, b domain.Bookmark) error
	DeleteBookmark(ctx context.Context, userID, bookID string) error
}

type BookmarkService struct {
	store BookmarkStore
}

// BookInput describes the book being toggled. Title drives the book id.
type BookInput struct {
	Title        string
	Author       string
	ThumbnailURL string
	Publisher    string
	Description  string
	Memo         string
}

type ToggleInput struct {
	UserID string
	Book   BookInput
}

type ToggleOutput struct {
	// Bookmarked is true when the toggle created the bookmark and false when
	// it removed one.
	Bookmarked bool
	Bookmark   domain.Bookmark
}

func NewBookmarkService(store BookmarkStore) (*BookmarkService, error) {
	if store == nil {
		return nil, errors.New("usecase: bookmark store must not be nil")
	}
	return &BookmarkService{store: store}, nil
}

// Toggle removes the user's bookmark for the book if one exists and creates
// it otherwise. Without a user id nothing is read or written.
func (s *BookmarkService) Toggle(ctx context.Context, in ToggleInput) (ToggleOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return ToggleOutput{}, newError(ErrorAuthRequired, "missing_identity", nil)
	}
	bookID := domain.NormalizeBookID(in.Book.Title)
	if bookID == "" {
		return ToggleOutput{}, newError(ErrorInvalidInput, "empty_book_id", nil)
	}

	existing, found, err := s.store.GetBookmark(ctx, userID, bookID)
	if err != nil {
		return ToggleOutput{}, newError(ErrorStore, "bookmark_read_error", err)
	}
	if found {
		if err := s.store.DeleteBookmark(ctx, userID, bookID); err != nil {
			return ToggleOutput{}, newError(ErrorStore, "bookmark_delete_error", err)
		}
		return ToggleOutput{Bookmarked: false, Bookmark: existing}, nil
	}

	ts := now()
	b := domain.Bookmark{
		BookID:       bookID,
		BookTitle:    strings.TrimSpace(in.Book.Title),
		BookAuthor:   strings.TrimSpace(in.Book.Author),
		ThumbnailURL: in.Book.ThumbnailURL,
		Status:       domain.StatusWish,
		Memo:         in.Book.Memo,
		Publisher:    in.Book.Publisher,
		Description:  in.Book.Description,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.store.PutBookmark(ctx, userID, b); err != nil {
		return ToggleOutput{}, newError(ErrorStore, "bookmark_write_error", err)
	}
	return ToggleOutput{Bookmarked: true, Bookmark: b}, nil
}

// List returns all bookmarks of the user.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorAuthRequired, "missing_identity", nil)
	}
	out, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, newError(ErrorStore, "bookmark_list_error", err)
	}
	if out == nil {
		out = []domain.Bookmark{}
	}
	return out, nil
}

var now = func() time.Time {
	return time.Now().UTC()
}
