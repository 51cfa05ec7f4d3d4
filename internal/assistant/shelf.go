package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"book-recommender/internal/domain"
)

// ErrAuthRequired is returned by Shelf operations when no user is signed in.
var ErrAuthRequired = errors.New("assistant: authentication required")

// StoreError wraps a failed bookmark backend call. The shelf is left as it
// was before the call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("assistant: bookmark %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type statusCoder interface {
	HTTPStatusCode() int
}

// backendError maps an unauthorized response to ErrAuthRequired and anything
// else to a StoreError.
func backendError(op string, err error) error {
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() == 401 {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return &StoreError{Op: op, Err: err}
}

// BookmarkBackend persists bookmarks for one user.
type BookmarkBackend interface {
	List(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Toggle(ctx context.Context, userID string, book domain.BookEntry) (bool, domain.Bookmark, error)
}

// Shelf is the in-memory bookmark set of one signed-in user.
type Shelf struct {
	backend BookmarkBackend
	userID  string

	mu    sync.RWMutex
	items map[string]domain.Bookmark
}

func NewShelf(backend BookmarkBackend, userID string) *Shelf {
	return &Shelf{
		backend: backend,
		userID:  strings.TrimSpace(userID),
		items:   make(map[string]domain.Bookmark),
	}
}

// Load replaces the set with the user's persisted bookmarks.
func (s *Shelf) Load(ctx context.Context) error {
	if s.userID == "" {
		return ErrAuthRequired
	}
	list, err := s.backend.List(ctx, s.userID)
	if err != nil {
		return backendError("load", err)
	}

	items := make(map[string]domain.Bookmark, len(list))
	for _, b := range list {
		items[b.BookID] = b
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Toggle flips the bookmark state of book and reports whether it is now
// bookmarked. The set only changes after the backend call succeeds.
func (s *Shelf) Toggle(ctx context.Context, book domain.BookEntry) (bool, error) {
	if s.userID == "" {
		return false, ErrAuthRequired
	}
	bookmarked, b, err := s.backend.Toggle(ctx, s.userID, book)
	if err != nil {
		return false, backendError("toggle", err)
	}

	id := b.BookID
	if id == "" {
		id = domain.NormalizeBookID(book.Title)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bookmarked {
		s.items[id] = b
	} else {
		delete(s.items, id)
	}
	return bookmarked, nil
}

// Contains reports whether a book with this title is on the shelf.
func (s *Shelf) Contains(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[domain.NormalizeBookID(title)]
	return ok
}

// Items returns the bookmarks sorted by book id.
func (s *Shelf) Items() []domain.Bookmark {
	s.mu.RLock()
	out := make([]domain.Bookmark, 0, len(s.items))
	for _, b := range s.items {
		out = append(out, b)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out
}
