package repository

import (
	"context"
	"sort"
	"sync"

	"book-recommender/internal/domain"
)

// MemoryStore keeps bookmarks in process memory. It backs the dev server
// when BOOKMARK_BACKEND=memory and loses everything on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]domain.Bookmark
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]domain.Bookmark)}
}

func (m *MemoryStore) ListBookmarks(_ context.Context, userID string) ([]domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Bookmark, 0, len(m.items[userID]))
	for _, b := range m.items[userID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetBookmark(_ context.Context, userID, bookID string) (domain.Bookmark, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.items[userID][bookID]
	return b, ok, nil
}

func (m *MemoryStore) PutBookmark(_ context.Context, userID string, b domain.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[userID] == nil {
		m.items[userID] = make(map[string]domain.Bookmark)
	}
	m.items[userID][b.BookID] = b
	return nil
}

func (m *MemoryStore) DeleteBookmark(_ context.Context, userID, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[userID], bookID)
	return nil
}
