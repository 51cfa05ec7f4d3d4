package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"book-recommender/internal/domain"
)

// Store keeps bookmarks under users/{uid}/bookmarks/{bookId}, matching the
// document layout used by the web client's Firebase project.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed bookmark store for projectID.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("firestore: projectID is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: creating client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) bookmarksCol(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("bookmarks")
}

type bookmarkDoc struct {
	BookID       string    `firestore:"book_id"`
	BookTitle    string    `firestore:"book_title"`
	BookAuthor   string    `firestore:"book_author"`
	ThumbnailURL string    `firestore:"thumbnail_url"`
	Status       string    `firestore:"status"`
	Memo         string    `firestore:"memo"`
	Publisher    string    `firestore:"publisher"`
	Description  string    `firestore:"description"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func toDoc(b domain.Bookmark) bookmarkDoc {
	return bookmarkDoc{
		BookID:       b.BookID,
		BookTitle:    b.BookTitle,
		BookAuthor:   b.BookAuthor,
		ThumbnailURL: b.ThumbnailURL,
		Status:       b.Status,
		Memo:         b.Memo,
		Publisher:    b.Publisher,
		Description:  b.Description,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func fromDoc(d bookmarkDoc) domain.Bookmark {
	return domain.Bookmark{
		BookID:       d.BookID,
		BookTitle:    d.BookTitle,
		BookAuthor:   d.BookAuthor,
		ThumbnailURL: d.ThumbnailURL,
		Status:       d.Status,
		Memo:         d.Memo,
		Publisher:    d.Publisher,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	iter := s.bookmarksCol(userID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.Bookmark
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListBookmarks: %w", err)
		}
		var doc bookmarkDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListBookmarks decode: %w", err)
		}
		if doc.BookID == "" {
			doc.BookID = snap.Ref.ID
		}
		out = append(out, fromDoc(doc))
	}
	return out, nil
}

func (s *Store) GetBookmark(ctx context.Context, userID, bookID string) (domain.Bookmark, bool, error) {
	snap, err := s.bookmarksCol(userID).Doc(bookID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Bookmark{}, false, nil
		}
		return domain.Bookmark{}, false, fmt.Errorf("firestore GetBookmark: %w", err)
	}
	var doc bookmarkDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Bookmark{}, false, fmt.Errorf("firestore GetBookmark decode: %w", err)
	}
	return fromDoc(doc), true, nil
}

func (s *Store) PutBookmark(ctx context.Context, userID string, b domain.Bookmark) error {
	if userID == "" || b.BookID == "" {
		return errors.New("firestore PutBookmark: user id and book id are required")
	}
	if _, err := s.bookmarksCol(userID).Doc(b.BookID).Set(ctx, toDoc(b)); err != nil {
		return fmt.Errorf("firestore PutBookmark: %w", err)
	}
	return nil
}

func (s *Store) DeleteBookmark(ctx context.Context, userID, bookID string) error {
	if userID == "" || bookID == "" {
		return errors.New("firestore DeleteBookmark: user id and book id are required")
	}
	if _, err := s.bookmarksCol(userID).Doc(bookID).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteBookmark: %w", err)
	}
	return nil
}
