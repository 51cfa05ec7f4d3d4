package assistant

import (
	"context"

	"golang.org/x/sync/errgroup"

	"book-recommender/internal/domain"
	"book-recommender/internal/logging"
)

// CoverFinder resolves a cover thumbnail URL for a book.
// *googlebooks.Client satisfies this interface.
type CoverFinder interface {
	FindCover(ctx context.Context, title, author string) (string, error)
}

type Enricher struct {
	finder CoverFinder
	limit  int
}

type EnricherOption func(*Enricher)

// WithConcurrencyLimit caps the number of lookups in flight. n <= 0 means
// one goroutine per book.
func WithConcurrencyLimit(n int) EnricherOption {
	return func(e *Enricher) {
		e.limit = n
	}
}

func NewEnricher(finder CoverFinder, opts ...EnricherOption) *Enricher {
	e := &Enricher{finder: finder}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich looks up a cover for every book concurrently and fills Cover in
// place once all lookups have finished. A failed lookup leaves that book
// without a cover and never fails the others.
func (e *Enricher) Enrich(ctx context.Context, p *domain.RecommendationPayload) {
	if e == nil || e.finder == nil || p == nil || len(p.Books) == 0 {
		return
	}

	covers := make([]string, len(p.Books))
	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, b := range p.Books {
		g.Go(func() error {
			cover, err := e.finder.FindCover(ctx, b.Title, b.Author)
			if err != nil {
				logging.FromContext(ctx).Debug("cover lookup failed", "title", b.Title, "err", err)
				return nil
			}
			covers[i] = cover
			return nil
		})
	}
	_ = g.Wait()

	for i := range p.Books {
		p.Books[i].Cover = covers[i]
	}
}
