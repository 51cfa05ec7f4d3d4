package assistant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"book-recommender/internal/domain"
)

type fakeFinder struct {
	mu      sync.Mutex
	covers  map[string]string
	fail    map[string]bool
	delay   time.Duration
	calls   int
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeFinder) FindCover(_ context.Context, title, _ string) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail[title] {
		return "", errors.New("lookup failed")
	}
	cover, ok := f.covers[title]
	if !ok {
		return "", errors.New("no cover")
	}
	return cover, nil
}

func payload(titles ...string) *domain.RecommendationPayload {
	p := &domain.RecommendationPayload{Kind: domain.PayloadRecommendation, Intro: "intro"}
	for _, t := range titles {
		p.Books = append(p.Books, domain.BookEntry{Title: t, Author: "author", Reason: "reason"})
	}
	return p
}

func TestEnrich_FillsCoversByIndex(t *testing.T) {
	f := &fakeFinder{covers: map[string]string{
		"A": "https://covers/a",
		"B": "https://covers/b",
		"C": "https://covers/c",
	}}
	p := payload("A", "B", "C")
	NewEnricher(f).Enrich(context.Background(), p)

	require.Equal(t, 3, f.calls)
	require.Equal(t, "https://covers/a", p.Books[0].Cover)
	require.Equal(t, "https://covers/b", p.Books[1].Cover)
	require.Equal(t, "https://covers/c", p.Books[2].Cover)
}

func TestEnrich_FailedLookupLeavesNoCover(t *testing.T) {
	f := &fakeFinder{
		covers: map[string]string{"A": "https://covers/a", "B": "https://covers/b", "C": "https://covers/c"},
		fail:   map[string]bool{"B": true},
	}
	p := payload("A", "B", "C")
	NewEnricher(f).Enrich(context.Background(), p)

	require.Equal(t, "https://covers/a", p.Books[0].Cover)
	require.Empty(t, p.Books[1].Cover)
	require.Equal(t, "https://covers/c", p.Books[2].Cover)
	require.Equal(t, "B", p.Books[1].Title)
	require.Equal(t, "intro", p.Intro)
}

func TestEnrich_NoCoversAvailable(t *testing.T) {
	f := &fakeFinder{}
	p := payload("A", "B", "C")
	NewEnricher(f).Enrich(context.Background(), p)

	require.Len(t, p.Books, 3)
	for _, b := range p.Books {
		require.Empty(t, b.Cover)
	}
}

func TestEnrich_RunsConcurrently(t *testing.T) {
	f := &fakeFinder{covers: map[string]string{}, delay: 20 * time.Millisecond}
	NewEnricher(f).Enrich(context.Background(), payload("A", "B", "C"))
	require.Equal(t, int32(3), f.maxSeen.Load())
}

func TestEnrich_RespectsLimit(t *testing.T) {
	f := &fakeFinder{covers: map[string]string{}, delay: 10 * time.Millisecond}
	NewEnricher(f, WithConcurrencyLimit(1)).Enrich(context.Background(), payload("A", "B", "C"))
	require.Equal(t, int32(1), f.maxSeen.Load())
	require.Equal(t, 3, f.calls)
}

func TestEnrich_NilSafe(t *testing.T) {
	var e *Enricher
	e.Enrich(context.Background(), payload("A"))
	NewEnricher(nil).Enrich(context.Background(), payload("A"))
	NewEnricher(&fakeFinder{}).Enrich(context.Background(), nil)
	NewEnricher(&fakeFinder{}).Enrich(context.Background(), payload())
}
