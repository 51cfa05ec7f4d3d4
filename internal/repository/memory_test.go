package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	first := sampleBookmark("Dune", "Dune")
	second := sampleBookmark("삼체", "삼체")
	second.CreatedAt = fixedTime.Add(time.Minute)
	require.NoError(t, m.PutBookmark(ctx, "u1", second))
	require.NoError(t, m.PutBookmark(ctx, "u1", first))

	list, err := m.ListBookmarks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Dune", list[0].BookID)

	other, err := m.ListBookmarks(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, other)

	got, ok, err := m.GetBookmark(ctx, "u1", "Dune")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, got)

	require.NoError(t, m.DeleteBookmark(ctx, "u1", "Dune"))
	_, ok, err = m.GetBookmark(ctx, "u1", "Dune")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.DeleteBookmark(ctx, "nobody", "Dune"))
}
