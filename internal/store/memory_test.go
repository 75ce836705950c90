package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(owner uuid.UUID, url string, tags ...string) *shortener.Link {
	return &shortener.Link{
		OwnerID:   owner,
		LongURL:   url,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMemoryStore_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("assigns increasing ids starting at 1", func(t *testing.T) {
		s := store.NewMemoryStore()

		a := newLink(owner, "https://a.example")
		b := newLink(owner, "https://b.example")

		require.NoError(t, s.Create(ctx, a, 10))
		require.NoError(t, s.Create(ctx, b, 10))

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
	})

	t.Run("rejects when quota reached", func(t *testing.T) {
		s := store.NewMemoryStore()

		require.NoError(t, s.Create(ctx, newLink(owner, "https://a.example"), 1))

		err := s.Create(ctx, newLink(owner, "https://b.example"), 1)

		assert.ErrorIs(t, err, shortener.ErrQuotaExceeded)
	})

	t.Run("quota holds under concurrent creates", func(t *testing.T) {
		s := store.NewMemoryStore()

		var wg sync.WaitGroup

		for range 20 {
			wg.Go(func() {
				_ = s.Create(ctx, newLink(owner, "https://a.example"), 5)
			})
		}

		wg.Wait()

		count, err := s.Count(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("stored link is isolated from caller mutations", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(owner, "https://a.example", "x")

		require.NoError(t, s.Create(ctx, link, 10))
		link.Tags[0] = "mutated"

		got, err := s.GetByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, got.Tags)
	})
}

func TestMemoryStore_GetByID(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetByID(context.Background(), 42)

	assert.ErrorIs(t, err, shortener.ErrNotFound)
}

func TestMemoryStore_DeleteAndUpdateTags(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	s := store.NewMemoryStore()

	link := newLink(owner, "https://a.example")
	require.NoError(t, s.Create(ctx, link, 10))

	t.Run("other owner cannot update tags", func(t *testing.T) {
		err := s.UpdateTags(ctx, link.ID, uuid.New(), []string{"a"})

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("owner updates tags", func(t *testing.T) {
		require.NoError(t, s.UpdateTags(ctx, link.ID, owner, []string{"a", "b"}))

		got, err := s.GetByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.Tags)
	})

	t.Run("other owner cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete(ctx, link.ID, uuid.New()), shortener.ErrNotFound)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, link.ID, owner))

		_, err := s.GetByID(ctx, link.ID)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, link.ID, owner), shortener.ErrNotFound)
	})
}

func TestMemoryStore_TagCounts(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	s := store.NewMemoryStore()

	require.NoError(t, s.Create(ctx, newLink(owner, "https://a.example", "go", "web"), 10))
	require.NoError(t, s.Create(ctx, newLink(owner, "https://b.example", "go"), 10))
	require.NoError(t, s.Create(ctx, newLink(uuid.New(), "https://c.example", "go"), 10))

	counts, err := s.TagCounts(ctx, owner)

	require.NoError(t, err)
	assert.Equal(t, []shortener.TagCount{{Tag: "go", Count: 2}, {Tag: "web", Count: 1}}, counts)
}
