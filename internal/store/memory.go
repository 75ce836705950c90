package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	links  map[int64]shortener.Link
}

// NewMemoryStore creates a new in-memory link store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		links:  make(map[int64]shortener.Link),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortener.Link, quota int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countLocked(link.OwnerID) >= quota {
		return shortener.ErrQuotaExceeded
	}

	link.ID = m.nextID
	m.nextID++

	m.links[link.ID] = cloneLink(*link)

	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	link = cloneLink(link)

	return &link, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok || link.OwnerID != owner {
		return shortener.ErrNotFound
	}

	delete(m.links, id)

	return nil
}

func (m *MemoryStore) List(_ context.Context, owner uuid.UUID, filter shortener.Filter) ([]shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]shortener.Link, 0)

	for _, link := range m.links {
		if link.OwnerID == owner && matches(link, filter) {
			out = append(out, cloneLink(link))
		}
	}

	slices.SortFunc(out, func(a, b shortener.Link) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}

		if filter.Ascending {
			return c
		}

		return -c
	})

	return out, nil
}

func (m *MemoryStore) UpdateTags(_ context.Context, id int64, owner uuid.UUID, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok || link.OwnerID != owner {
		return shortener.ErrNotFound
	}

	link.Tags = slices.Clone(tags)
	m.links[id] = link

	return nil
}

func (m *MemoryStore) TagCounts(_ context.Context, owner uuid.UUID) ([]shortener.TagCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)

	for _, link := range m.links {
		if link.OwnerID != owner {
			continue
		}

		for _, tag := range link.Tags {
			counts[tag]++
		}
	}

	out := make([]shortener.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, shortener.TagCount{Tag: tag, Count: n})
	}

	slices.SortFunc(out, func(a, b shortener.TagCount) int { return cmp.Compare(a.Tag, b.Tag) })

	return out, nil
}

func (m *MemoryStore) Count(_ context.Context, owner uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.countLocked(owner), nil
}

func (m *MemoryStore) countLocked(owner uuid.UUID) int {
	n := 0

	for _, link := range m.links {
		if link.OwnerID == owner {
			n++
		}
	}

	return n
}

func matches(link shortener.Link, f shortener.Filter) bool {
	if f.URLContains != "" &&
		!strings.Contains(strings.ToLower(link.LongURL), strings.ToLower(f.URLContains)) {
		return false
	}

	if !f.CreatedOn.IsZero() {
		y1, m1, d1 := link.CreatedAt.UTC().Date()
		y2, m2, d2 := f.CreatedOn.UTC().Date()

		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}

	if len(f.Tags) == 0 {
		return true
	}

	if f.ExactTags {
		for _, tag := range f.Tags {
			if !slices.Contains(link.Tags, tag) {
				return false
			}
		}

		return true
	}

	return slices.ContainsFunc(f.Tags, func(tag string) bool { return slices.Contains(link.Tags, tag) })
}

func cloneLink(link shortener.Link) shortener.Link {
	link.Tags = slices.Clone(link.Tags)
	if link.Tags == nil {
		link.Tags = []string{}
	}

	return link
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
