package objectstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-memory Store.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

// NewMemory creates an empty in-memory store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		baseURL: baseURL,
	}
}

func (m *Memory) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{
		body:        slices.Clone(body),
		contentType: contentType,
		modified:    time.Now().UTC(),
	}

	return nil
}

func (m *Memory) List(_ context.Context, prefix string, offset, limit int) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))

	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	offset = min(max(offset, 0), len(keys))
	keys = keys[offset:]

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]Object, 0, len(keys))
	for _, key := range keys {
		o := m.objects[key]
		out = append(out, Object{Key: key, Size: int64(len(o.body)), LastModified: o.modified})
	}

	return out, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.objects, key)
	}

	return nil
}

func (m *Memory) URL(key string) string {
	return joinURL(m.baseURL, key)
}

// Get returns a stored object's body and content type.
func (m *Memory) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}

	return slices.Clone(o.body), o.contentType, nil
}

// Compile-time check.
var _ Store = (*Memory)(nil)
