package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlinks/internal/ratelimit"
)

// sweepEvery is how many Record calls pass between sweeps of idle keys.
const sweepEvery = 1024

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Counters are per process.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string]*window
	calls    int
	now      func() time.Time
}

type window struct {
	hits     []time.Time
	duration time.Duration
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string]*window),
		now:      time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, d time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.requests[key]
	if !ok {
		w = &window{duration: d}
		s.requests[key] = w
	}

	w.duration = d
	w.prune(now)
	w.hits = append(w.hits, now)

	s.calls++
	if s.calls%sweepEvery == 0 {
		s.sweep(now)
	}

	return int64(len(w.hits)), nil
}

// sweep drops keys whose window holds no recent requests.
func (s *RateLimitMemoryStore) sweep(now time.Time) {
	for key, w := range s.requests {
		if w.prune(now); len(w.hits) == 0 {
			delete(s.requests, key)
		}
	}
}

// Len returns the number of tracked keys.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// prune removes hits older than the window. Hits are appended in order, so
// the expired ones form a prefix.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.duration)

	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}

	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
