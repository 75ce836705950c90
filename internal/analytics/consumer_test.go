package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	mu        sync.Mutex
	created   []analytics.LinkCreatedEvent
	accessed  []analytics.LinkAccessedEvent
	deleted   []analytics.LinkDeletedEvent
	saveErr   error
	processed chan struct{}
}

func newMockStore() *mockStore {
	return &mockStore{processed: make(chan struct{}, 10)}
}

func (m *mockStore) record(fn func()) error {
	defer func() {
		select {
		case m.processed <- struct{}{}:
		default:
		}
	}()

	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fn()

	return nil
}

func (m *mockStore) SaveLinkCreated(_ context.Context, e *analytics.LinkCreatedEvent) error {
	return m.record(func() { m.created = append(m.created, *e) })
}

func (m *mockStore) SaveLinkAccessed(_ context.Context, e *analytics.LinkAccessedEvent) error {
	return m.record(func() { m.accessed = append(m.accessed, *e) })
}

func (m *mockStore) SaveLinkDeleted(_ context.Context, e *analytics.LinkDeletedEvent) error {
	return m.record(func() { m.deleted = append(m.deleted, *e) })
}

func (m *mockStore) wait(t *testing.T, n int) {
	t.Helper()

	for range n {
		select {
		case <-m.processed:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	}
}

func startConsumers(t *testing.T, store analytics.Store) (*analytics.Publisher, func()) {
	t.Helper()

	pubsub := messaging.NewMemoryPubSub(zap.NewNop())
	group := messaging.NewConsumerGroup(pubsub, zap.NewNop())

	for _, c := range analytics.NewConsumers(pubsub, store, zap.NewNop()) {
		group.Add(c)
	}

	require.NoError(t, group.Start(context.Background()))

	return analytics.NewPublisher(pubsub), func() { _ = group.Shutdown() }
}

func TestConsumers_PersistEvents(t *testing.T) {
	store := newMockStore()
	pub, stop := startConsumers(t, store)
	defer stop()

	now := time.Now().UTC()

	require.NoError(t, pub.Created(&analytics.LinkCreatedEvent{LinkID: 1, Token: "NkK9xy", LongURL: "https://example.com", CreatedAt: now}))
	require.NoError(t, pub.Accessed(&analytics.LinkAccessedEvent{LinkID: 1, Token: "NkK9xy", AccessedAt: now, Referrer: "https://ref.example"}))
	require.NoError(t, pub.Deleted(&analytics.LinkDeletedEvent{LinkID: 1, Token: "NkK9xy", DeletedAt: now}))

	store.wait(t, 3)

	store.mu.Lock()
	defer store.mu.Unlock()

	require.Len(t, store.created, 1)
	assert.Equal(t, "https://example.com", store.created[0].LongURL)
	require.Len(t, store.accessed, 1)
	assert.Equal(t, "https://ref.example", store.accessed[0].Referrer)
	require.Len(t, store.deleted, 1)
	assert.Equal(t, int64(1), store.deleted[0].LinkID)
}

func TestConsumers_StoreErrorsAreRetried(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("db down")

	pub, stop := startConsumers(t, store)
	defer stop()

	require.NoError(t, pub.Accessed(&analytics.LinkAccessedEvent{LinkID: 7}))

	// A nacked message is redelivered by the in-memory pub/sub.
	store.wait(t, 2)

	store.mu.Lock()
	defer store.mu.Unlock()

	assert.Empty(t, store.accessed)
}

func TestNewConsumers_Topics(t *testing.T) {
	consumers := analytics.NewConsumers(messaging.NewMemoryPubSub(zap.NewNop()), newMockStore(), zap.NewNop())

	topics := make([]string, 0, len(consumers))
	for _, c := range consumers {
		topics = append(topics, c.(interface{ Topic() string }).Topic())
	}

	assert.Equal(t, []string{analytics.TopicLinkCreated, analytics.TopicLinkAccessed, analytics.TopicLinkDeleted}, topics)
}
