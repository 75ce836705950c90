package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/objectstore"
	"github.com/serroba/shortlinks/internal/profile"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/shortcode"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	baseURL     = "http://localhost:8888"
	galleryBase = "https://cdn.example/avatars"
	avatarBase  = "https://cdn.example/user_avatars"
	password    = "s3cret!pass"
)

// mockPublisher records published messages per topic.
type mockPublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
	err       error
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.published[topic] = append(m.published[topic], messages...)

	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.published[topic])
}

type server struct {
	router    *chi.Mux
	publisher *mockPublisher
	accounts  *account.Service
	gallery   *objectstore.Memory
	tokens    int
}

func newServer(t *testing.T, quota int) *server {
	t.Helper()

	codec, err := shortcode.New(shortcode.DefaultConfig("test-salt"))
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("secret", "shortlinks", time.Hour)
	require.NoError(t, err)

	s := &server{
		router:    chi.NewMux(),
		publisher: &mockPublisher{published: make(map[string][]*message.Message)},
		gallery:   objectstore.NewMemory(galleryBase),
	}

	generate := func() string {
		s.tokens++

		return fmt.Sprintf("token%d", s.tokens)
	}

	s.accounts = account.NewService(
		store.NewUserMemoryStore(),
		store.NewTokenMemoryStore(),
		issuer,
		func(*account.MailEvent) error { return nil },
		generate,
		ratelimit.NewWindowLimiter(store.NewRateLimitMemoryStore(), "login",
			ratelimit.LimitConfig{Window: time.Minute, Max: 100}),
		account.Config{BaseURL: baseURL, BcryptCost: bcrypt.MinCost},
		zap.NewNop(),
	)

	links := shortener.NewService(store.NewMemoryStore(), codec, quota)
	profiles := profile.NewService(store.NewProfileMemoryStore(), s.gallery, objectstore.NewMemory(avatarBase), zap.NewNop())

	api := humachi.New(s.router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.Visitor(api))
	api.UseMiddleware(middleware.BearerAuth(api, issuer, s.accounts, zap.NewNop()))

	handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(s.accounts, zap.NewNop()))
	handlers.RegisterProfileRoutes(api, handlers.NewProfileHandler(profiles, zap.NewNop()))
	handlers.RegisterRoutes(api, handlers.NewLinkHandler(links, baseURL, analytics.NewPublisher(s.publisher), zap.NewNop()))

	return s
}

// login creates a confirmed account for email and returns a bearer token.
func (s *server) login(t *testing.T, email string) string {
	t.Helper()

	ctx := context.Background()

	_, err := s.accounts.SignUp(ctx, email, password)
	require.NoError(t, err)
	require.NoError(t, s.accounts.Confirm(ctx, fmt.Sprintf("token%d", s.tokens)))

	session, err := s.accounts.LogIn(ctx, email, password)
	require.NoError(t, err)

	return session.Token
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}
