// Package health exposes the liveness endpoint and the dependency checks
// behind it.
package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	healthy   = "healthy"
	unhealthy = "unhealthy"
)

// pingTimeout bounds each dependency check so a hung backend cannot stall
// the probe.
const pingTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker interface.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new PostgreSQL health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping acquires a connection and round-trips to the server.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler handles health check operations. A nil checker means the
// dependency is not in use and is left out of the response.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a new health handler.
func NewHandler(redis, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Redis    string `json:"redis,omitempty"`
		Postgres string `json:"postgres,omitempty"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK

	check := func(c Checker) string {
		if c == nil {
			return ""
		}

		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			resp.Body.Status = StatusDegraded

			return unhealthy
		}

		return healthy
	}

	resp.Body.Redis = check(h.redis)
	resp.Body.Postgres = check(h.postgres)

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
