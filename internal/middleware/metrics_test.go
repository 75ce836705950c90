package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type itemInput struct {
	ID string `path:"id"`
}

func TestMetrics(t *testing.T) {
	m := metrics.New()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.Metrics(m))

	huma.Get(api, "/items/{id}", func(_ context.Context, in *itemInput) (*testOutput, error) {
		if in.ID == "missing" {
			return nil, huma.Error404NotFound("no such item")
		}

		return &testOutput{Body: in.ID}, nil
	})

	for _, path := range []string{"/items/a", "/items/b", "/items/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/{id}", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/{id}", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
	assert.InDelta(t, 0, testutil.ToFloat64(m.InflightRequests), 0)
}
