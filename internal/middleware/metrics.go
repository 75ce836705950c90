package middleware

import (
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/metrics"
)

// Metrics returns a Huma middleware recording request count, latency and
// in-flight requests per route template.
func Metrics(m *metrics.Metrics) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		m.InflightRequests.Inc()
		defer m.InflightRequests.Dec()

		next(ctx)

		route := operationPath(ctx)
		method := ctx.Method()

		status := ctx.Status()
		if status == 0 {
			status = 200
		}

		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
