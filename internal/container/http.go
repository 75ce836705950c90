package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/health"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/profile"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route
// registered. Invoking huma.API is what registers the routes.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		accounts := do.MustInvoke[*account.Service](i)

		config := huma.DefaultConfig("Short Links", "1.0.0")
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			auth.SecurityScheme: {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		}

		router.Handle("/metrics", m.Handler())

		api := humachi.New(router, config)

		api.UseMiddleware(middleware.TraceName())
		api.UseMiddleware(middleware.Metrics(m))
		api.UseMiddleware(middleware.Visitor(api))
		api.UseMiddleware(middleware.PolicyRateLimiter(
			api,
			do.MustInvoke[*ratelimit.PolicyLimiter](i),
			ratelimit.NewOperationScopeResolver(),
			logger,
		))
		api.UseMiddleware(middleware.BearerAuth(api, do.MustInvoke[*auth.Issuer](i), accounts, logger))

		health.RegisterRoutes(api, healthHandler(i, opts))
		handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(accounts, logger))
		handlers.RegisterProfileRoutes(api, handlers.NewProfileHandler(do.MustInvoke[*profile.Service](i), logger))
		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			opts.PublicBaseURL(),
			do.MustInvoke[*analytics.Publisher](i),
			logger,
		))

		return api, nil
	})
}

func healthHandler(i *do.Injector, opts *Options) *health.Handler {
	if opts.Memory {
		return health.NewHandler(nil, nil)
	}

	return health.NewHandler(
		health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
		health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i)),
	)
}

// ServerPackages registers everything cmd/server needs.
func ServerPackages(injector *do.Injector, options *Options) {
	do.ProvideValue(injector, options)
	LoggerPackage(injector)
	RedisPackage(injector)
	PostgresPackage(injector)
	MetricsPackage(injector)
	TelemetryPackage(injector)
	RepositoryPackage(injector)
	CodecPackage(injector)
	RateLimitPackage(injector)
	PublisherGroupPackage(injector)
	AccountPackage(injector)
	ObjectStorePackage(injector)
	ProfilePackage(injector)
	ConsumerGroupPackage(injector)
	HTTPPackage(injector)
}
