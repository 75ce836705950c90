package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/container"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		container.ServerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			if options.ShortURLSalt == "" {
				logger.Fatal("short url salt is required (SERVICE_SHORT_URL_SALT)")
			}

			if options.JWTSecret == "" {
				logger.Fatal("jwt secret is required (SERVICE_JWT_SECRET)")
			}

			_ = do.MustInvoke[*telemetry.Provider](injector)

			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			// Without Redis the consumers share the in-process channel.
			if options.Memory {
				group := do.MustInvoke[*messaging.ConsumerGroup](injector)
				if err := group.Start(context.Background()); err != nil {
					logger.Fatal("failed to start consumers", zap.Error(err))
				}

				logger.Warn("running in memory mode, data is lost on restart")
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           otelhttp.NewHandler(router, "http.server"),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("baseURL", options.PublicBaseURL()),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			if err := container.CloseClients(injector); err != nil {
				logger.Error("client shutdown error", zap.Error(err))
			}

			_ = logger.Sync()

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
