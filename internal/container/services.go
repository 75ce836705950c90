package container

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/account"
	"github.com/serroba/shortlinks/internal/auth"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/objectstore"
	"github.com/serroba/shortlinks/internal/profile"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/shortcode"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"go.uber.org/zap"
)

// Object store names.
const (
	GalleryStore = "gallery"
	AvatarStore  = "avatars"
)

const (
	tokenLength   = 32
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

// RepositoryPackage provides the link, user, token and profile stores:
// Postgres behind a Redis cache, or in-memory stores in memory mode.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.Memory {
			return store.NewMemoryStore(), nil
		}

		pool := do.MustInvoke[*pgxpool.Pool](i)
		client := do.MustInvoke[*redis.Client](i)

		return store.NewRedisCacheRepository(store.NewPostgresStore(pool), client, minutes(opts.LinkCacheTTL)), nil
	})

	do.Provide(injector, func(i *do.Injector) (account.Repository, error) {
		if do.MustInvoke[*Options](i).Memory {
			return store.NewUserMemoryStore(), nil
		}

		return store.NewUserPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (account.TokenStore, error) {
		if do.MustInvoke[*Options](i).Memory {
			return store.NewTokenMemoryStore(), nil
		}

		return store.NewTokenRedisStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (profile.Repository, error) {
		if do.MustInvoke[*Options](i).Memory {
			return store.NewProfileMemoryStore(), nil
		}

		return store.NewProfilePostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})
}

// CodecPackage provides the token codec and the link service built on it.
func CodecPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.TokenCodec, error) {
		opts := do.MustInvoke[*Options](i)

		cfg := shortcode.DefaultConfig(opts.ShortURLSalt)
		cfg.MinLength = opts.ShortURLMinLength
		cfg.CheckBits = opts.ShortURLCheckBits

		codec, err := shortcode.New(cfg)
		if err != nil {
			return nil, err
		}

		return metrics.NewCountingCodec(codec, do.MustInvoke[*metrics.Metrics](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.TokenCodec](i),
			opts.LinkQuota,
		), nil
	})
}

func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		if do.MustInvoke[*Options](i).Memory {
			return store.NewRateLimitMemoryStore(), nil
		}

		return store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}

// AccountPackage provides the token issuer and the account service. Mail
// events go out on the shared publisher.
func AccountPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*auth.Issuer, error) {
		opts := do.MustInvoke[*Options](i)

		return auth.NewIssuer(opts.JWTSecret, opts.JWTIssuer, minutes(opts.JWTTTL))
	})

	do.Provide(injector, func(i *do.Injector) (*account.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		generate, err := nanoid.Standard(tokenLength)
		if err != nil {
			return nil, err
		}

		attempts := ratelimit.NewWindowLimiter(do.MustInvoke[ratelimit.Store](i), "login",
			ratelimit.LimitConfig{Window: loginWindow, Max: loginAttempts})

		return account.NewService(
			do.MustInvoke[account.Repository](i),
			do.MustInvoke[account.TokenStore](i),
			do.MustInvoke[*auth.Issuer](i),
			messaging.NewPublishFunc[account.MailEvent](publisher, account.TopicMail),
			generate,
			attempts,
			account.Config{
				BaseURL:    opts.PublicBaseURL(),
				ConfirmTTL: minutes(opts.ConfirmTTL),
				ResetTTL:   minutes(opts.ResetTTL),
			},
			logger,
		), nil
	})
}

// ObjectStorePackage provides the gallery and avatar buckets. A bucket left
// unset is kept in memory.
func ObjectStorePackage(injector *do.Injector) {
	provide := func(name string, bucket, baseURL func(*Options) string) {
		do.ProvideNamed(injector, name, func(i *do.Injector) (objectstore.Store, error) {
			opts := do.MustInvoke[*Options](i)

			if opts.Memory || bucket(opts) == "" {
				return objectstore.NewMemory(baseURL(opts)), nil
			}

			client, err := objectstore.NewS3Client(context.Background(), objectstore.S3Config{
				Endpoint:        opts.S3Endpoint,
				Region:          opts.S3Region,
				AccessKeyID:     opts.S3AccessKeyID,
				SecretAccessKey: opts.S3SecretAccessKey,
			})
			if err != nil {
				return nil, err
			}

			return objectstore.NewS3(client, bucket(opts), baseURL(opts)), nil
		})
	}

	provide(GalleryStore,
		func(o *Options) string { return o.GalleryBucket },
		func(o *Options) string { return o.GalleryBaseURL },
	)
	provide(AvatarStore,
		func(o *Options) string { return o.AvatarBucket },
		func(o *Options) string { return o.AvatarBaseURL },
	)
}

func ProfilePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*profile.Service, error) {
		return profile.NewService(
			do.MustInvoke[profile.Repository](i),
			do.MustInvokeNamed[objectstore.Store](i, GalleryStore),
			do.MustInvokeNamed[objectstore.Store](i, AvatarStore),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}
