package client

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	"github.com/smallbiznis/etabridge/internal/observability/metrics"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("eta.client",
	fx.Provide(
		provideHTTPClient,
		provideTokenProvider,
		New,
	),
)

type httpClientParams struct {
	fx.In

	Config  config.Config
	Metrics *metrics.HTTPMetrics `optional:"true"`
	Log     *zap.Logger
}

func provideHTTPClient(p httpClientParams) *HTTPClient {
	retry := DefaultRetryConfig()
	if p.Config.ETA.MaxRetries >= 0 {
		retry.MaxRetries = p.Config.ETA.MaxRetries
	}
	if p.Config.ETA.MaxElapsedTime > 0 {
		retry.MaxElapsedTime = p.Config.ETA.MaxElapsedTime
	}
	log := p.Log.Named("eta.http")
	opts := []ClientOption{
		WithTimeout(p.Config.ETA.HTTPTimeout),
		WithRetryConfig(retry),
		WithLogger(log),
		WithMiddleware(LoggingMiddleware(log)),
	}
	if p.Metrics != nil {
		opts = append(opts, WithMetricsCollector(p.Metrics))
	}
	return NewHTTPClient(opts...)
}

type tokenProviderParams struct {
	fx.In

	Config  config.Config
	Clock   clock.Clock
	Redis   *redis.Client     `optional:"true"`
	Locker  *ratelimit.Locker `optional:"true"`
	Metrics *metrics.Metrics  `optional:"true"`
	Log     *zap.Logger
}

func provideTokenProvider(p tokenProviderParams) *TokenProvider {
	return NewTokenProvider(TokenProviderParams{
		Clock:   p.Clock,
		Redis:   p.Redis,
		Locker:  p.Locker,
		LockTTL: p.Config.ETA.TokenLockTTL,
		Timeout: p.Config.ETA.HTTPTimeout,
		Metrics: p.Metrics,
		Log:     p.Log,
	})
}
