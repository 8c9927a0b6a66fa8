package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/etabridge/internal/config"
	"github.com/smallbiznis/etabridge/internal/observability/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	keyETAConnector = "eta:requests:connector:%s"

	// Bound on a single sleep so cancellation is observed promptly.
	maxBucketWait = 2 * time.Second
)

// ETALimiter paces outbound calls to the tax authority per connector. With
// Redis configured the budget is shared by all replicas, otherwise each
// process keeps its own limiter.
type ETALimiter struct {
	bucket  *TokenBucket
	rate    float64
	burst   int
	metrics *metrics.Metrics
	log     *zap.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewETALimiter(cfg config.Config, bucket *TokenBucket, m *metrics.Metrics, log *zap.Logger) *ETALimiter {
	r := cfg.ETA.RequestRate
	if r <= 0 {
		r = 10
	}
	burst := cfg.ETA.RequestBurst
	if burst <= 0 {
		burst = 30
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ETALimiter{
		bucket:  bucket,
		rate:    r,
		burst:   burst,
		metrics: m,
		log:     log.Named("ratelimit.eta"),
		local:   map[string]*rate.Limiter{},
	}
}

// Wait blocks until connector may issue one request or ctx ends.
func (l *ETALimiter) Wait(ctx context.Context, connector string) error {
	if l == nil {
		return nil
	}
	connector = strings.TrimSpace(connector)
	if l.bucket != nil {
		err := l.waitShared(ctx, connector)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		l.log.Warn("shared limiter unavailable, using local limiter",
			zap.String("connector", connector),
			zap.Error(err),
		)
	}
	return l.limiter(connector).Wait(ctx)
}

func (l *ETALimiter) waitShared(ctx context.Context, connector string) error {
	key := fmt.Sprintf(keyETAConnector, connector)
	for {
		res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
		if err != nil {
			return err
		}
		if res.Allowed {
			return nil
		}
		l.metrics.RecordRateLimitDenied(ctx, "eta", "bucket_empty")

		wait := res.RetryAfter
		if wait <= 0 || wait > maxBucketWait {
			wait = maxBucketWait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *ETALimiter) limiter(connector string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.local[connector]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rate), l.burst)
		l.local[connector] = lim
	}
	return lim
}
