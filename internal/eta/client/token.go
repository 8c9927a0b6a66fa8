package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/observability/metrics"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// Tokens are refreshed this long before they expire.
	TokenExpiryMargin = 3 * time.Minute

	InvoicingScope      = "InvoicingAPI"
	defaultPOSOSVersion = "os"

	keyTokenShared = "eta:token:%s"
	keyTokenLock   = "eta:token:lock:%s"

	sharedTokenPolls    = 5
	sharedTokenInterval = 200 * time.Millisecond
)

// TokenProvider hands out access tokens per connector. Tokens live in an
// in-process cache and, when Redis is configured, in a shared cache so
// replicas do not each hit the identity service. Refreshes are serialized
// per connector in process and across replicas by a Redis lock.
type TokenProvider struct {
	clock   clock.Clock
	local   *cache.Cache
	redis   *redis.Client
	locker  *ratelimit.Locker
	lockTTL time.Duration
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type TokenProviderParams struct {
	Clock   clock.Clock
	Redis   *redis.Client
	Locker  *ratelimit.Locker
	LockTTL time.Duration
	Timeout time.Duration
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewTokenProvider(p TokenProviderParams) *TokenProvider {
	if p.Clock == nil {
		p.Clock = clock.System()
	}
	if p.LockTTL <= 0 {
		p.LockTTL = 10 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	return &TokenProvider{
		clock:   p.Clock,
		local:   cache.New(cache.NoExpiration, 10*time.Minute),
		redis:   p.Redis,
		locker:  p.Locker,
		lockTTL: p.LockTTL,
		timeout: p.Timeout,
		metrics: p.Metrics,
		log:     p.Log.Named("eta.token"),
		locks:   map[string]*sync.Mutex{},
	}
}

// Token returns a token valid for at least TokenExpiryMargin.
func (p *TokenProvider) Token(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.validate(); err != nil {
		return "", err
	}
	key := creds.cacheKey()
	if tok, ok := p.cached(key); ok {
		return tok.AccessToken, nil
	}

	mu := p.connectorLock(key)
	mu.Lock()
	defer mu.Unlock()

	if tok, ok := p.cached(key); ok {
		return tok.AccessToken, nil
	}
	if tok, ok := p.shared(ctx, key); ok {
		p.store(key, tok)
		return tok.AccessToken, nil
	}

	var tok *oauth2.Token
	acquired, err := p.locker.WithLock(ctx, fmt.Sprintf(keyTokenLock, key), p.lockTTL, func(ctx context.Context) error {
		fresh, err := p.fetch(ctx, creds)
		if err != nil {
			return err
		}
		tok = fresh
		p.store(key, fresh)
		p.publish(ctx, key, fresh)
		return nil
	})
	switch {
	case acquired && err != nil:
		return "", err
	case tok != nil:
		return tok.AccessToken, nil
	case err != nil:
		p.log.Warn("token lock unavailable", zap.String("connector", creds.Connector), zap.Error(err))
	default:
		if shared, ok := p.awaitShared(ctx, key); ok {
			p.store(key, shared)
			return shared.AccessToken, nil
		}
	}

	// Redis unavailable or the other replica never published: fetch directly.
	fresh, err := p.fetch(ctx, creds)
	if err != nil {
		return "", err
	}
	p.store(key, fresh)
	return fresh.AccessToken, nil
}

// Invalidate drops the cached token, typically after a 401.
func (p *TokenProvider) Invalidate(ctx context.Context, creds Credentials) {
	key := creds.cacheKey()
	p.local.Delete(key)
	if p.redis != nil {
		if err := p.redis.Del(ctx, fmt.Sprintf(keyTokenShared, key)).Err(); err != nil {
			p.log.Warn("drop shared token failed", zap.String("connector", creds.Connector), zap.Error(err))
		}
	}
}

func (p *TokenProvider) fetch(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.IdentityURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	headers := map[string]string{}
	if creds.POS() {
		headers["posserial"] = creds.POSSerial
		version := creds.POSOSVersion
		if version == "" {
			version = defaultPOSOSVersion
		}
		headers["pososversion"] = version
	} else {
		cfg.Scopes = []string{InvoicingScope}
	}

	hc := &http.Client{
		Timeout:   p.timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, hc))
	if err != nil {
		p.metrics.RecordTokenRefresh(ctx, creds.Environment, "error")
		return nil, classifyTokenError(creds, err)
	}
	p.metrics.RecordTokenRefresh(ctx, creds.Environment, "ok")
	p.log.Info("access token refreshed",
		zap.String("connector", creds.Connector),
		zap.Time("expiry", tok.Expiry),
	)
	return tok, nil
}

func classifyTokenError(creds Credentials, err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		return &AuthenticationError{Connector: creds.Connector, StatusCode: status, Body: string(rErr.Body), Err: err}
	}
	var uErr *url.Error
	if errors.As(err, &uErr) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{URL: creds.IdentityURL, Err: err}
	}
	// missing access_token and malformed bodies
	return &AuthenticationError{Connector: creds.Connector, Err: err}
}

func (p *TokenProvider) valid(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return p.clock.Now().Add(TokenExpiryMargin).Before(tok.Expiry)
}

func (p *TokenProvider) cached(key string) (*oauth2.Token, bool) {
	v, ok := p.local.Get(key)
	if !ok {
		return nil, false
	}
	tok, _ := v.(*oauth2.Token)
	if !p.valid(tok) {
		return nil, false
	}
	return tok, true
}

func (p *TokenProvider) store(key string, tok *oauth2.Token) {
	p.local.Set(key, tok, cache.NoExpiration)
}

func (p *TokenProvider) shared(ctx context.Context, key string) (*oauth2.Token, bool) {
	if p.redis == nil {
		return nil, false
	}
	raw, err := p.redis.Get(ctx, fmt.Sprintf(keyTokenShared, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Warn("read shared token failed", zap.Error(err))
		}
		return nil, false
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, false
	}
	if !p.valid(&tok) {
		return nil, false
	}
	return &tok, true
}

func (p *TokenProvider) publish(ctx context.Context, key string, tok *oauth2.Token) {
	if p.redis == nil {
		return
	}
	ttl := time.Until(tok.Expiry) - TokenExpiryMargin
	if tok.Expiry.IsZero() || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, fmt.Sprintf(keyTokenShared, key), raw, ttl).Err(); err != nil {
		p.log.Warn("publish shared token failed", zap.Error(err))
	}
}

func (p *TokenProvider) awaitShared(ctx context.Context, key string) (*oauth2.Token, bool) {
	if p.redis == nil {
		return nil, false
	}
	for i := 0; i < sharedTokenPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(sharedTokenInterval):
		}
		if tok, ok := p.shared(ctx, key); ok {
			return tok, true
		}
	}
	return nil, false
}

func (p *TokenProvider) connectorLock(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	mu, ok := p.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		p.locks[key] = mu
	}
	return mu
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
