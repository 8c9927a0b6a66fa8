package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RequestOption modifies an outgoing request.
type RequestOption func(*http.Request)

// ClientOption modifies the HTTP client.
type ClientOption func(*HTTPClient)

// Middleware wraps the underlying transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// MetricsCollector receives one observation per logical request, retries included.
type MetricsCollector interface {
	ObserveUpstream(endpoint string, status int, elapsed time.Duration)
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxElapsedTime       time.Duration
	RetryableStatusCodes []int
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           3,
		InitialInterval:      200 * time.Millisecond,
		MaxInterval:          5 * time.Second,
		Multiplier:           2.0,
		MaxElapsedTime:       30 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// HTTPClient sends JSON requests to the authority with retries on transient failures.
type HTTPClient struct {
	httpClient     *http.Client
	defaultHeaders map[string]string
	retryConfig    *RetryConfig
	middlewares    []Middleware
	metrics        MetricsCollector
	log            *zap.Logger
}

func NewHTTPClient(options ...ClientOption) *HTTPClient {
	client := &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		defaultHeaders: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
			"Accept":       "application/json",
		},
		retryConfig: DefaultRetryConfig(),
		log:         zap.NewNop(),
	}
	for _, option := range options {
		option(client)
	}

	if len(client.middlewares) > 0 {
		transport := client.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		// first middleware is outermost
		for i := len(client.middlewares) - 1; i >= 0; i-- {
			transport = client.middlewares[i](transport)
		}
		client.httpClient.Transport = transport
	}
	return client
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *HTTPClient) {
		c.retryConfig = config
	}
}

func WithMiddleware(middleware Middleware) ClientOption {
	return func(c *HTTPClient) {
		c.middlewares = append(c.middlewares, middleware)
	}
}

func WithMetricsCollector(collector MetricsCollector) ClientOption {
	return func(c *HTTPClient) {
		c.metrics = collector
	}
}

func WithLogger(log *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		if log != nil {
			c.log = log
		}
	}
}

func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient.Transport = transport
	}
}

func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Response is a fully read answer; the body is already closed.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Do sends one logical request to baseURL+path. Network failures and
// retryable statuses are retried with exponential backoff. A final
// non-2xx answer is returned together with an *HTTPError; network
// failures surface as *TransportError.
func (c *HTTPClient) Do(ctx context.Context, method, baseURL, path string, body any, options ...RequestOption) (*Response, error) {
	start := time.Now()
	fullURL := joinURL(baseURL, path)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var resp *Response
	operation := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		for key, value := range c.defaultHeaders {
			req.Header.Set(key, value)
		}
		for _, option := range options {
			option(req)
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&TransportError{URL: fullURL, Err: err})
			}
			return &TransportError{URL: fullURL, Err: err}
		}
		data, readErr := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		if readErr != nil {
			return &TransportError{URL: fullURL, StatusCode: httpResp.StatusCode, Err: readErr}
		}
		resp = &Response{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Header:     httpResp.Header,
			Body:       data,
		}
		if c.retryConfig != nil && isRetryableStatus(httpResp.StatusCode, c.retryConfig.RetryableStatusCodes) {
			return fmt.Errorf("retryable status code: %d", httpResp.StatusCode)
		}
		return nil
	}

	var requestErr error
	if c.retryConfig != nil && c.retryConfig.MaxRetries > 0 {
		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = c.retryConfig.InitialInterval
		expBackoff.MaxInterval = c.retryConfig.MaxInterval
		expBackoff.Multiplier = c.retryConfig.Multiplier
		expBackoff.MaxElapsedTime = c.retryConfig.MaxElapsedTime
		policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.retryConfig.MaxRetries)), ctx)
		requestErr = backoff.Retry(operation, policy)
	} else {
		requestErr = operation()
	}

	elapsed := time.Since(start)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.ObserveUpstream(endpointLabel(path), status, elapsed)
	}

	var tErr *TransportError
	if requestErr != nil && (resp == nil || errors.As(requestErr, &tErr)) {
		c.log.Warn("eta request failed",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.Duration("duration", elapsed),
			zap.Error(requestErr),
		)
		if errors.As(requestErr, &tErr) {
			return nil, tErr
		}
		return nil, &TransportError{URL: fullURL, Err: requestErr}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn("eta error response",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(resp.Body))),
			zap.Duration("duration", elapsed),
		)
		return resp, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        fullURL,
			Method:     method,
			Body:       string(resp.Body),
		}
	}

	c.log.Debug("eta request",
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

// DecodeJSON decodes a response body; undecodable bodies are transport errors.
func DecodeJSON(resp *Response, url string, target any) error {
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return &TransportError{URL: url, StatusCode: resp.StatusCode, Body: string(resp.Body), Err: err}
	}
	return nil
}

func isRetryableStatus(status int, codes []int) bool {
	for _, code := range codes {
		if status == code {
			return true
		}
	}
	return false
}

func joinURL(baseURL, path string) string {
	if baseURL == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(baseURL, "/") + path
}

// endpointLabel drops identifiers from a path so it is safe as a metric label.
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	out := segments[:0]
	for _, seg := range segments {
		if looksLikeID(seg) {
			out = append(out, ":id")
			continue
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}

func looksLikeID(seg string) bool {
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// LoggingMiddleware logs every attempt at debug level, retries included.
func LoggingMiddleware(log *zap.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return &loggingRoundTripper{next: next, log: log}
	}
}

type loggingRoundTripper struct {
	next http.RoundTripper
	log  *zap.Logger
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.next.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		l.log.Debug("eta attempt failed", append(fields, zap.Error(err))...)
		return resp, err
	}
	l.log.Debug("eta attempt", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
