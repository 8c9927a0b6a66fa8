package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/smallbiznis/etabridge/internal/observability/tracing"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	pathDocumentSubmissions = "/documentsubmissions"
	pathReceiptSubmissions  = "/receiptsubmissions"
	pathDocumentTypes       = "/documenttypes"

	CancelledStatus = "cancelled"

	documentTypesTTL = 24 * time.Hour
)

// Client talks to the authority's invoicing API on behalf of a connector.
type Client struct {
	http    *HTTPClient
	tokens  *TokenProvider
	limiter *ratelimit.ETALimiter
	catalog *cache.Cache
	tracer  trace.Tracer
	log     *zap.Logger
}

func New(httpClient *HTTPClient, tokens *TokenProvider, limiter *ratelimit.ETALimiter, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:    httpClient,
		tokens:  tokens,
		limiter: limiter,
		catalog: cache.New(documentTypesTTL, 2*documentTypesTTL),
		tracer:  otel.Tracer("etabridge/eta.client"),
		log:     log.Named("eta.client"),
	}
}

// SubmitDocuments posts a batch of invoices. Authority verdicts, including a
// refused batch, come back in the response; only transport and
// authentication failures are errors.
func (c *Client) SubmitDocuments(ctx context.Context, creds Credentials, documents []any) (*SubmissionResponse, error) {
	return c.submit(ctx, creds, pathDocumentSubmissions, map[string]any{"documents": documents})
}

// SubmitReceipts posts a batch of receipts.
func (c *Client) SubmitReceipts(ctx context.Context, creds Credentials, receipts []any) (*SubmissionResponse, error) {
	return c.submit(ctx, creds, pathReceiptSubmissions, map[string]any{"receipts": receipts})
}

func (c *Client) submit(ctx context.Context, creds Credentials, path string, body any) (*SubmissionResponse, error) {
	var out *SubmissionResponse
	err := c.traced(ctx, "eta.submit", creds, path, func(ctx context.Context) error {
		resp, err := c.do(ctx, creds, http.MethodPost, path, body)
		if resp == nil {
			return err
		}
		var decoded SubmissionResponse
		if decodeErr := DecodeJSON(resp, joinURL(creds.BaseURL, path), &decoded); decodeErr != nil {
			if err != nil {
				return err
			}
			return decodeErr
		}
		decoded.StatusCode = resp.StatusCode
		if err != nil && !decoded.Refused() && len(decoded.RejectedDocuments) == 0 {
			return err
		}
		out = &decoded
		return nil
	})
	return out, err
}

// DocumentRaw fetches the stored invoice, mainly for its status.
func (c *Client) DocumentRaw(ctx context.Context, creds Credentials, uuid string) (*DocumentRaw, error) {
	return c.raw(ctx, creds, "/documents/", "eta.document.raw", uuid)
}

// ReceiptRaw fetches the stored e-receipt, mainly for its status.
func (c *Client) ReceiptRaw(ctx context.Context, creds Credentials, uuid string) (*DocumentRaw, error) {
	return c.raw(ctx, creds, "/receipts/", "eta.receipt.raw", uuid)
}

func (c *Client) raw(ctx context.Context, creds Credentials, collection, span, uuid string) (*DocumentRaw, error) {
	if strings.TrimSpace(uuid) == "" {
		return nil, ErrMissingUUID
	}
	path := collection + url.PathEscape(uuid) + "/raw"
	var out DocumentRaw
	err := c.traced(ctx, span, creds, path, func(ctx context.Context) error {
		resp, err := c.do(ctx, creds, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		return DecodeJSON(resp, joinURL(creds.BaseURL, path), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DocumentPDF downloads the printable document.
func (c *Client) DocumentPDF(ctx context.Context, creds Credentials, uuid string) ([]byte, error) {
	if strings.TrimSpace(uuid) == "" {
		return nil, ErrMissingUUID
	}
	path := "/documents/" + url.PathEscape(uuid) + "/pdf"
	var out []byte
	err := c.traced(ctx, "eta.document.pdf", creds, path, func(ctx context.Context) error {
		resp, err := c.do(ctx, creds, http.MethodGet, path, nil, WithHeader("Accept", "application/pdf"))
		if err != nil {
			return err
		}
		out = resp.Body
		return nil
	})
	return out, err
}

// Submission fetches the processing summary of a submission.
func (c *Client) Submission(ctx context.Context, creds Credentials, submissionID string) (*SubmissionStatus, error) {
	path := "/documentSubmissions/" + url.PathEscape(submissionID)
	var out SubmissionStatus
	err := c.traced(ctx, "eta.submission.get", creds, path, func(ctx context.Context) error {
		resp, err := c.do(ctx, creds, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		return DecodeJSON(resp, joinURL(creds.BaseURL, path), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelDocument asks the authority to cancel a valid document.
func (c *Client) CancelDocument(ctx context.Context, creds Credentials, uuid, reason string) error {
	if strings.TrimSpace(uuid) == "" {
		return ErrMissingUUID
	}
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	path := "/documents/state/" + url.PathEscape(uuid) + "/state"
	return c.traced(ctx, "eta.document.cancel", creds, path, func(ctx context.Context) error {
		_, err := c.do(ctx, creds, http.MethodPut, path, cancelRequest{Status: CancelledStatus, Reason: reason})
		return err
	})
}

// DocumentTypes lists the authority's document type catalogue, cached per environment.
func (c *Client) DocumentTypes(ctx context.Context, creds Credentials) ([]DocumentType, error) {
	key := creds.Environment + "|" + creds.BaseURL
	if v, ok := c.catalog.Get(key); ok {
		return v.([]DocumentType), nil
	}
	var out []DocumentType
	err := c.traced(ctx, "eta.document_types", creds, pathDocumentTypes, func(ctx context.Context) error {
		resp, err := c.do(ctx, creds, http.MethodGet, pathDocumentTypes, nil)
		if err != nil {
			return err
		}
		return DecodeJSON(resp, joinURL(creds.BaseURL, pathDocumentTypes), &out)
	})
	if err != nil {
		return nil, err
	}
	c.catalog.SetDefault(key, out)
	return out, nil
}

// do paces, authenticates and sends one request. A 401 drops the cached
// token and the request is sent once more with a fresh one.
func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body any, options ...RequestOption) (*Response, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx, creds.Connector); err != nil {
			return nil, &TransportError{URL: joinURL(creds.BaseURL, path), Err: err}
		}
		token, err := c.tokens.Token(ctx, creds)
		if err != nil {
			return nil, err
		}
		opts := append([]RequestOption{WithBearerToken(token), traceHeaders(ctx)}, options...)
		resp, err := c.http.Do(ctx, method, creds.BaseURL, path, body, opts...)

		var hErr *HTTPError
		if attempt == 0 && errors.As(err, &hErr) && hErr.StatusCode == http.StatusUnauthorized {
			c.log.Info("token rejected, refreshing", zap.String("connector", creds.Connector))
			c.tokens.Invalidate(ctx, creds)
			continue
		}
		return resp, err
	}
}

func (c *Client) traced(ctx context.Context, name string, creds Credentials, path string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("eta.connector", creds.Connector),
		attribute.String("eta.environment", creds.Environment),
		attribute.String("eta.endpoint", endpointLabel(path)),
	)...)

	err := fn(ctx)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "eta request failed")
	}
	return err
}

func traceHeaders(ctx context.Context) RequestOption {
	return func(req *http.Request) {
		tracing.InjectContext(ctx, propagation.HeaderCarrier(req.Header))
	}
}
