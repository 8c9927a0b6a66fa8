// Package context carries request scoped correlation values used by logging and tracing.
package context

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	companyKey
	correlationIDKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithCompany tags the context with the ERP company a request acts for.
func WithCompany(ctx context.Context, company string) context.Context {
	return context.WithValue(ctx, companyKey, strings.TrimSpace(company))
}

func CompanyFromContext(ctx context.Context) string {
	v, _ := ctx.Value(companyKey).(string)
	return v
}

// WithCorrelationID attaches the identifier shared by every call of one submission.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}

// NewCorrelationID returns a sortable ULID.
func NewCorrelationID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
