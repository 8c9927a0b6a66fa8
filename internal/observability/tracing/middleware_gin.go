package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	obscontext "github.com/smallbiznis/etabridge/internal/observability/context"
)

const apiTracerName = "github.com/smallbiznis/etabridge/internal/server"

// Span attributes describing the document an API call addresses.
const (
	AttrDocumentKind = attribute.Key("etabridge.document.kind")
	AttrDocumentName = attribute.Key("etabridge.document.name")
	AttrCompany      = attribute.Key("etabridge.company")
	AttrRequestID    = attribute.Key("etabridge.request_id")
)

// CompanyHeader scopes requests whose route does not name a company.
const CompanyHeader = "X-Company"

// health checks and metric scrapes are not traced
var untracedPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// GinMiddleware opens one server span per API call and tags it with the
// document kind, document name and company the call works on.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(apiTracerName)
	return func(c *gin.Context) {
		if _, skip := untracedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "etabridge "+strings.ToUpper(c.Request.Method), trace.WithSpanKind(trace.SpanKindServer))
		ctx = withRequestBaggage(ctx, span)

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		span.SetName(strings.ToUpper(c.Request.Method) + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		span.SetAttributes(SafeAttributes(append(attrs, documentAttributes(c)...)...)...)

		switch {
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		case status == http.StatusUnprocessableEntity:
			span.AddEvent("document rejected")
		}
		span.End()
	}
}

func withRequestBaggage(ctx context.Context, span trace.Span) context.Context {
	requestID := obscontext.RequestIDFromContext(ctx)
	if requestID == "" {
		return ctx
	}
	span.SetAttributes(AttrRequestID.String(requestID))
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// documentAttributes reads the route parameters after the handlers ran, so a
// company scoped by CompanyContext is visible too.
func documentAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if kind := strings.TrimSpace(c.Param("kind")); kind != "" {
		attrs = append(attrs, AttrDocumentKind.String(kind))
	}
	if name := strings.TrimSpace(c.Param("name")); name != "" {
		attrs = append(attrs, AttrDocumentName.String(name))
	}
	company := obscontext.CompanyFromContext(c.Request.Context())
	if company == "" {
		company = strings.TrimSpace(c.GetHeader(CompanyHeader))
	}
	if company != "" {
		attrs = append(attrs, AttrCompany.String(company))
	}
	return attrs
}
