package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes ETA business instruments.
type Metrics struct {
	submissions       metric.Int64Counter
	documentsAccepted metric.Int64Counter
	documentsRejected metric.Int64Counter
	tokenRefreshes    metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the ETA instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "etabridge"
	}
	meter := provider.Meter(name)

	submissions, err := meter.Int64Counter("etabridge_submissions_total",
		metric.WithDescription("Submission calls by document kind and aggregate outcome."))
	if err != nil {
		return nil, err
	}
	accepted, err := meter.Int64Counter("etabridge_documents_accepted_total")
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("etabridge_documents_rejected_total")
	if err != nil {
		return nil, err
	}
	tokenRefreshes, err := meter.Int64Counter("etabridge_token_refreshes_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("etabridge_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		submissions:       submissions,
		documentsAccepted: accepted,
		documentsRejected: rejected,
		tokenRefreshes:    tokenRefreshes,
		rateLimitDenied:   rateLimitDenied,
	}, nil
}

// RecordSubmission counts one submission call and its per-document outcomes.
func (m *Metrics) RecordSubmission(ctx context.Context, kind, status string, accepted, rejected int) {
	if m == nil {
		return
	}
	kindAttr := attribute.String("document_kind", strings.TrimSpace(kind))
	m.submissions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		kindAttr,
		attribute.String("status", strings.TrimSpace(status)),
	)...))
	if accepted > 0 {
		m.documentsAccepted.Add(ctx, int64(accepted), metric.WithAttributes(kindAttr))
	}
	if rejected > 0 {
		m.documentsRejected.Add(ctx, int64(rejected), metric.WithAttributes(kindAttr))
	}
}

// RecordTokenRefresh counts access token requests against the identity service.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, environment, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("environment", strings.TrimSpace(environment)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts requests held back by the outbound limiter.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"document_kind": {},
	"status":        {},
	"environment":   {},
	"outcome":       {},
	"endpoint":      {},
	"status_code":   {},
	"reason":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
