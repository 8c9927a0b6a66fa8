package observability

import (
	"testing"

	"github.com/smallbiznis/etabridge/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := LoadConfig(config.Config{Environment: "development"})
	if cfg.ServiceName != "etabridge" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info level, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("expected console logs in development, got %q", cfg.LogFormat)
	}
	if cfg.OtelExporterProtocol != "http" {
		t.Fatalf("expected traces protocol override, got %q", cfg.OtelExporterProtocol)
	}
	if cfg.OtelSamplingRatio != 0.5 {
		t.Fatalf("expected sampling ratio 0.5, got %v", cfg.OtelSamplingRatio)
	}
	if cfg.OtelEnabled {
		t.Fatalf("expected tracing off without an exporter endpoint")
	}
	if !cfg.Debug() {
		t.Fatalf("expected development environment to enable debug")
	}
}

func TestLoadConfigProductionDefaults(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	t.Setenv("ETABRIDGE_SAMPLING_RATIO", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := LoadConfig(config.Config{Environment: "production", OTLPEndpoint: "collector:4317"})
	if cfg.OtelSamplingRatio != productionSamplingRatio {
		t.Fatalf("expected production sampling ratio, got %v", cfg.OtelSamplingRatio)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json logs in production, got %q", cfg.LogFormat)
	}
	if !cfg.OtelEnabled || cfg.OtelExporterEndpoint != "collector:4317" {
		t.Fatalf("expected tracing on with the configured endpoint, got %+v", cfg)
	}
	if cfg.Debug() {
		t.Fatalf("expected production to disable debug")
	}
}

func TestPrefixedVariablesWin(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ETABRIDGE_LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	t.Setenv("ETABRIDGE_SAMPLING_RATIO", "7")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("ETABRIDGE_OTEL_ENABLED", "off")

	cfg := LoadConfig(config.Config{Environment: "staging"})
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected prefixed level, got %q", cfg.LogLevel)
	}
	if cfg.OtelSamplingRatio != 1 {
		t.Fatalf("expected ratio clamped to 1, got %v", cfg.OtelSamplingRatio)
	}
	if cfg.OtelEnabled {
		t.Fatalf("expected prefixed switch to disable tracing")
	}
	if !cfg.Debug() {
		t.Fatalf("expected debug level to enable debug")
	}
}
