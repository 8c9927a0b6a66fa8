package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/etabridge/internal/config"
)

const (
	defaultServiceName = "etabridge"
	// used in production when no ratio is configured
	productionSamplingRatio = 0.25
)

// Config holds the logging, tracing and metrics settings of the bridge.
// ETABRIDGE_ prefixed variables win over the generic ones.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	environment := strings.TrimSpace(lookup(cfg.Environment, "ETABRIDGE_ENV", "DEPLOYMENT_ENV"))
	dev := isDevEnv(environment)

	defaultFormat := "json"
	if dev {
		defaultFormat = "console"
	}
	defaultRatio := 1.0
	if cfg.IsProduction() {
		defaultRatio = productionSamplingRatio
	}

	endpoint := strings.TrimSpace(lookup(cfg.OTLPEndpoint, "ETABRIDGE_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"))
	protocol := lookup("grpc", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "ETABRIDGE_OTLP_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL")

	return Config{
		ServiceName:          serviceName,
		Environment:          environment,
		Version:              strings.TrimSpace(lookup(cfg.AppVersion, "SERVICE_VERSION")),
		LogLevel:             strings.ToLower(lookup("info", "ETABRIDGE_LOG_LEVEL", "LOG_LEVEL")),
		LogFormat:            strings.ToLower(lookup(defaultFormat, "ETABRIDGE_LOG_FORMAT", "LOG_FORMAT")),
		OtelEnabled:          lookupBool(endpoint != "", "ETABRIDGE_OTEL_ENABLED", "OTEL_ENABLED"),
		OtelExporterEndpoint: endpoint,
		OtelExporterProtocol: strings.ToLower(protocol),
		OtelSamplingRatio:    clampRatio(lookupFloat(defaultRatio, "ETABRIDGE_SAMPLING_RATIO", "OTEL_SAMPLING_RATIO")),
	}
}

func (c Config) Debug() bool {
	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if level == "debug" {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	switch env {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// lookup returns the first non blank variable among keys, or def.
func lookup(def string, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return def
}

func lookupBool(def bool, keys ...string) bool {
	switch strings.ToLower(lookup("", keys...)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func lookupFloat(def float64, keys ...string) float64 {
	value := lookup("", keys...)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
