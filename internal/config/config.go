package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPPort    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	Scheduler SchedulerConfig
	ETA       ETAClientConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	BatchSize  int
	JobTimeout time.Duration
	LockTTL    time.Duration
	// Jobs restricts the run to the named jobs. Empty runs all of them.
	Jobs       []string
}

// ETAClientConfig tunes the transport towards the tax authority.
type ETAClientConfig struct {
	HTTPTimeout    time.Duration
	MaxRetries     int
	MaxElapsedTime time.Duration
	RequestRate    float64
	RequestBurst   int
	TokenLockTTL   time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:      getenv("APP_SERVICE", "etabridge"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPPort:     getenv("PORT", "8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "etabridge"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getenvBool("SCHEDULER_ENABLED", true),
			Interval:   getenvDuration("SCHEDULER_INTERVAL", 5*time.Minute),
			BatchSize:  getenvInt("SCHEDULER_BATCH_SIZE", 50),
			JobTimeout: getenvDuration("SCHEDULER_JOB_TIMEOUT", 2*time.Minute),
			LockTTL:    getenvDuration("SCHEDULER_LOCK_TTL", 10*time.Minute),
			Jobs:       getenvList("SCHEDULER_JOBS"),
		},
		ETA: ETAClientConfig{
			HTTPTimeout:    getenvDuration("ETA_HTTP_TIMEOUT", 30*time.Second),
			MaxRetries:     getenvInt("ETA_MAX_RETRIES", 3),
			MaxElapsedTime: getenvDuration("ETA_MAX_ELAPSED", time.Minute),
			RequestRate:    getenvFloat("ETA_REQUEST_RATE", 5),
			RequestBurst:   getenvInt("ETA_REQUEST_BURST", 10),
			TokenLockTTL:   getenvDuration("ETA_TOKEN_LOCK_TTL", 30*time.Second),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s") or a plain number of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
