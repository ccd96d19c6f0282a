package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "verigate/pkg/platform/strings"
)

// Config captures everything the gateway needs from its environment. main
// stays lean: read once, pass down.
type Config struct {
	Addr string

	// Backend is the upstream credential-verification REST API.
	Backend BackendConfig

	// Paystack holds the server-side payment gateway credentials. The secret
	// key never leaves this process.
	Paystack PaystackConfig

	// PublicAppURL is the externally reachable base URL, used to build the
	// payment callback URL.
	PublicAppURL string

	// GeoServiceURL is the IP-geolocation lookup endpoint.
	GeoServiceURL string

	Session SessionConfig
	Redis   RedisConfig

	// PostgresDSN enables the Postgres payment-transaction store when set.
	PostgresDSN string

	Audit AuditConfig

	// RateLimitDisabled turns off auth-endpoint throttling (testing/demo).
	RateLimitDisabled bool
}

// BackendConfig configures the upstream API client.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PaystackConfig configures the payment gateway integration.
type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

// SessionConfig holds the idle-timeout policy knobs.
type SessionConfig struct {
	SessionTimeout time.Duration
	WarningTime    time.Duration
	CheckInterval  time.Duration
}

// RedisConfig configures the optional shared session registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig selects the audit event sink. With no brokers configured events
// stay in the in-process store.
type AuditConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables with development-safe
// defaults.
func FromEnv() Config {
	return Config{
		Addr: envOr("VERIGATE_ADDR", ":8080"),
		Backend: BackendConfig{
			BaseURL: envOr("BACKEND_BASE_URL", "http://localhost:4000/api"),
			Timeout: envDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Paystack: PaystackConfig{
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
			BaseURL:   envOr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		},
		PublicAppURL:  envOr("PUBLIC_APP_URL", "http://localhost:8080"),
		GeoServiceURL: envOr("GEO_SERVICE_URL", "https://ipapi.co/json/"),
		Session: SessionConfig{
			SessionTimeout: envDuration("SESSION_TIMEOUT", 30*time.Minute),
			WarningTime:    envDuration("SESSION_WARNING_TIME", 5*time.Minute),
			CheckInterval:  envDuration("SESSION_CHECK_INTERVAL", time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Audit: AuditConfig{
			KafkaBrokers: envList("AUDIT_KAFKA_BROKERS"),
			KafkaTopic:   envOr("AUDIT_KAFKA_TOPIC", "verigate.audit"),
		},
		RateLimitDisabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := platformstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
