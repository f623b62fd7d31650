package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Thresholds   ThresholdConfig
	RateLimit    RateLimitConfig
	Sweep        SweepConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator authentication parameters. OperatorKeyHash is
// a bcrypt hash of the shared operator API key; when empty, operator login
// is disabled and the mutating health endpoints reject all callers.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorKeyHash       string
}

// ThresholdConfig carries the health evaluation policy constants. The
// values are read-only at evaluation time and passed explicitly into the
// evaluator and sweep rather than consulted as globals.
type ThresholdConfig struct {
	AgeCriticalYears       int
	AgeMaintenanceYears    int
	OpenIssuesWarning      int
	OpenIssuesCritical     int
	OpenIssuesMaintenance  int
	WarrantyExpiryDays     int
	MaintenanceOverdueDays int
}

// RateLimitConfig bounds repeated submissions per (device, asset) pair.
type RateLimitConfig struct {
	WindowSeconds    int
	MaxReportsWindow int
}

// Window returns the rate-limit window duration.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

// SweepConfig controls health sweep fanout.
type SweepConfig struct {
	Workers int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "asset-health-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorKeyHash:       os.Getenv("AUTH_OPERATOR_KEY_HASH"),
		},
		Thresholds: ThresholdConfig{
			AgeCriticalYears:       getEnvAsInt("HEALTH_AGE_CRITICAL_YEARS", 7),
			AgeMaintenanceYears:    getEnvAsInt("HEALTH_AGE_MAINTENANCE_YEARS", 5),
			OpenIssuesWarning:      getEnvAsInt("HEALTH_OPEN_ISSUES_WARNING", 2),
			OpenIssuesCritical:     getEnvAsInt("HEALTH_OPEN_ISSUES_CRITICAL", 5),
			OpenIssuesMaintenance:  getEnvAsInt("HEALTH_OPEN_ISSUES_MAINTENANCE", 3),
			WarrantyExpiryDays:     getEnvAsInt("HEALTH_WARRANTY_EXPIRY_DAYS", 30),
			MaintenanceOverdueDays: getEnvAsInt("HEALTH_MAINTENANCE_OVERDUE_DAYS", 14),
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:    getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 600),
			MaxReportsWindow: getEnvAsInt("RATE_LIMIT_MAX_REPORTS", 3),
		},
		Sweep: SweepConfig{
			Workers: getEnvAsInt("HEALTH_SWEEP_WORKERS", 8),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
