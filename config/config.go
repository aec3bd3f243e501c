package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCarriers are the carriers read from the environment when CARRIERS is unset
var DefaultCarriers = []string{"coterie", "hiscox", "next"}

// routingVars maps routing env suffixes onto routing code keys
var routingVars = map[string]string{
	"AGENCY_CODE":   "agency_code",
	"PRODUCER_CODE": "producer_code",
	"PRODUCER_ID":   "producer_id",
	"AGENT_ID":      "agent_id",
}

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // Optional: notification outbox. When nil, notifications are only logged.
	Carriers      []CarrierConfig
	Notifications NotificationConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// CarrierConfig holds one carrier's connection settings ({NAME}_* env vars)
type CarrierConfig struct {
	Name               string
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	MaxRetries         int
	RateLimitPerMinute int
	RoutingCodes       map[string]string
	WebhookSecret      string
	SignatureHeader    string
}

// NotificationConfig sizes the webhook notification dispatcher
type NotificationConfig struct {
	Workers int
	Buffer  int
	Timeout time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: loadDatabaseConfig(),
		Carriers: loadCarriers(getEnvAsList("CARRIERS", DefaultCarriers)),
		Notifications: NotificationConfig{
			Workers: getEnvAsInt("NOTIFY_WORKERS", 4),
			Buffer:  getEnvAsInt("NOTIFY_BUFFER", 1000),
			Timeout: getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database != nil && c.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string is required when the outbox is enabled")
	}

	seen := make(map[string]bool, len(c.Carriers))
	for _, carrier := range c.Carriers {
		key := strings.ToLower(carrier.Name)
		if key == "" {
			return fmt.Errorf("carrier name is required")
		}
		if seen[key] {
			return fmt.Errorf("carrier %s configured twice", key)
		}
		seen[key] = true
		if carrier.MaxRetries < 0 {
			return fmt.Errorf("carrier %s: max retries cannot be negative", key)
		}
	}

	if c.IsProduction() && len(c.ConfiguredCarriers()) == 0 {
		return fmt.Errorf("at least one carrier credential must be configured in production")
	}

	if c.Notifications.Workers <= 0 {
		return fmt.Errorf("notification workers must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// ConfiguredCarriers returns the names of carriers that have a credential
func (c *Config) ConfiguredCarriers() []string {
	var names []string
	for _, carrier := range c.Carriers {
		if carrier.APIKey != "" {
			names = append(names, carrier.Name)
		}
	}
	return names
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadDatabaseConfig returns nil when DATABASE_URL is unset
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadCarriers reads one env block per carrier. Carriers without {NAME}_API_URL are skipped.
func loadCarriers(names []string) []CarrierConfig {
	var carriers []CarrierConfig
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		prefix := envPrefix(name)

		baseURL := getEnv(prefix+"_API_URL", "")
		if baseURL == "" {
			continue
		}

		routing := make(map[string]string)
		for suffix, key := range routingVars {
			if v := getEnv(prefix+"_"+suffix, ""); v != "" {
				routing[key] = v
			}
		}

		carriers = append(carriers, CarrierConfig{
			Name:               name,
			BaseURL:            baseURL,
			APIKey:             getEnv(prefix+"_API_KEY", ""),
			Timeout:            getEnvAsDuration(prefix+"_TIMEOUT", 30*time.Second),
			MaxRetries:         getEnvAsInt(prefix+"_MAX_RETRIES", 3),
			RateLimitPerMinute: getEnvAsInt(prefix+"_RATE_LIMIT", 60),
			RoutingCodes:       routing,
			WebhookSecret:      getEnv(prefix+"_WEBHOOK_SECRET", ""),
			SignatureHeader:    getEnv(prefix+"_SIGNATURE_HEADER", "X-Signature"),
		})
	}
	return carriers
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name))
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
