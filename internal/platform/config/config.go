package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultDatabaseParams      = "charset=utf8mb4&parseTime=True&loc=UTC"
	defaultTokenTTL            = 12 * time.Hour
	defaultPayPalAPIBase       = "https://api-m.sandbox.paypal.com"
	defaultPayPalTimeout       = 15 * time.Second
	defaultIdempotencyHeader   = "Idempotency-Key"
	defaultIdempotencyTTL      = 24 * time.Hour
	defaultReconcileInterval   = 5 * time.Minute
	defaultReconcilePendingTTL = time.Hour
	defaultReconcileBatchSize  = 200
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	PayPal         PayPalConfig
	Idempotency    IdempotencyConfig
	Reconciliation ReconciliationConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig stores MySQL connection parameters.
type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
	Params   string
}

// DSN renders the MySQL data source name for the configured database.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.Params)
}

// AuthConfig groups bearer-token settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// PayPalConfig collects credentials and endpoints for the payment provider.
type PayPalConfig struct {
	ClientID  string
	Secret    string
	APIBase   string
	ReturnURL string
	CancelURL string
	Timeout   time.Duration
}

// IdempotencyConfig controls replay protection for order creation.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// ReconciliationConfig controls the stale-payment sweep.
type ReconciliationConfig struct {
	Interval   time.Duration
	PendingTTL time.Duration
	BatchSize  int
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.fields) == 0 {
		return "config: validation failed"
	}
	return fmt.Sprintf("config: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns the names of the offending configuration fields.
func (e *ValidationError) Fields() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Database: DatabaseConfig{
			User:     stringWithDefault(lookup, "API_MYSQL_USER", "clearcart"),
			Password: stringWithDefault(lookup, "API_MYSQL_PASSWORD", ""),
			Host:     stringWithDefault(lookup, "API_MYSQL_HOST", "127.0.0.1"),
			Port:     stringWithDefault(lookup, "API_MYSQL_PORT", "3306"),
			Database: stringWithDefault(lookup, "API_MYSQL_DATABASE", "clearcart"),
			Params:   stringWithDefault(lookup, "API_MYSQL_PARAMS", defaultDatabaseParams),
		},
		Auth: AuthConfig{
			JWTSecret: stringWithDefault(lookup, "API_AUTH_JWT_SECRET", ""),
			Issuer:    stringWithDefault(lookup, "API_AUTH_ISSUER", "clearcart-api"),
			TokenTTL:  durationWithDefault(lookup, "API_AUTH_TOKEN_TTL", defaultTokenTTL),
		},
		PayPal: PayPalConfig{
			ClientID:  stringWithDefault(lookup, "API_PAYPAL_CLIENT_ID", ""),
			Secret:    stringWithDefault(lookup, "API_PAYPAL_SECRET", ""),
			APIBase:   stringWithDefault(lookup, "API_PAYPAL_API_BASE", defaultPayPalAPIBase),
			ReturnURL: stringWithDefault(lookup, "API_PAYPAL_RETURN_URL", ""),
			CancelURL: stringWithDefault(lookup, "API_PAYPAL_CANCEL_URL", ""),
			Timeout:   durationWithDefault(lookup, "API_PAYPAL_TIMEOUT", defaultPayPalTimeout),
		},
		Idempotency: IdempotencyConfig{
			Header: stringWithDefault(lookup, "API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:    durationWithDefault(lookup, "API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		},
		Reconciliation: ReconciliationConfig{
			Interval:   durationWithDefault(lookup, "API_RECONCILE_INTERVAL", defaultReconcileInterval),
			PendingTTL: durationWithDefault(lookup, "API_RECONCILE_PENDING_TTL", defaultReconcilePendingTTL),
			BatchSize:  intWithDefault(lookup, "API_RECONCILE_BATCH_SIZE", defaultReconcileBatchSize),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Database.Host == "" {
		missing = append(missing, "Database.Host")
	}
	if cfg.Database.Database == "" {
		missing = append(missing, "Database.Database")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		missing = append(missing, "Auth.JWTSecret")
	}
	if cfg.Auth.TokenTTL <= 0 {
		missing = append(missing, "Auth.TokenTTL")
	}
	if strings.TrimSpace(cfg.Idempotency.Header) == "" {
		missing = append(missing, "Idempotency.Header")
	}
	if cfg.Idempotency.TTL <= 0 {
		missing = append(missing, "Idempotency.TTL")
	}
	if cfg.Reconciliation.Interval <= 0 {
		missing = append(missing, "Reconciliation.Interval")
	}
	if cfg.Reconciliation.PendingTTL <= 0 {
		missing = append(missing, "Reconciliation.PendingTTL")
	}
	if cfg.Reconciliation.BatchSize <= 0 {
		missing = append(missing, "Reconciliation.BatchSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
