// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment names understood by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	AppEnv        string        `mapstructure:"APP_ENV"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	// DBSource is the URL form of the connection string, used by golang-migrate.
	DBSource string `mapstructure:"DB_SOURCE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey             string `mapstructure:"FIREBASE_WEB_API_KEY"`
	FirebaseAuthBaseURL           string `mapstructure:"FIREBASE_AUTH_BASE_URL"`
	FirebaseTokenURL              string `mapstructure:"FIREBASE_TOKEN_URL"`

	// Frontend
	FrontendURL    string `mapstructure:"FRONTEND_URL"`
	FrontendAPIURL string `mapstructure:"FRONTEND_API_URL"`

	// Auth cookies
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`

	// Audit trail
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
	AuditIndex       string `mapstructure:"AUDIT_INDEX"`
	AuditBufferSize  int    `mapstructure:"AUDIT_BUFFER_SIZE"`

	// Rate limiting of credential endpoints
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Cron Jobs
	ProfileReconcileSchedule string `mapstructure:"PROFILE_RECONCILE_SCHEDULE"`
}

// IsDevelopment reports whether raw provider errors may be logged.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, EnvDevelopment)
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_ENV", EnvProduction)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "session_broker_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")
	v.SetDefault("FIREBASE_AUTH_BASE_URL", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("FIREBASE_TOKEN_URL", "https://securetoken.googleapis.com/v1/token")

	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("FRONTEND_API_URL", "http://localhost:3000/api")

	v.SetDefault("COOKIE_DOMAIN", "")

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("AUDIT_INDEX", "session-audit")
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)

	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("PROFILE_RECONCILE_SCHEDULE", "@hourly")

	// Every key above has a default, so AutomaticEnv sees all of them on Unmarshal.
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute

	cfg.FrontendURL = strings.TrimSpace(cfg.FrontendURL)
	cfg.FrontendAPIURL = strings.TrimSpace(cfg.FrontendAPIURL)

	if strings.TrimSpace(cfg.DBSource) == "" {
		cfg.DBSource = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			url.QueryEscape(cfg.DBUser), url.QueryEscape(cfg.DBPassword), cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
	}
	if strings.TrimSpace(c.FirebaseWebAPIKey) == "" {
		return fmt.Errorf("FATAL: FIREBASE_WEB_API_KEY is not set. It is required for password sign-in and token refresh")
	}
	for name, raw := range map[string]string{"FRONTEND_URL": c.FrontendURL, "FRONTEND_API_URL": c.FrontendAPIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid frontend environment variable %s: %q is not an absolute URL", name, raw)
		}
	}
	return nil
}
