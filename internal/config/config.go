// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var defaultCORSOrigins = []string{
	"http://localhost",
	"http://localhost:8000",
	"http://127.0.0.1",
	"http://127.0.0.1:8000",
	"http://localhost:5500",
	"http://127.0.0.1:5500",
}

type Config struct {
	// Server
	HTTPAddr        string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Storage
	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	// Admin
	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// Static images
	ImagesDir    string
	ImageBaseURL string

	// Intent resolution
	NLPDataDir             string
	OrderStatusIntentTitle string
	CatalogTTL             time.Duration

	// ERP
	ERPTimeout       time.Duration
	ERPRoutingHeader string
	ERPStatusField   string

	// Rate limits on /chat
	ChatRateLimitRPS   float64
	ChatRateLimitBurst int

	// Telegram channel
	TelegramBotToken    string
	TelegramTenantToken string
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     getListEnv("CORS_ORIGINS", defaultCORSOrigins),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/chatbot.db"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		ImagesDir:    getEnv("IMAGES_DIR", "images"),
		ImageBaseURL: getEnv("IMAGE_BASE_URL", "http://localhost:8000/images/"),

		NLPDataDir:             getEnv("NLP_DATA_DIR", ""),
		OrderStatusIntentTitle: getEnv("ORDER_STATUS_INTENT_TITLE", "Status do Pedido"),
		CatalogTTL:             getDurationEnv("CATALOG_TTL", 5*time.Minute),

		ERPTimeout:       getDurationEnv("ERP_TIMEOUT", 20*time.Second),
		ERPRoutingHeader: getEnv("ERP_ROUTING_HEADER", "MasterSite"),
		ERPStatusField:   getEnv("ERP_STATUS_FIELD", "status"),

		ChatRateLimitRPS:   getFloatEnv("CHAT_RATE_LIMIT_RPS", 5),
		ChatRateLimitBurst: getIntEnv("CHAT_RATE_LIMIT_BURST", 10),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramTenantToken: getEnv("TELEGRAM_TENANT_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	if c.ERPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ERP_TIMEOUT must be positive, got %v", c.ERPTimeout))
	}
	if c.CatalogTTL <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_TTL must be positive, got %v", c.CatalogTTL))
	}
	if c.ChatRateLimitRPS <= 0 || c.ChatRateLimitBurst <= 0 {
		errs = append(errs, errors.New("CHAT_RATE_LIMIT_RPS and CHAT_RATE_LIMIT_BURST must be positive"))
	}
	if (c.TelegramBotToken == "") != (c.TelegramTenantToken == "") {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_TENANT_TOKEN must be set together"))
	}

	return errors.Join(errs...)
}

// AdminConfigured reports whether a bootstrap admin account should be ensured.
func (c *Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramTenantToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
