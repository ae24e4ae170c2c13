package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Email    EmailConfig
	Stripe   StripeConfig
	Tenancy  TenancyConfig
	Delivery DeliveryConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	PrivateKeyPath     string
	PublicKeyPath      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

type AuthConfig struct {
	MaxFailedLogins    int
	LockDuration       time.Duration
	PasswordResetTTL   time.Duration
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	SuperAdminEmail    string
	SuperAdminPassword string
}

type EmailConfig struct {
	Enabled      bool
	ResendAPIKey string
	FromEmail    string
	FromName     string
	FrontendURL  string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type TenancyConfig struct {
	DefaultSlug string
	// Domains maps a request host (without port) to a tenant slug
	Domains   map[string]string
	TrialDays int
}

type DeliveryConfig struct {
	// TrackingURLTemplate is formatted with the tracking code when an admin
	// ships without a tracking URL
	TrackingURLTemplate string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "clube"),
			Password: getEnv("DB_PASSWORD", "clube"),
			DBName:   getEnv("DB_NAME", "clubedb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKeyPath:     getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:      getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			AccessTokenExpiry:  getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getDurationEnv("JWT_REFRESH_EXPIRY", 30*24*time.Hour),
			Issuer:             getEnv("JWT_ISSUER", "fazumclube"),
		},
		Auth: AuthConfig{
			MaxFailedLogins:    getIntEnv("AUTH_MAX_FAILED_LOGINS", 5),
			LockDuration:       getDurationEnv("AUTH_LOCK_DURATION", 15*time.Minute),
			PasswordResetTTL:   getDurationEnv("AUTH_PASSWORD_RESET_TTL", time.Hour),
			LoginRateLimit:     getIntEnv("AUTH_LOGIN_RATE_LIMIT", 10),
			LoginRateWindow:    getDurationEnv("AUTH_LOGIN_RATE_WINDOW", time.Minute),
			SuperAdminEmail:    getEnv("SUPERADMIN_EMAIL", ""),
			SuperAdminPassword: getEnv("SUPERADMIN_PASSWORD", ""),
		},
		Email: EmailConfig{
			Enabled:      getBoolEnv("EMAIL_ENABLED", false),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", "no-reply@fazumclube.com.br"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Faz um Clube"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		},
		Tenancy: TenancyConfig{
			DefaultSlug: getEnv("TENANT_DEFAULT_SLUG", ""),
			Domains:     parseDomainMap(getEnv("TENANT_DOMAINS", "")),
			TrialDays:   getIntEnv("TENANT_TRIAL_DAYS", 14),
		},
		Delivery: DeliveryConfig{
			TrackingURLTemplate: getEnv("DELIVERY_TRACKING_URL_TEMPLATE", "https://rastreamento.correios.com.br/app/index.php?objeto=%s"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Server.Environment == "production" {
		if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required in production")
		}
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the connection string in the form golang-migrate expects
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// parseDomainMap parses "host=slug,host=slug". Malformed pairs are skipped.
func parseDomainMap(raw string) map[string]string {
	domains := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		host, slug, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		host = strings.ToLower(strings.TrimSpace(host))
		slug = strings.TrimSpace(slug)
		if host == "" || slug == "" {
			continue
		}
		domains[host] = slug
	}
	return domains
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
