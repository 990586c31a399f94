package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret   string
	JWTExpiry   time.Duration
	AdminEmails []string // emails allowed to hold the admin role

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3Endpoint        string // Optional: for S3-compatible services
	S3MediaBucket     string // gallery photos/videos, public-read
	S3DonationsBucket string // donation QR image, public-read
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Sarbojanin Cultural Club"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envString("APP_URL", "http://localhost:8090"),
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/clubsite.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:   envRequired("JWT_SECRET"),
		JWTExpiry:   envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		AdminEmails: envStringList("ADMIN_EMAILS"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:          envRequired("S3_REGION"),
		S3AccessKey:       envRequired("S3_ACCESS_KEY"),
		S3SecretKey:       envRequired("S3_SECRET_KEY"),
		S3Endpoint:        envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
		S3MediaBucket:     envString("S3_MEDIA_BUCKET", "media"),
		S3DonationsBucket: envString("S3_DONATIONS_BUCKET", "donations"),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures required services are configured for production
// deployments. Development allows an empty admin allowlist for local testing.
func validateProduction(cfg *Config) {
	if len(cfg.AdminEmails) == 0 {
		slog.Error("production deployment requires ADMIN_EMAILS",
			"hint", "comma-separated list of emails allowed to administer the site")
		os.Exit(1)
	}
}

// IsAdminEmail reports whether the given email is on the admin allowlist.
// Comparison is case-insensitive.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.AdminEmails {
		if email == allowed {
			return true
		}
	}
	return false
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

// envStringList parses a comma-separated env var into trimmed, lowercased values.
func envStringList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// Secrets and credentials are excluded. Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		S3Endpoint:        c.S3Endpoint,
		S3MediaBucket:     c.S3MediaBucket,
		S3DonationsBucket: c.S3DonationsBucket,
	}
}
