package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int

	// Database
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Tokens
	JWTSecret       string
	AccessTokenTTL  time.Duration
	VerificationTTL time.Duration

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	BaseURL      string // Public base URL used in verification links

	// External movie catalog
	CatalogBaseURL string
	CatalogAPIKey  string // v4 bearer credential

	// Policy: roll back user creation when the verification email cannot be
	// sent. Default is to commit and log a warning.
	EmailFailureRollback bool

	// Cron expression for the verification-token sweeper.
	SweepSchedule string
}

// Load loads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	dbPort, err := getEnvInt("DATABASE_PORT", 5432)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	accessTTL, err := getEnvDuration("ACCESS_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	verificationTTL, err := getEnvDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort:           port,
		DatabaseHost:         getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:         dbPort,
		DatabaseName:         getEnv("DATABASE_NAME", "screenlog"),
		DatabaseUser:         getEnv("DATABASE_USER", "screenlog"),
		DatabasePassword:     os.Getenv("DATABASE_PASSWORD"),
		JWTSecret:            secret,
		AccessTokenTTL:       accessTTL,
		VerificationTTL:      verificationTTL,
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             smtpPort,
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		EmailFrom:            getEnv("EMAIL_FROM", "no-reply@screenlog.app"),
		BaseURL:              getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		CatalogBaseURL:       getEnv("CATALOG_BASE_URL", "https://api.themoviedb.org/3"),
		CatalogAPIKey:        os.Getenv("CATALOG_API_KEY"),
		EmailFailureRollback: getEnvBool("EMAIL_FAILURE_ROLLBACK", false),
		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "@hourly"),
	}, nil
}

// DatabaseDSN composes the Postgres connection string from the discrete
// host/port/credential settings.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.DatabaseUser),
		url.QueryEscape(c.DatabasePassword),
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
	)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
