// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Rate table sources understood by RATE_TABLE_SOURCE.
const (
	RateTableSourceBuiltin  = "builtin"
	RateTableSourceFile     = "file"
	RateTableSourceS3       = "s3"
	RateTableSourcePostgres = "postgres"
)

// DefaultBenchmarkRate is the EBLR used when neither the request nor the
// environment supplies one.
const DefaultBenchmarkRate = "8.25"

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Rate tables
	DefaultBenchmarkRate decimal.Decimal
	RateTableSource      string
	RateTablePath        string
	RateTableS3Key       string

	// SES
	SESSenderEmail       string
	RateTableAlertEmails []string

	// Application
	Stage    string
	LogLevel string
	Port     string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion: getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:  getEnv("S3_BUCKET", "msme-roi-rate-tables-dev"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", "roi_engine"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),

		// Rate tables
		DefaultBenchmarkRate: getEnvDecimal("DEFAULT_EBLR", decimal.RequireFromString(DefaultBenchmarkRate)),
		RateTableSource:      strings.ToLower(getEnv("RATE_TABLE_SOURCE", RateTableSourceBuiltin)),
		RateTablePath:        getEnv("RATE_TABLE_PATH", "rate_tables.csv"),
		RateTableS3Key:       getEnv("RATE_TABLE_S3_KEY", "rate-tables/current.csv"),

		// SES
		SESSenderEmail:       getEnv("SES_SENDER_EMAIL", ""),
		RateTableAlertEmails: getEnvList("RATE_TABLE_ALERT_EMAILS"),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// AlertsEnabled reports whether resolution failures should be mailed to the
// rate table maintainers.
func (c *Config) AlertsEnabled() bool {
	return c.SESSenderEmail != "" && len(c.RateTableAlertEmails) > 0
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDecimal retrieves a positive decimal or returns a default value.
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil && d.IsPositive() {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
