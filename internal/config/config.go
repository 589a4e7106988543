package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the wallet service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// NATS event bus; empty disables event publishing
	NATSURL string

	// Pivot currency every wallet is denominated in
	PivotCurrency string

	// Platform owner tenant id, seeded at startup
	PlatformTenantID string

	// FX rate source: external quote endpoint, or static table when empty
	FXRateURL string
	// FXStaticRates holds "FROM:TO=rate" pairs, comma separated
	FXStaticRates map[string]float64

	// Reconciliation sweep interval in minutes; zero disables the ticker
	ReconcileIntervalMinutes int
}

// buildDatabaseURL constructs the database URL from individual components
func buildDatabaseURL() string {
	// First check if DATABASE_URL is explicitly set
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "wallet_service")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		Port:        getEnv("PORT", "8093"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: buildDatabaseURL(),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:     getEnv("NATS_URL", ""),

		PivotCurrency:    getEnv("PIVOT_CURRENCY", "XOF"),
		PlatformTenantID: getEnv("PLATFORM_TENANT_ID", "platform"),

		FXRateURL:     getEnv("FX_RATE_URL", ""),
		FXStaticRates: parseStaticRates(getEnv("FX_STATIC_RATES", "EUR:XOF=655.957,USD:XOF=601.50")),

		ReconcileIntervalMinutes: getEnvInt("RECONCILE_INTERVAL_MINUTES", 0),
	}

	// Validate required fields
	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if len(config.PivotCurrency) != 3 {
		log.Fatalf("PIVOT_CURRENCY must be a 3-letter code, got %q", config.PivotCurrency)
	}

	return config
}

// parseStaticRates parses "FROM:TO=rate" pairs separated by commas.
func parseStaticRates(raw string) map[string]float64 {
	rates := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			log.Printf("Warning: skipping malformed FX rate %q", pair)
			continue
		}
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			log.Printf("Warning: skipping invalid FX rate %q", pair)
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(key))] = rate
	}
	return rates
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
