// Package config provides configuration management for the signal lifecycle
// engine's workers. Every worker binary (indicatorengine, forecaster,
// strategy, risk, executor) loads the same Config; each only reads the
// fields its component needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationError aggregates every configuration problem found during
// Validate so operators can fix everything in one pass, rather than
// iterating one error at a time.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration error(s):\n  - %s",
		len(ve.Errors), strings.Join(ve.Errors, "\n  - "))
}

// validLogLevels is the set of accepted zerolog log levels.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true,
	"panic": true, "disabled": true,
}

// defaultKingsList is the KINGS_LIST default per spec §6, sourced from the
// original's shared/config.py.
var defaultKingsList = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META"}

// Config holds every recognized setting from spec §6 plus the ambient
// logging/database/status settings every worker needs.
type Config struct {
	// Ambient
	DatabasePath string
	LogLevel     string
	ServerPort   int // optional status HTTP surface; 0 disables it

	// Broker (C7) — env vars per spec §6. Empty BrokerKeyID/SecretKey means
	// the executor falls back to the in-memory PaperBroker rather than
	// tripping the breaker; a partially-configured live broker (one of the
	// three set, not all) is treated as a configuration error.
	BrokerKeyID     string
	BrokerSecretKey string
	BrokerBaseURL   string

	// Risk Manager (C6)
	AccountSize         float64
	RiskPct             float64
	MaxSignalAgeMinutes int
	CryptoNotionalLimit float64

	// Strategy Engine (C5)
	KingsList []string

	// Executor (C7)
	TrailPercentDefault float64

	// Cadence (C2)
	ActiveSleepSeconds  int
	PassiveSleepSeconds int
}

// Load reads configuration from environment variables and an optional .env
// file, applying the defaults spec §6 specifies, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "./data/trading.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ServerPort:   getEnvInt("SERVER_PORT", 0),

		BrokerKeyID:     os.Getenv("BROKER_KEY_ID"),
		BrokerSecretKey: os.Getenv("BROKER_SECRET_KEY"),
		BrokerBaseURL:   os.Getenv("BROKER_BASE_URL"),

		AccountSize:         getEnvFloat("ACCOUNT_SIZE", 100000),
		RiskPct:             getEnvFloat("RISK_PCT", 0.01),
		MaxSignalAgeMinutes: getEnvInt("MAX_SIGNAL_AGE_MINUTES", 60),
		CryptoNotionalLimit: getEnvFloat("CRYPTO_NOTIONAL_LIMIT", 1000),

		KingsList: getEnvList("KINGS_LIST", defaultKingsList),

		TrailPercentDefault: getEnvFloat("TRAIL_PERCENT_DEFAULT", 2.0),

		ActiveSleepSeconds:  getEnvInt("ACTIVE_SLEEP_SECONDS", 300),
		PassiveSleepSeconds: getEnvInt("PASSIVE_SLEEP_SECONDS", 3600),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against the constraints spec §6/§4 impose.
// Broker credentials are validated as all-or-nothing: all three empty is
// accepted by every worker (the broker-facing workers then run paper), but
// a partial set is always a mistake worth failing fast on.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH is empty: set DATABASE_PATH in .env")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL '%s': must be one of trace, debug, info, warn, error, fatal, panic, disabled", c.LogLevel))
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Sprintf("invalid SERVER_PORT %d: must be between 0 and 65535", c.ServerPort))
	}

	set := 0
	if c.BrokerKeyID != "" {
		set++
	}
	if c.BrokerSecretKey != "" {
		set++
	}
	if c.BrokerBaseURL != "" {
		set++
	}
	if set != 0 && set != 3 {
		errs = append(errs, "BROKER_KEY_ID, BROKER_SECRET_KEY and BROKER_BASE_URL must be set together or not at all")
	}

	if c.AccountSize <= 0 {
		errs = append(errs, fmt.Sprintf("invalid ACCOUNT_SIZE %v: must be positive", c.AccountSize))
	}
	if c.RiskPct <= 0 || c.RiskPct > 1 {
		errs = append(errs, fmt.Sprintf("invalid RISK_PCT %v: must be in (0, 1]", c.RiskPct))
	}
	if c.MaxSignalAgeMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("invalid MAX_SIGNAL_AGE_MINUTES %d: must be positive", c.MaxSignalAgeMinutes))
	}
	if c.CryptoNotionalLimit <= 0 {
		errs = append(errs, fmt.Sprintf("invalid CRYPTO_NOTIONAL_LIMIT %v: must be positive", c.CryptoNotionalLimit))
	}
	if len(c.KingsList) == 0 {
		errs = append(errs, "KINGS_LIST must not be empty")
	}
	if c.ActiveSleepSeconds <= 0 || c.PassiveSleepSeconds <= 0 {
		errs = append(errs, "ACTIVE_SLEEP_SECONDS and PASSIVE_SLEEP_SECONDS must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// HasLiveBroker reports whether broker credentials are configured. When
// false, the Executor runs against the in-memory PaperBroker instead of
// tripping the circuit breaker at startup — paper mode never requires
// credentials.
func (c *Config) HasLiveBroker() bool {
	return c.BrokerKeyID != "" && c.BrokerSecretKey != "" && c.BrokerBaseURL != ""
}

// MaxSignalAge converts MaxSignalAgeMinutes to a time.Duration.
func (c *Config) MaxSignalAge() time.Duration {
	return time.Duration(c.MaxSignalAgeMinutes) * time.Minute
}

// ActiveSleep converts ActiveSleepSeconds to a time.Duration.
func (c *Config) ActiveSleep() time.Duration {
	return time.Duration(c.ActiveSleepSeconds) * time.Second
}

// PassiveSleep converts PassiveSleepSeconds to a time.Duration.
func (c *Config) PassiveSleep() time.Duration {
	return time.Duration(c.PassiveSleepSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
