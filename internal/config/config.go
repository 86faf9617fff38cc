package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all runtime configuration for the teamstocks server.
type Config struct {
	Port         int
	LogLevel     string
	TickInterval time.Duration

	StoreDriver  string
	DatabasePath string
	CatalogPath  string

	ReversionStrength float64
	VolatilityBase    float64
	VolatilityFloor   float64
	PriceFloorMult    float64
	PriceCeilMult     float64
	SimulatorSeed     int64

	TradeMaxRetries   int
	TradeRetryBackoff time.Duration

	CORSOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. A .env file in the working directory is loaded
// first when present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	tickInterval, err := getDuration("TICK_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tickInterval <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: must be positive, got %v", tickInterval)
	}

	driver := getStr("STORE_DRIVER", DriverMemory)
	if driver != DriverMemory && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q, must be one of: memory, sqlite", driver)
	}

	cfg := &Config{
		Port:         port,
		LogLevel:     logLevel,
		TickInterval: tickInterval,
		StoreDriver:  driver,
		DatabasePath: getStr("DATABASE_PATH", "teamstocks.db"),
		CatalogPath:  getStr("CATALOG_PATH", ""),
		CORSOrigins:  getList("CORS_ORIGINS", []string{"*"}),
	}

	floats := []struct {
		key string
		dst *float64
		def float64
	}{
		{"REVERSION_STRENGTH", &cfg.ReversionStrength, 0.08},
		{"VOLATILITY_BASE", &cfg.VolatilityBase, 0.035},
		{"VOLATILITY_FLOOR", &cfg.VolatilityFloor, 0.01},
		{"PRICE_FLOOR_MULT", &cfg.PriceFloorMult, 0.25},
		{"PRICE_CEIL_MULT", &cfg.PriceCeilMult, 1.75},
	}
	for _, f := range floats {
		v, err := getFloat(f.key, f.def)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid %s: must be >= 0, got %v", f.key, v)
		}
		*f.dst = v
	}
	if cfg.ReversionStrength > 1 {
		return nil, fmt.Errorf("invalid REVERSION_STRENGTH: must be <= 1, got %v", cfg.ReversionStrength)
	}
	if cfg.PriceFloorMult <= 0 || cfg.PriceFloorMult >= cfg.PriceCeilMult {
		return nil, fmt.Errorf("invalid price band: PRICE_FLOOR_MULT (%v) must be > 0 and below PRICE_CEIL_MULT (%v)",
			cfg.PriceFloorMult, cfg.PriceCeilMult)
	}

	if cfg.SimulatorSeed, err = getInt64("SIMULATOR_SEED", 0); err != nil {
		return nil, fmt.Errorf("invalid SIMULATOR_SEED: %w", err)
	}

	if cfg.TradeMaxRetries, err = getInt("TRADE_MAX_RETRIES", 3); err != nil {
		return nil, fmt.Errorf("invalid TRADE_MAX_RETRIES: %w", err)
	}
	if cfg.TradeMaxRetries < 0 {
		return nil, fmt.Errorf("invalid TRADE_MAX_RETRIES: must be >= 0, got %d", cfg.TradeMaxRetries)
	}
	if cfg.TradeRetryBackoff, err = getDuration("TRADE_RETRY_BACKOFF", 25*time.Millisecond); err != nil {
		return nil, fmt.Errorf("invalid TRADE_RETRY_BACKOFF: %w", err)
	}

	if cfg.ReadTimeout, err = getDuration("READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	if cfg.WriteTimeout, err = getDuration("WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}
	if cfg.IdleTimeout, err = getDuration("IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getList splits a comma-separated value, dropping empty entries.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
