package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "TICK_INTERVAL", "STORE_DRIVER", "DATABASE_PATH",
	"CATALOG_PATH", "REVERSION_STRENGTH", "VOLATILITY_BASE", "VOLATILITY_FLOOR",
	"PRICE_FLOOR_MULT", "PRICE_CEIL_MULT", "SIMULATOR_SEED", "TRADE_MAX_RETRIES",
	"TRADE_RETRY_BACKOFF", "CORS_ORIGINS", "READ_TIMEOUT", "WRITE_TIMEOUT",
	"IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.TickInterval != 5*time.Second {
		t.Errorf("TickInterval = %v, want 5s", cfg.TickInterval)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.DatabasePath != "teamstocks.db" {
		t.Errorf("DatabasePath = %q, want teamstocks.db", cfg.DatabasePath)
	}
	if cfg.CatalogPath != "" {
		t.Errorf("CatalogPath = %q, want empty", cfg.CatalogPath)
	}
	if cfg.ReversionStrength != 0.08 || cfg.VolatilityBase != 0.035 || cfg.VolatilityFloor != 0.01 {
		t.Errorf("simulator = %v/%v/%v, want 0.08/0.035/0.01",
			cfg.ReversionStrength, cfg.VolatilityBase, cfg.VolatilityFloor)
	}
	if cfg.PriceFloorMult != 0.25 || cfg.PriceCeilMult != 1.75 {
		t.Errorf("band = %v/%v, want 0.25/1.75", cfg.PriceFloorMult, cfg.PriceCeilMult)
	}
	if cfg.SimulatorSeed != 0 {
		t.Errorf("SimulatorSeed = %d, want 0", cfg.SimulatorSeed)
	}
	if cfg.TradeMaxRetries != 3 || cfg.TradeRetryBackoff != 25*time.Millisecond {
		t.Errorf("retry = %d/%v, want 3/25ms", cfg.TradeMaxRetries, cfg.TradeRetryBackoff)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TICK_INTERVAL", "500ms")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", "/var/lib/teamstocks/data.db")
	t.Setenv("CATALOG_PATH", "/etc/teamstocks/catalog.yaml")
	t.Setenv("REVERSION_STRENGTH", "0.5")
	t.Setenv("PRICE_FLOOR_MULT", "0.5")
	t.Setenv("PRICE_CEIL_MULT", "1.5")
	t.Setenv("SIMULATOR_SEED", "42")
	t.Setenv("TRADE_MAX_RETRIES", "0")
	t.Setenv("TRADE_RETRY_BACKOFF", "1s")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://teamstocks.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", cfg.TickInterval)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.DatabasePath != "/var/lib/teamstocks/data.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.CatalogPath != "/etc/teamstocks/catalog.yaml" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.ReversionStrength != 0.5 || cfg.PriceFloorMult != 0.5 || cfg.PriceCeilMult != 1.5 {
		t.Errorf("simulator = %v/%v/%v, want 0.5/0.5/1.5",
			cfg.ReversionStrength, cfg.PriceFloorMult, cfg.PriceCeilMult)
	}
	if cfg.SimulatorSeed != 42 {
		t.Errorf("SimulatorSeed = %d, want 42", cfg.SimulatorSeed)
	}
	if cfg.TradeMaxRetries != 0 || cfg.TradeRetryBackoff != time.Second {
		t.Errorf("retry = %d/%v, want 0/1s", cfg.TradeMaxRetries, cfg.TradeRetryBackoff)
	}
	want := []string{"http://localhost:5173", "https://teamstocks.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7070\nLOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from .env", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want the environment to win over .env", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port", map[string]string{"PORT": "not-a-number"}},
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"store driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"zero tick interval", map[string]string{"TICK_INTERVAL": "0s"}},
		{"float", map[string]string{"VOLATILITY_BASE": "high"}},
		{"negative float", map[string]string{"VOLATILITY_FLOOR": "-0.1"}},
		{"reversion above one", map[string]string{"REVERSION_STRENGTH": "1.5"}},
		{"inverted band", map[string]string{"PRICE_FLOOR_MULT": "2", "PRICE_CEIL_MULT": "1"}},
		{"zero floor", map[string]string{"PRICE_FLOOR_MULT": "0"}},
		{"seed", map[string]string{"SIMULATOR_SEED": "abc"}},
		{"negative retries", map[string]string{"TRADE_MAX_RETRIES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %v", tt.env)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)

	keys := []string{
		"TICK_INTERVAL", "TRADE_RETRY_BACKOFF",
		"READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "not-a-duration")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}
