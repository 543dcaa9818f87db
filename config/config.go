package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	OdooHostname string
	OdooDatabase string
	OdooLogin    string
	OdooPassword string

	Currency        string
	ShippingRegion  string
	DefaultShipping float64

	MaxConcurrency int
	Workers        int
	HTTPTimeoutSec int

	SnapshotCSV string
	SnapshotDSN string

	WatchIntervalHours int
}

// Load reads the .env file and returns a populated Config struct.
// The four Odoo credential variables are required; everything else has
// a sensible default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		OdooHostname: os.Getenv("ODOO_HOSTNAME"),
		OdooDatabase: os.Getenv("ODOO_DATABASE"),
		OdooLogin:    os.Getenv("ODOO_LOGIN"),
		OdooPassword: os.Getenv("ODOO_PASSWORD"),

		Currency:        getEnv("REVERB_CURRENCY", "CAD"),
		ShippingRegion:  getEnv("SHIPPING_REGION", "CA"),
		DefaultShipping: getEnvFloat("DEFAULT_SHIPPING", 250.0),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),
		Workers:        getEnvInt("WORKERS", 4),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 15),

		SnapshotCSV: getEnv("SNAPSHOT_CSV", ""),
		SnapshotDSN: getEnv("SNAPSHOT_DSN", ""),

		WatchIntervalHours: getEnvInt("WATCH_INTERVAL_HOURS", 6),
	}

	for name, val := range map[string]string{
		"ODOO_HOSTNAME": cfg.OdooHostname,
		"ODOO_DATABASE": cfg.OdooDatabase,
		"ODOO_LOGIN":    cfg.OdooLogin,
		"ODOO_PASSWORD": cfg.OdooPassword,
	} {
		if val == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
