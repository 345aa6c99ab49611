package main

import (
	"os"
	"time"
)

type Config struct {
	Port         string
	StoreDriver  string // "json" or "sqlite"
	StoreDir     string
	SQLitePath   string
	AuthPassword string
	JWTSecret    string
	LogLevel     string
	ScanInterval time.Duration
	StaticDir    string
}

const (
	DefaultPort         = "3001"
	DefaultStoreDriver  = "json"
	DefaultStoreDir     = "./data"
	DefaultSQLitePath   = "./data/focusdo.db"
	DefaultLogLevel     = "info"
	DefaultScanInterval = 30 * time.Second
	DefaultStaticDir    = "./public"
)

// LoadConfig reads configuration from the environment. godotenv has
// already folded .env into the environment by the time this runs.
func LoadConfig() Config {
	scanInterval := DefaultScanInterval
	if raw := os.Getenv("SCAN_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			scanInterval = d
		}
	}

	return Config{
		Port:         coalesce(os.Getenv("PORT"), DefaultPort),
		StoreDriver:  coalesce(os.Getenv("STORE_DRIVER"), DefaultStoreDriver),
		StoreDir:     coalesce(os.Getenv("STORE_DIR"), DefaultStoreDir),
		SQLitePath:   coalesce(os.Getenv("SQLITE_PATH"), DefaultSQLitePath),
		AuthPassword: os.Getenv("AUTH_PASSWORD"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		LogLevel:     coalesce(os.Getenv("LOG_LEVEL"), DefaultLogLevel),
		ScanInterval: scanInterval,
		StaticDir:    coalesce(os.Getenv("STATIC_DIR"), DefaultStaticDir),
	}
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}
