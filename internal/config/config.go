package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings are process-level options read from the environment.
type Settings struct {
	// ConfigPath is the persisted AppConfig document.
	ConfigPath string
	LogPath    string
	ThemesDir  string

	// StorePath selects a SQLite record store; empty keeps records in memory.
	StorePath       string
	StoreMaxHistory int // max number of records per city (0 = unlimited)

	// FetchInterval controls how often every configured city is refreshed.
	FetchInterval time.Duration
	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration
	// CancelGrace bounds how long cancelling a fetch waits for it to stop.
	CancelGrace time.Duration

	Host string
	Port string
}

// Addr is the control API listen address.
func (s *Settings) Addr() string {
	return s.Host + ":" + s.Port
}

// Load reads settings from the environment with sensible defaults.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	home := appDir()
	cfg := &Settings{
		ConfigPath:      getenvDefault("TRAYWEATHER_CONFIG", filepath.Join(home, "trayweather.json")),
		LogPath:         getenvDefault("TRAYWEATHER_LOG", filepath.Join(home, "trayweather.log")),
		ThemesDir:       getenvDefault("THEMES_DIR", filepath.Join(home, "themes")),
		StorePath:       os.Getenv("STORE_PATH"),
		StoreMaxHistory: getenvInt("STORE_MAX_HISTORY", 96), // roughly 24h at 15-minute intervals
		Host:            getenvDefault("LISTEN_HOST", "127.0.0.1"),
		Port:            getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CancelGrace, err = getenvDuration("CANCEL_GRACE", "150ms"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func appDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".trayweather")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
