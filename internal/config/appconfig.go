package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/i474232898/tray-weather/internal/weather"
)

// AppConfig is the persisted user configuration document.
type AppConfig struct {
	Cities        []string      `json:"cities"`
	Units         weather.Units `json:"units"`
	WindowPos     [2]int        `json:"window_pos"`
	WindowSize    [2]int        `json:"window_size"`
	Debug         bool          `json:"debug"`
	TimeFormat24h bool          `json:"time_format_24h"`
	Theme         string        `json:"theme"`
}

// Default returns the configuration used when nothing has been saved yet.
func Default() AppConfig {
	return AppConfig{
		Cities:        []string{"New York"},
		Units:         weather.UnitsImperial,
		WindowPos:     [2]int{100, 100},
		WindowSize:    [2]int{760, 440},
		Debug:         false,
		TimeFormat24h: false,
		Theme:         "dark",
	}
}

// Clone returns a copy that shares no slices with c.
func (c AppConfig) Clone() AppConfig {
	c.Cities = append([]string(nil), c.Cities...)
	return c
}

// LoadFile reads the document at path over the defaults. Keys missing from
// the file keep their default. A missing, unreadable or invalid file yields
// the defaults; the error is logged and never returned.
func LoadFile(path string) AppConfig {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("ERROR: Config load failed: %v", err)
		}
		return cfg
	}

	// Decode into a copy so a partially decoded document cannot leak through.
	overlay := cfg.Clone()
	if err := json.Unmarshal(data, &overlay); err != nil {
		log.Printf("ERROR: Config load failed: %v", err)
		return cfg
	}
	if overlay.Cities == nil {
		overlay.Cities = cfg.Cities
	}
	overlay.Units = weather.ParseUnits(string(overlay.Units))
	return overlay
}

// Save writes cfg to path as indented JSON, creating the parent directory.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
