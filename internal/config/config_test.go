package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/tray-weather/internal/weather"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileInvalidUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	os.WriteFile(path, []byte(`{"cities": ["Paris"`), 0o644)

	cfg := LoadFile(path)
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	os.WriteFile(path, []byte(`{"cities": ["Paris", "Oslo"], "units": "metric", "time_format_24h": true}`), 0o644)

	cfg := LoadFile(path)
	if !reflect.DeepEqual(cfg.Cities, []string{"Paris", "Oslo"}) {
		t.Fatalf("unexpected cities %v", cfg.Cities)
	}
	if cfg.Units != weather.UnitsMetric || !cfg.TimeFormat24h {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.Theme != "dark" || cfg.WindowSize != [2]int{760, 440} {
		t.Fatalf("expected defaults for missing keys, got %+v", cfg)
	}
}

func TestLoadFileNormalizesUnits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	os.WriteFile(path, []byte(`{"units": "kelvin", "cities": null}`), 0o644)

	cfg := LoadFile(path)
	if cfg.Units != weather.UnitsImperial {
		t.Fatalf("expected imperial, got %q", cfg.Units)
	}
	if !reflect.DeepEqual(cfg.Cities, []string{"New York"}) {
		t.Fatalf("expected default cities, got %v", cfg.Cities)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	want := Default()
	want.Cities = []string{"Lima", "Quito"}
	want.Units = weather.UnitsMetric
	want.WindowPos = [2]int{10, 20}
	want.Debug = true
	want.Theme = "solarized"

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := LoadFile(path); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestCloneDoesNotShareCities(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.Cities[0] = "Paris"
	if a.Cities[0] != "New York" {
		t.Fatal("clone shares the cities slice")
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "5m")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("STORE_MAX_HISTORY", "12")
	t.Setenv("PORT", "9999")
	t.Setenv("TRAYWEATHER_CONFIG", "/tmp/x.json")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FetchInterval != 5*time.Minute || s.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected durations %+v", s)
	}
	if s.CancelGrace != 150*time.Millisecond {
		t.Fatalf("unexpected default grace %s", s.CancelGrace)
	}
	if s.StoreMaxHistory != 12 || s.ConfigPath != "/tmp/x.json" || s.Addr() != "127.0.0.1:9999" {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestLoadSettingsRejectsBadDuration(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid FETCH_INTERVAL")
	}
}
