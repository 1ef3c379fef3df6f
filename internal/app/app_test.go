package app

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/tray-weather/internal/config"
	"github.com/i474232898/tray-weather/internal/dashboard"
	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/store"
	"github.com/i474232898/tray-weather/internal/theme"
	"github.com/i474232898/tray-weather/internal/weather"
)

func f64(v float64) *float64 { return &v }

// fakeFetcher answers immediately unless a city is listed in block, in which
// case it waits for the context or the release channel.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	units   []weather.Units
	block   map[string]chan struct{}
	missing map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, city string, units weather.Units) (weather.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, city)
	f.units = append(f.units, units)
	release := f.block[city]
	missing := f.missing[city]
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return weather.Record{}, weather.ErrNetwork(city, ctx.Err())
		}
	}
	if missing {
		return weather.Record{}, weather.ErrCityNotFound(city)
	}
	return weather.Record{
		DisplayName: city + ", XX",
		Temperature: f64(20),
		Description: "clear sky",
		IconGlyph:   weather.GlyphSun,
		Units:       units,
		FetchedAt:   time.Now(),
	}, nil
}

func (f *fakeFetcher) unitsSeen() []weather.Units {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]weather.Units(nil), f.units...)
}

type harness struct {
	app     *App
	fetcher *fakeFetcher
	store   *store.MemoryStore
	cfgPath string
}

func newHarness(t *testing.T, cities ...string) *harness {
	t.Helper()
	dir := t.TempDir()

	loop := mainloop.New(16)
	go loop.Run()
	t.Cleanup(loop.Stop)

	cfg := config.Default()
	cfg.Cities = cities
	cfg.Units = weather.UnitsMetric
	cfg.TimeFormat24h = true

	h := &harness{
		fetcher: &fakeFetcher{block: map[string]chan struct{}{}, missing: map[string]bool{}},
		store:   store.NewMemoryStore(10),
		cfgPath: filepath.Join(dir, "config.json"),
	}
	h.app = New(loop, Options{
		ConfigPath:    h.cfgPath,
		Config:        cfg,
		Fetcher:       h.fetcher,
		Store:         h.store,
		Themes:        theme.NewManager(filepath.Join(dir, "themes")),
		FetchInterval: time.Hour,
		CancelGrace:   50 * time.Millisecond,
	})
	return h
}

func (h *harness) waitTabs(t *testing.T, cond func([]dashboard.View) bool) []dashboard.View {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		views, err := h.app.Tabs()
		if err != nil {
			t.Fatalf("tabs: %v", err)
		}
		if cond(views) {
			return views
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met, last views %+v", views)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func allLoaded(views []dashboard.View) bool {
	for _, v := range views {
		if v.Record == nil && v.Message == "" {
			return false
		}
	}
	return true
}

func TestStartFetchesEveryCity(t *testing.T) {
	h := newHarness(t, "Paris", "Oslo")
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	views := h.waitTabs(t, allLoaded)
	if len(views) != 2 || views[0].Title != "Paris, XX" || views[1].Title != "Oslo, XX" {
		t.Fatalf("unexpected views %+v", views)
	}
	if views[0].Temperature != "20.0°C" {
		t.Fatalf("unexpected temperature %q", views[0].Temperature)
	}

	tray, _ := h.app.Tray()
	if tray.Icon != weather.GlyphSun || tray.Tooltip != "Paris, XX • Clear sky • 20.0°" {
		t.Fatalf("unexpected tray %+v", tray)
	}

	names, current, err := h.app.Themes()
	if err != nil || len(names) == 0 || current != "dark" {
		t.Fatalf("unexpected themes %v %q %v", names, current, err)
	}
}

func TestUnknownCityShowsMessage(t *testing.T) {
	h := newHarness(t, "Atlantis")
	h.fetcher.missing["Atlantis"] = true
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	views := h.waitTabs(t, allLoaded)
	if views[0].Message != "City not found: Atlantis" || views[0].Record != nil {
		t.Fatalf("unexpected view %+v", views[0])
	}
}

func TestRemoveCityDiscardsInFlightResult(t *testing.T) {
	h := newHarness(t, "Paris", "Oslo")
	release := make(chan struct{})
	h.fetcher.block["Oslo"] = release
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitTabs(t, func(v []dashboard.View) bool { return len(v) == 2 && v[0].Record != nil })

	if err := h.app.RemoveCity("Oslo"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	close(release)

	time.Sleep(50 * time.Millisecond)
	views, _ := h.app.Tabs()
	if len(views) != 1 || views[0].City != "Paris" {
		t.Fatalf("expected only Paris, got %+v", views)
	}
	if _, err := h.store.Latest("Oslo"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no stored record for Oslo, got %v", err)
	}
	if got := config.LoadFile(h.cfgPath).Cities; !reflect.DeepEqual(got, []string{"Paris"}) {
		t.Fatalf("unexpected saved cities %v", got)
	}

	if err := h.app.RemoveCity("Oslo"); !errors.Is(err, ErrUnknownCity) {
		t.Fatalf("expected ErrUnknownCity, got %v", err)
	}
}

func TestAddCity(t *testing.T) {
	h := newHarness(t, "Paris")
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := h.app.AddCity("  "); !errors.Is(err, ErrEmptyCity) {
		t.Fatalf("expected ErrEmptyCity, got %v", err)
	}
	if err := h.app.AddCity("paris"); !errors.Is(err, ErrDuplicateCity) {
		t.Fatalf("expected ErrDuplicateCity, got %v", err)
	}
	if err := h.app.AddCity(" Lima "); err != nil {
		t.Fatalf("add: %v", err)
	}

	views := h.waitTabs(t, func(v []dashboard.View) bool { return len(v) == 2 && allLoaded(v) })
	if views[1].City != "Lima" || views[1].Title != "Lima, XX" {
		t.Fatalf("unexpected new tab %+v", views[1])
	}
	if got := config.LoadFile(h.cfgPath).Cities; !reflect.DeepEqual(got, []string{"Paris", "Lima"}) {
		t.Fatalf("unexpected saved cities %v", got)
	}
}

func TestUpdateSettingsRefetchesWithNewUnits(t *testing.T) {
	h := newHarness(t, "Paris")
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitTabs(t, allLoaded)

	imperial := weather.UnitsImperial
	clock := false
	cfg, err := h.app.UpdateSettings(SettingsUpdate{Units: &imperial, TimeFormat24h: &clock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg.Units != weather.UnitsImperial || cfg.TimeFormat24h {
		t.Fatalf("unexpected config %+v", cfg)
	}

	views := h.waitTabs(t, func(v []dashboard.View) bool {
		return v[0].Record != nil && v[0].Record.Units == weather.UnitsImperial
	})
	if views[0].Temperature != "20.0°F" {
		t.Fatalf("unexpected temperature %q", views[0].Temperature)
	}
	seen := h.fetcher.unitsSeen()
	if seen[len(seen)-1] != weather.UnitsImperial {
		t.Fatalf("expected last fetch in imperial, got %v", seen)
	}

	saved := config.LoadFile(h.cfgPath)
	if saved.Units != weather.UnitsImperial || saved.TimeFormat24h {
		t.Fatalf("settings not persisted: %+v", saved)
	}

	bad := "missing"
	if _, err := h.app.UpdateSettings(SettingsUpdate{Theme: &bad}); !errors.Is(err, theme.ErrNotFound) {
		t.Fatalf("expected theme.ErrNotFound, got %v", err)
	}
}

func TestQuitSavesTabOrder(t *testing.T) {
	h := newHarness(t, "Paris", "Oslo", "Lima")
	release := make(chan struct{})
	defer close(release)
	h.fetcher.block["Lima"] = release
	if err := h.app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := h.app.MoveCity("Lima", 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := h.app.MoveCity("Nowhere", 0); !errors.Is(err, ErrUnknownCity) {
		t.Fatalf("expected ErrUnknownCity, got %v", err)
	}

	start := time.Now()
	h.app.Quit()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("quit took %s", elapsed)
	}

	if got := config.LoadFile(h.cfgPath).Cities; !reflect.DeepEqual(got, []string{"Lima", "Paris", "Oslo"}) {
		t.Fatalf("unexpected saved order %v", got)
	}
	if _, err := h.app.Tabs(); !errors.Is(err, mainloop.ErrStopped) {
		t.Fatalf("expected stopped loop, got %v", err)
	}
}
