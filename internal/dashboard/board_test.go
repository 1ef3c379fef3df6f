package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/tray-weather/internal/store"
	"github.com/i474232898/tray-weather/internal/weather"
)

func f64(v float64) *float64 { return &v }

func parisRecord() weather.Record {
	return weather.Record{
		DisplayName:      "Paris, FR",
		Temperature:      f64(21.44),
		FeelsLike:        f64(20.9),
		Humidity:         f64(55),
		WindSpeed:        f64(11.2),
		High:             f64(24.1),
		Low:              f64(13.7),
		Description:      "clear sky",
		IconGlyph:        weather.GlyphSun,
		UTCOffsetSeconds: 7200,
		Units:            weather.UnitsMetric,
		FetchedAt:        time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newTestBoard(st weather.Store, clock24h bool) *Board {
	b := NewBoard(st, clock24h)
	b.now = func() time.Time { return time.Date(2026, 6, 1, 13, 5, 0, 0, time.UTC) }
	return b
}

func TestAddRemoveAndOrder(t *testing.T) {
	b := newTestBoard(nil, true)
	if !b.AddTab("Paris") || !b.AddTab("Oslo") || !b.AddTab("Lima") {
		t.Fatal("expected tabs to be added")
	}
	if b.AddTab("Paris") {
		t.Fatal("expected duplicate tab to be rejected")
	}
	if !reflect.DeepEqual(b.Order(), []string{"Paris", "Oslo", "Lima"}) {
		t.Fatalf("unexpected order %v", b.Order())
	}

	b.MoveTab("Lima", 0)
	if !reflect.DeepEqual(b.Order(), []string{"Lima", "Paris", "Oslo"}) {
		t.Fatalf("unexpected order after move %v", b.Order())
	}
	b.MoveTab("Lima", 99)
	if !reflect.DeepEqual(b.Order(), []string{"Paris", "Oslo", "Lima"}) {
		t.Fatalf("unexpected order after clamped move %v", b.Order())
	}

	if !b.RemoveTab("Oslo") || b.RemoveTab("Oslo") {
		t.Fatal("expected single removal")
	}
	if !reflect.DeepEqual(b.Order(), []string{"Paris", "Lima"}) {
		t.Fatalf("unexpected order after removal %v", b.Order())
	}
}

func TestPlaceholdersBeforeFirstResult(t *testing.T) {
	b := newTestBoard(nil, true)
	b.AddTab("Paris")

	v, ok := b.View("Paris")
	if !ok {
		t.Fatal("expected view")
	}
	if v.Title != "Paris" || v.Temperature != "-°" || v.Humidity != "-" || v.Icon != weather.GlyphUnknown {
		t.Fatalf("unexpected placeholder view %+v", v)
	}
}

func TestUpdateRendersRecord(t *testing.T) {
	b := newTestBoard(nil, true)
	b.AddTab("paris")
	b.OnCityUpdated("paris", parisRecord())

	v, _ := b.View("paris")
	want := View{
		City:        "paris",
		Title:       "Paris, FR",
		Icon:        weather.GlyphSun,
		Temperature: "21.4°C",
		Description: "Clear sky",
		FeelsLike:   "20.9°",
		High:        "24.1°",
		Low:         "13.7°",
		Humidity:    "55%",
		Wind:        "11.2 km/h",
		LocalTime:   "15:05",
	}
	v.UpdatedAt = nil
	v.Record = nil
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("unexpected view\n got %+v\nwant %+v", v, want)
	}
}

func TestTwelveHourClock(t *testing.T) {
	b := newTestBoard(nil, false)
	b.AddTab("Paris")
	b.OnCityUpdated("Paris", parisRecord())

	v, _ := b.View("Paris")
	if v.LocalTime != "03:05 PM" {
		t.Fatalf("unexpected clock %q", v.LocalTime)
	}
	b.SetClock24h(true)
	v, _ = b.View("Paris")
	if v.LocalTime != "15:05" {
		t.Fatalf("unexpected clock %q", v.LocalTime)
	}
}

func TestFailureKeepsLastRecord(t *testing.T) {
	b := newTestBoard(nil, true)
	b.AddTab("Paris")
	b.OnCityFailed("Paris", "Weather API error 500")

	v, _ := b.View("Paris")
	if v.Message != "Weather API error 500" || v.Description != "Weather API error 500" {
		t.Fatalf("unexpected failure view %+v", v)
	}

	b.OnCityUpdated("Paris", parisRecord())
	b.OnCityFailed("Paris", "connection reset")
	v, _ = b.View("Paris")
	if v.Temperature != "21.4°C" || v.Message != "connection reset" {
		t.Fatalf("expected last record with message, got %+v", v)
	}

	b.OnCityUpdated("Paris", parisRecord())
	v, _ = b.View("Paris")
	if v.Message != "" {
		t.Fatalf("expected success to clear message, got %q", v.Message)
	}
}

func TestResultsForRemovedCityAreIgnored(t *testing.T) {
	st := store.NewMemoryStore(10)
	b := newTestBoard(st, true)

	b.OnCityUpdated("Ghost", parisRecord())
	b.OnCityFailed("Ghost", "City not found: Ghost")

	if b.HasTab("Ghost") || len(b.Views()) != 0 {
		t.Fatal("expected no tab to be created")
	}
	if _, err := st.Latest("Ghost"); err == nil {
		t.Fatal("expected nothing saved for a city without a tab")
	}
}

func TestStorePrimesNewTabs(t *testing.T) {
	st := store.NewMemoryStore(10)
	st.Save("Paris", parisRecord())

	b := newTestBoard(st, true)
	b.AddTab("Paris")
	tab, _ := b.Tab("Paris")
	if !tab.Primed || tab.Title != "Paris, FR" || tab.Record == nil {
		t.Fatalf("expected primed tab, got %+v", tab)
	}

	b.OnCityFailed("Paris", "Geocode error 502")
	v, _ := b.View("Paris")
	if v.Temperature != "21.4°C" || !v.Primed {
		t.Fatalf("expected last-known record to remain, got %+v", v)
	}

	b.OnCityUpdated("Paris", parisRecord())
	tab, _ = b.Tab("Paris")
	if tab.Primed {
		t.Fatal("expected fresh record to clear primed flag")
	}
	hist, _ := st.History("Paris", 0)
	if len(hist) != 2 {
		t.Fatalf("expected record to be saved, got %d", len(hist))
	}

	b.RemoveTab("Paris")
	if _, err := st.Latest("Paris"); err == nil {
		t.Fatal("expected history to be dropped with the tab")
	}
}

func TestTray(t *testing.T) {
	b := newTestBoard(nil, true)
	if got := b.Tray(); got.Tooltip != "TrayWeatherApp" || got.Icon != "☀️" {
		t.Fatalf("unexpected empty tray %+v", got)
	}

	b.AddTab("Paris")
	b.AddTab("Oslo")
	if got := b.Tray(); got.Tooltip != "Paris • - • -°" {
		t.Fatalf("unexpected pending tray %+v", got)
	}

	b.OnCityUpdated("Oslo", weather.Record{DisplayName: "Oslo, NO", Description: "Snow", IconGlyph: weather.GlyphSnowflake})
	b.OnCityUpdated("Paris", parisRecord())
	got := b.Tray()
	if got.Icon != weather.GlyphSun || got.Tooltip != "Paris, FR • Clear sky • 21.4°" {
		t.Fatalf("unexpected tray %+v", got)
	}
}
