// Package dashboard is the presentation layer: one tab per configured city,
// rendered from the latest record delivered for it.
//
// A Board is owned by the main loop. None of its methods are safe to call
// from any other goroutine.
package dashboard

import (
	"errors"
	"log"
	"time"

	"github.com/i474232898/tray-weather/internal/applog"
	"github.com/i474232898/tray-weather/internal/store"
	"github.com/i474232898/tray-weather/internal/weather"
)

// Tab is the presentation state of one city.
type Tab struct {
	City      string
	Title     string
	Record    *weather.Record
	Message   string // last failure; cleared by the next success
	UpdatedAt time.Time
	// Primed is set while the record was restored from the store and no
	// fetch has completed since.
	Primed bool
}

// Board holds the tabs in display order.
type Board struct {
	tabs     map[string]*Tab
	order    []string
	store    weather.Store
	clock24h bool
	now      func() time.Time
}

// NewBoard creates an empty board. Delivered records are saved to st, and new
// tabs start from the last record st holds for their city.
func NewBoard(st weather.Store, clock24h bool) *Board {
	return &Board{
		tabs:     make(map[string]*Tab),
		store:    st,
		clock24h: clock24h,
		now:      time.Now,
	}
}

// AddTab appends a tab for city. It reports false if the tab already exists.
func (b *Board) AddTab(city string) bool {
	if _, ok := b.tabs[city]; ok {
		return false
	}
	tab := &Tab{City: city, Title: city}
	if b.store != nil {
		rec, err := b.store.Latest(city)
		switch {
		case err == nil:
			tab.Record = &rec
			tab.Title = rec.DisplayName
			tab.UpdatedAt = rec.FetchedAt
			tab.Primed = true
		case !errors.Is(err, store.ErrNotFound):
			log.Printf("ERROR: dashboard: load last record for %q: %v", city, err)
		}
	}
	b.tabs[city] = tab
	b.order = append(b.order, city)
	return true
}

// RemoveTab drops the tab for city and its stored history.
func (b *Board) RemoveTab(city string) bool {
	if _, ok := b.tabs[city]; !ok {
		return false
	}
	delete(b.tabs, city)
	for i, c := range b.order {
		if c == city {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.store != nil {
		if err := b.store.Delete(city); err != nil {
			log.Printf("ERROR: dashboard: delete history for %q: %v", city, err)
		}
	}
	return true
}

// MoveTab moves city to position to, clamped to the valid range.
func (b *Board) MoveTab(city string, to int) bool {
	from := -1
	for i, c := range b.order {
		if c == city {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	to = max(0, min(to, len(b.order)-1))
	b.order = append(b.order[:from], b.order[from+1:]...)
	b.order = append(b.order[:to], append([]string{city}, b.order[to:]...)...)
	return true
}

// HasTab reports whether city has a tab.
func (b *Board) HasTab(city string) bool {
	_, ok := b.tabs[city]
	return ok
}

// Order returns the cities in tab order.
func (b *Board) Order() []string {
	return append([]string(nil), b.order...)
}

// Tab returns a copy of the tab for city.
func (b *Board) Tab(city string) (Tab, bool) {
	t, ok := b.tabs[city]
	if !ok {
		return Tab{}, false
	}
	return *t, true
}

func (b *Board) SetClock24h(on bool) {
	b.clock24h = on
}

// OnCityUpdated shows a freshly fetched record. Results for cities without a
// tab are ignored.
func (b *Board) OnCityUpdated(city string, rec weather.Record) {
	tab, ok := b.tabs[city]
	if !ok {
		applog.Debugf("dashboard: ignoring update for removed city %q", city)
		return
	}
	tab.Record = &rec
	tab.Title = rec.DisplayName
	if tab.Title == "" {
		tab.Title = city
	}
	tab.Message = ""
	tab.Primed = false
	tab.UpdatedAt = b.now().UTC()

	if b.store != nil {
		if err := b.store.Save(city, rec); err != nil {
			log.Printf("ERROR: dashboard: save record for %q: %v", city, err)
		}
	}
}

// OnCityFailed shows a failure message. The last record, if any, stays.
func (b *Board) OnCityFailed(city string, message string) {
	tab, ok := b.tabs[city]
	if !ok {
		applog.Debugf("dashboard: ignoring failure for removed city %q", city)
		return
	}
	tab.Message = message
	tab.UpdatedAt = b.now().UTC()
}
