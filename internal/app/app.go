// Package app wires the weather core to the dashboard and owns the user
// configuration. Exported methods may be called from any goroutine except
// the main loop itself; they hop onto the loop to touch shared state.
package app

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/i474232898/tray-weather/internal/applog"
	"github.com/i474232898/tray-weather/internal/common"
	"github.com/i474232898/tray-weather/internal/config"
	"github.com/i474232898/tray-weather/internal/dashboard"
	"github.com/i474232898/tray-weather/internal/jobs"
	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/scheduler"
	"github.com/i474232898/tray-weather/internal/theme"
	"github.com/i474232898/tray-weather/internal/weather"
)

var (
	ErrEmptyCity     = errors.New("city name is empty")
	ErrDuplicateCity = errors.New("city is already configured")
	ErrUnknownCity   = errors.New("city is not configured")
)

// Options configures an App.
type Options struct {
	ConfigPath    string
	Config        config.AppConfig
	Fetcher       weather.Fetcher
	Store         weather.Store
	Themes        *theme.Manager
	FetchInterval time.Duration
	CancelGrace   time.Duration
}

// App is the application object: configuration, tabs, jobs and the refresh
// timer.
type App struct {
	loop     *mainloop.Loop
	cfgPath  string
	store    weather.Store
	themes   *theme.Manager
	board    *dashboard.Board
	registry *jobs.Registry
	sched    *scheduler.Scheduler

	// owned by the loop
	cfg config.AppConfig
}

// New creates an App bound to loop. The loop must be running before Start.
func New(loop *mainloop.Loop, opts Options) *App {
	a := &App{
		loop:    loop,
		cfgPath: opts.ConfigPath,
		store:   opts.Store,
		themes:  opts.Themes,
		cfg:     opts.Config.Clone(),
	}
	a.board = dashboard.NewBoard(opts.Store, a.cfg.TimeFormat24h)
	a.registry = jobs.NewRegistry(loop, opts.Fetcher, a.board, opts.CancelGrace)
	a.sched = scheduler.New(loop, a.registry, citySource{a}, opts.FetchInterval)
	return a
}

// citySource exposes the configuration to the scheduler. Its methods run on
// the loop.
type citySource struct{ a *App }

func (s citySource) Cities() []string     { return append([]string(nil), s.a.cfg.Cities...) }
func (s citySource) Units() weather.Units { return s.a.cfg.Units }

// Start loads the theme, opens a tab and requests a fetch for every
// configured city, and starts the periodic refresh.
func (a *App) Start() error {
	a.applyTheme(a.cfg.Theme)

	if err := a.loop.Call(func() {
		for _, city := range a.cfg.Cities {
			a.board.AddTab(city)
		}
	}); err != nil {
		return err
	}
	log.Printf("INFO: app: started with %d cities (%s)", len(a.cfg.Cities), a.cfg.Units)

	a.sched.RefreshAll()
	return a.sched.Start()
}

func (a *App) applyTheme(name string) {
	if a.themes == nil {
		return
	}
	if err := a.themes.EnsureExamples(); err != nil {
		log.Printf("ERROR: Theme setup failed: %v", err)
	}
	if _, err := a.themes.Load(name); err != nil {
		log.Printf("ERROR: Theme load failed: %v", err)
	}
}

// save persists the configuration. Failures are logged only. Runs on the loop.
func (a *App) save() {
	if a.cfgPath == "" {
		return
	}
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		log.Printf("ERROR: Config save error: %v", err)
	}
}

// AddCity configures a new city, opens its tab and fetches it immediately.
func (a *App) AddCity(city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}

	var err error
	if callErr := a.loop.Call(func() {
		if common.ContainsFold(a.cfg.Cities, city) {
			err = fmt.Errorf("%w: %s", ErrDuplicateCity, city)
			return
		}
		a.cfg.Cities = append(a.cfg.Cities, city)
		a.save()
		a.board.AddTab(city)
		a.registry.RequestFetch(city, a.cfg.Units)
	}); callErr != nil {
		return callErr
	}
	return err
}

// RemoveCity cancels the city's fetch, closes its tab and forgets it.
func (a *App) RemoveCity(city string) error {
	var err error
	if callErr := a.loop.Call(func() {
		idx := indexOf(a.cfg.Cities, city)
		if idx < 0 && !a.board.HasTab(city) {
			err = fmt.Errorf("%w: %s", ErrUnknownCity, city)
			return
		}
		a.registry.Cancel(city)
		a.board.RemoveTab(city)
		if idx >= 0 {
			a.cfg.Cities = append(a.cfg.Cities[:idx], a.cfg.Cities[idx+1:]...)
			a.save()
		}
	}); callErr != nil {
		return callErr
	}
	return err
}

// MoveCity moves a city's tab. The new order is persisted on Quit.
func (a *App) MoveCity(city string, to int) error {
	var ok bool
	if err := a.loop.Call(func() { ok = a.board.MoveTab(city, to) }); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return nil
}

// Refresh requests a fetch for every configured city.
func (a *App) Refresh() error {
	if !a.sched.RefreshAll() {
		return mainloop.ErrStopped
	}
	return nil
}

// RefreshCity requests a fetch for one configured city.
func (a *App) RefreshCity(city string) error {
	var known bool
	if err := a.loop.Call(func() { known = indexOf(a.cfg.Cities, city) >= 0 }); err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	if !a.sched.RefreshCity(city) {
		return mainloop.ErrStopped
	}
	return nil
}

// SettingsUpdate holds the user-editable settings; nil fields are unchanged.
type SettingsUpdate struct {
	Units         *weather.Units
	Theme         *string
	TimeFormat24h *bool
	Debug         *bool
}

// UpdateSettings applies and saves settings, then refreshes every city.
// Fetches already in flight keep the units they started with.
func (a *App) UpdateSettings(u SettingsUpdate) (config.AppConfig, error) {
	if u.Theme != nil && a.themes != nil {
		if _, err := a.themes.Load(*u.Theme); err != nil {
			return config.AppConfig{}, err
		}
	}

	var out config.AppConfig
	if err := a.loop.Call(func() {
		if u.Units != nil {
			a.cfg.Units = *u.Units
		}
		if u.Theme != nil {
			a.cfg.Theme = *u.Theme
		}
		if u.TimeFormat24h != nil {
			a.cfg.TimeFormat24h = *u.TimeFormat24h
			a.board.SetClock24h(*u.TimeFormat24h)
		}
		if u.Debug != nil {
			a.cfg.Debug = *u.Debug
			applog.SetDebug(*u.Debug)
		}
		a.save()
		out = a.cfg.Clone()
	}); err != nil {
		return config.AppConfig{}, err
	}

	a.sched.RefreshAll()
	return out, nil
}

// Config returns a snapshot of the configuration.
func (a *App) Config() (config.AppConfig, error) {
	var out config.AppConfig
	err := a.loop.Call(func() { out = a.cfg.Clone() })
	return out, err
}

// Tabs renders every tab in display order.
func (a *App) Tabs() ([]dashboard.View, error) {
	var out []dashboard.View
	err := a.loop.Call(func() { out = a.board.Views() })
	return out, err
}

// Tab renders one city's tab.
func (a *App) Tab(city string) (dashboard.View, error) {
	var (
		v  dashboard.View
		ok bool
	)
	if err := a.loop.Call(func() { v, ok = a.board.View(city) }); err != nil {
		return dashboard.View{}, err
	}
	if !ok {
		return dashboard.View{}, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return v, nil
}

// Tray returns the tray icon state.
func (a *App) Tray() (dashboard.TrayState, error) {
	var out dashboard.TrayState
	err := a.loop.Call(func() { out = a.board.Tray() })
	return out, err
}

// InFlight lists the cities with a running fetch.
func (a *App) InFlight() ([]string, error) {
	var out []string
	err := a.loop.Call(func() { out = a.registry.Cities() })
	return out, err
}

// History returns stored records of a city, newest first.
func (a *App) History(city string, limit int) ([]weather.Record, error) {
	if a.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return a.store.History(city, limit)
}

// Themes lists available themes and the current one.
func (a *App) Themes() ([]string, string, error) {
	if a.themes == nil {
		return nil, "", nil
	}
	names, err := a.themes.List()
	if err != nil {
		return nil, "", err
	}
	current := ""
	if t := a.themes.Current(); t != nil {
		current = t.Name
	}
	return names, current, nil
}

// Quit stops the timer, persists the tab order as the city order, cancels
// every fetch and saves the configuration. The loop is stopped afterwards.
func (a *App) Quit() {
	a.sched.Stop()

	err := a.loop.Call(func() {
		ordered := a.board.Order()
		if len(ordered) > 0 {
			cities := make([]string, 0, len(ordered))
			for _, c := range ordered {
				if indexOf(a.cfg.Cities, c) >= 0 {
					cities = append(cities, c)
				}
			}
			a.cfg.Cities = cities
			log.Printf("INFO: Saved tab order: %v", cities)
		} else {
			applog.Debugf("No city tabs found to save")
		}

		a.registry.CancelAll()
		a.save()
	})
	if err != nil {
		log.Printf("ERROR: app: quit: %v", err)
	}
	a.loop.Stop()
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
