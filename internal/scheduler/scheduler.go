package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/weather"
)

// DefaultInterval is how often every configured city is refreshed.
const DefaultInterval = 15 * time.Minute

// Requester starts a fetch for a city. Deduplication is its job, not the
// scheduler's.
type Requester interface {
	RequestFetch(city string, units weather.Units) bool
}

// CitySource supplies the configured cities and unit system. Both methods are
// called on the main loop.
type CitySource interface {
	Cities() []string
	Units() weather.Units
}

// Scheduler periodically requests a fetch for every configured city. All
// requests are posted to the main loop, which owns the registry.
type Scheduler struct {
	scheduler *gocron.Scheduler
	loop      *mainloop.Loop
	registry  Requester
	source    CitySource
	interval  time.Duration
}

// New creates a new Scheduler.
func New(loop *mainloop.Loop, registry Requester, source CitySource, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		loop:      loop,
		registry:  registry,
		source:    source,
		interval:  interval,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
// The first tick fires one interval from now; startup fetches are requested
// separately through RefreshAll.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		log.Println("INFO: scheduler: running weather refresh")
		s.RefreshAll()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RefreshAll requests a fetch for every configured city. It reports false if
// the main loop has stopped.
func (s *Scheduler) RefreshAll() bool {
	return s.loop.Post(func() {
		units := s.source.Units()
		for _, city := range s.source.Cities() {
			s.registry.RequestFetch(city, units)
		}
	})
}

// RefreshCity requests a fetch for one city.
func (s *Scheduler) RefreshCity(city string) bool {
	return s.loop.Post(func() {
		s.registry.RequestFetch(city, s.source.Units())
	})
}
