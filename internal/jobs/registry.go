// Package jobs tracks in-flight weather fetches, one per city.
//
// All Registry methods must be called on the main loop goroutine. Fetches run
// on their own goroutines and hand their result back to the loop; only the
// loop mutates the job map.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/tray-weather/internal/applog"
	"github.com/i474232898/tray-weather/internal/mainloop"
	"github.com/i474232898/tray-weather/internal/weather"
)

// DefaultCancelGrace bounds how long a cancellation waits for a fetch to stop.
const DefaultCancelGrace = 150 * time.Millisecond

// Presenter receives fetch outcomes on the main loop. Both methods must be a
// no-op when city no longer has a tab.
type Presenter interface {
	OnCityUpdated(city string, rec weather.Record)
	OnCityFailed(city string, message string)
}

// Job is one in-flight fetch.
type Job struct {
	ID        uuid.UUID
	City      string
	Units     weather.Units // snapshot taken when the job was created
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Registry enforces at most one in-flight fetch per city.
type Registry struct {
	loop      *mainloop.Loop
	fetcher   weather.Fetcher
	presenter Presenter
	grace     time.Duration

	jobs map[string]*Job
}

// NewRegistry creates a Registry. A grace <= 0 uses DefaultCancelGrace.
func NewRegistry(loop *mainloop.Loop, fetcher weather.Fetcher, presenter Presenter, grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	return &Registry{
		loop:      loop,
		fetcher:   fetcher,
		presenter: presenter,
		grace:     grace,
		jobs:      make(map[string]*Job),
	}
}

// RequestFetch starts a fetch for city unless one is already in flight.
// It reports whether a new job was started.
func (r *Registry) RequestFetch(city string, units weather.Units) bool {
	if _, ok := r.jobs[city]; ok {
		applog.Debugf("jobs: fetch for %q already in flight", city)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.New(),
		City:      city,
		Units:     units,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.jobs[city] = job

	applog.Debugf("jobs: starting fetch %s for %q (%s)", job.ID, city, units)
	go r.run(ctx, job)
	return true
}

func (r *Registry) run(ctx context.Context, job *Job) {
	var (
		rec weather.Record
		err error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("fetch panicked: %v", p)
			}
		}()
		rec, err = r.fetcher.Fetch(ctx, job.City, job.Units)
	}()
	close(job.done)

	if !r.loop.Post(func() { r.complete(job, rec, err) }) {
		applog.Debugf("jobs: loop stopped; dropping result of %s for %q", job.ID, job.City)
	}
}

// complete removes the job and delivers its outcome. A job that was cancelled
// or replaced is no longer the registered one for its city, so its result is
// discarded.
func (r *Registry) complete(job *Job, rec weather.Record, err error) {
	cur, ok := r.jobs[job.City]
	if !ok || cur.ID != job.ID {
		applog.Debugf("jobs: discarding stale result of %s for %q", job.ID, job.City)
		return
	}
	delete(r.jobs, job.City)
	job.cancel()

	if err != nil {
		log.Printf("ERROR: jobs: fetch for %q failed after %s: %v", job.City, time.Since(job.StartedAt).Round(time.Millisecond), err)
		r.presenter.OnCityFailed(job.City, Message(err))
		return
	}
	applog.Debugf("jobs: fetch for %q done in %s", job.City, time.Since(job.StartedAt).Round(time.Millisecond))
	r.presenter.OnCityUpdated(job.City, rec)
}

// Cancel stops the fetch for city, if any, and removes it from the registry.
// It waits at most the grace period for the fetch goroutine to finish; a
// result arriving later is discarded.
func (r *Registry) Cancel(city string) bool {
	job, ok := r.jobs[city]
	if !ok {
		return false
	}
	delete(r.jobs, city)
	job.cancel()
	r.wait([]*Job{job})
	return true
}

// CancelAll cancels every in-flight fetch. The grace period is shared by all
// jobs, not applied to each in turn.
func (r *Registry) CancelAll() {
	if len(r.jobs) == 0 {
		return
	}
	pending := make([]*Job, 0, len(r.jobs))
	for city, job := range r.jobs {
		delete(r.jobs, city)
		job.cancel()
		pending = append(pending, job)
	}
	r.wait(pending)
}

func (r *Registry) wait(pending []*Job) {
	timer := time.NewTimer(r.grace)
	defer timer.Stop()

	for _, job := range pending {
		select {
		case <-job.done:
		case <-timer.C:
			log.Printf("INFO: jobs: %d fetch(es) still running after %s; releasing", countRunning(pending), r.grace)
			return
		}
	}
}

func countRunning(pending []*Job) int {
	n := 0
	for _, job := range pending {
		select {
		case <-job.done:
		default:
			n++
		}
	}
	return n
}

// InFlight reports whether city has a registered job.
func (r *Registry) InFlight(city string) bool {
	_, ok := r.jobs[city]
	return ok
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	return len(r.jobs)
}

// Cities returns the cities with a registered job, sorted.
func (r *Registry) Cities() []string {
	out := make([]string, 0, len(r.jobs))
	for city := range r.jobs {
		out = append(out, city)
	}
	sort.Strings(out)
	return out
}

// Message converts a fetch failure into the short text shown to the user.
// Context wrapped around a FetchError is dropped so the tab shows only the
// fetch error itself.
func Message(err error) string {
	var fe *weather.FetchError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return err.Error()
}
