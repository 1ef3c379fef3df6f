// Package mainloop provides the single goroutine that owns presentation state.
// Background work never touches that state directly; it posts closures here.
package mainloop

import (
	"errors"
	"sync"
)

// ErrStopped is returned when work is submitted to a loop that has stopped.
var ErrStopped = errors.New("mainloop: stopped")

// Loop runs submitted functions one at a time, in submission order, on the
// goroutine that called Run.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a loop whose queue holds up to buffer pending tasks before
// Post blocks.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until Stop is called. It must be called exactly once.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Post queues fn without waiting for it to run. It reports false if the loop
// has stopped, in which case fn is dropped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Call runs fn on the loop and waits for it to return. It must not be called
// from the loop goroutine itself.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// Stopped before fn was reached.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stop makes Run return after the task in progress. Pending tasks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
