package sim

import (
	"context"
	"sync"
	"time"
)

// Runner drives registered tick callbacks on a real-time ticker.
//
// Callbacks run sequentially on the Run goroutine in registration order, so
// a content reload registered before the world tick is never observed
// half-applied.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type Runner struct {
	interval time.Duration
	mu       sync.Mutex
	names    []string
	ticks    map[string]func(dt float64)
}

// NewRunner returns a runner that fires every interval.
//
// Precondition: interval must be > 0.
func NewRunner(interval time.Duration) *Runner {
	if interval <= 0 {
		panic("sim.NewRunner: interval must be > 0")
	}
	return &Runner{
		interval: interval,
		ticks:    make(map[string]func(dt float64)),
	}
}

// Register adds a callback under name. Replacing an existing name keeps its
// position in the order.
func (r *Runner) Register(name string, fn func(dt float64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ticks[name]; !ok {
		r.names = append(r.names, name)
	}
	r.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (r *Runner) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ticks[name]; !ok {
		return
	}
	delete(r.ticks, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Run fires the callbacks until ctx is cancelled, passing the elapsed wall
// time since the previous tick in seconds.
//
// Postcondition: returns ctx.Err() once ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.mu.Lock()
			callbacks := make([]func(float64), 0, len(r.names))
			for _, n := range r.names {
				callbacks = append(callbacks, r.ticks[n])
			}
			r.mu.Unlock()
			for _, fn := range callbacks {
				fn(dt)
			}
		}
	}
}

// Start runs Run on a new goroutine.
func (r *Runner) Start(ctx context.Context) {
	go r.Run(ctx) //nolint:errcheck
}

// RunFixed advances fn ticks times by a constant step, without wall-clock
// pacing, stopping early when ctx is cancelled or stop returns true.
//
// Postcondition: Returns the number of ticks executed.
func RunFixed(ctx context.Context, ticks int, step float64, fn func(dt float64), stop func() bool) int {
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil || (stop != nil && stop()) {
			return i
		}
		fn(step)
	}
	return ticks
}
