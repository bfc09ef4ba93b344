package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned from suspension points after a stop request.
var ErrStopped = errors.New("stop requested")

// Control coordinates stop and pause requests across the run loop. Stop is
// permanent; pause blocks the pipeline at its next suspension point until
// resumed.
type Control struct {
	mu     sync.Mutex
	cond   *sync.Cond
	stop   bool
	paused bool
}

// NewControl builds a Control in the running state.
func NewControl() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// RequestStop signals the pipeline to finish its current suspension point
// and exit. A paused pipeline is woken so it can observe the stop.
func (c *Control) RequestStop() {
	c.mu.Lock()
	c.stop = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// StopRequested reports whether a stop has been requested.
func (c *Control) StopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// Pause suspends the pipeline at its next suspension point.
func (c *Control) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume releases a paused pipeline.
func (c *Control) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

// TogglePause flips the pause state and reports whether the pipeline is now
// paused.
func (c *Control) TogglePause() bool {
	c.mu.Lock()
	c.paused = !c.paused
	paused := c.paused
	c.mu.Unlock()
	if !paused {
		c.cond.Broadcast()
	}
	return paused
}

// Paused reports whether a pause is in effect.
func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Checkpoint blocks while paused and returns ErrStopped once a stop has
// been requested. Call it between units of work.
func (c *Control) Checkpoint() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.paused && !c.stop {
		c.cond.Wait()
	}
	if c.stop {
		return ErrStopped
	}
	return nil
}

// Sleep waits for the given duration, honoring pause, stop, and context
// cancellation. A pause taken during the sleep extends it until resumed.
func (c *Control) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return c.Checkpoint()
		case <-ticker.C:
			if c.StopRequested() {
				return ErrStopped
			}
		}
	}
}
