package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter counts evaluated candidates across all workers of a run. It is
// created with the Pipeline, started when Run begins and stopped when Run
// returns, after which Elapsed no longer grows.
type Counter struct {
	n atomic.Uint64

	mu      sync.Mutex
	started time.Time
	stopped time.Time
}

// Add adds delta to the count.
func (c *Counter) Add(delta uint64) { c.n.Add(delta) }

// Load returns the current count.
func (c *Counter) Load() uint64 { return c.n.Load() }

func (c *Counter) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n.Store(0)
	c.started = time.Now()
	c.stopped = time.Time{}
}

func (c *Counter) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started.IsZero() && c.stopped.IsZero() {
		c.stopped = time.Now()
	}
}

// Elapsed returns the time since the run started, or the run's duration once
// it has finished. It is zero before the run starts.
func (c *Counter) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.started.IsZero():
		return 0
	case !c.stopped.IsZero():
		return c.stopped.Sub(c.started)
	default:
		return time.Since(c.started)
	}
}

// Rate returns candidates per second since the run started.
func (c *Counter) Rate() float64 {
	secs := c.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(c.Load()) / secs
}
