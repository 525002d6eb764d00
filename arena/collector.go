package arena

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Collector: background collection of one arena
// ---------------------------------------------------------------------------

// DefaultCollectInterval is the default period between collections.
const DefaultCollectInterval = 30 * time.Second

// Collector wakes up every interval and collects its arena if anything was
// allocated or unpinned since the last pass. Each pass takes the arena
// lock, so it waits for the running Mutate to return.
type Collector struct {
	arena    *Arena
	interval time.Duration
	paused   atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	runs    atomic.Uint64
	skipped atomic.Uint64
	last    atomic.Pointer[CollectStats]
}

// NewCollector creates a stopped Collector for a. A non-positive interval
// selects DefaultCollectInterval.
func NewCollector(a *Arena, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}
	return &Collector{arena: a, interval: interval}
}

// Start launches the background goroutine. It does nothing if the
// collector is already running.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	c.arena.log.Debugf("collector for arena %s started (every %s)", c.arena.id, c.interval)
}

// Stop cancels the goroutine and waits for it. A collector that is not
// running is left alone.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.arena.log.Debugf("collector for arena %s stopped after %d runs", c.arena.id, c.runs.Load())
}

// Pause makes ticks do nothing until Resume. The goroutine keeps running.
func (c *Collector) Pause() { c.paused.Store(true) }

// Resume undoes Pause.
func (c *Collector) Resume() { c.paused.Store(false) }

// Paused reports whether ticks are currently ignored.
func (c *Collector) Paused() bool { return c.paused.Load() }

// Interval returns the collection period.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Runs returns how many collections this collector has taken.
func (c *Collector) Runs() uint64 {
	return c.runs.Load()
}

// Skipped returns how many ticks found the arena clean and did not collect.
func (c *Collector) Skipped() uint64 {
	return c.skipped.Load()
}

// LastStats returns the most recent collection taken by this collector,
// or nil.
func (c *Collector) LastStats() *CollectStats {
	return c.last.Load()
}

// CollectNow collects the arena regardless of its dirty state.
func (c *Collector) CollectNow() *CollectStats {
	return c.record(c.arena.Collect())
}

func (c *Collector) tick() {
	if c.paused.Load() {
		return
	}
	stats := c.arena.CollectIfDirty()
	if stats == nil {
		c.skipped.Add(1)
		return
	}
	c.record(stats)
}

func (c *Collector) record(stats *CollectStats) *CollectStats {
	c.runs.Add(1)
	c.last.Store(stats)
	return stats
}

func (c *Collector) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}
