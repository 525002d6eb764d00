package arena

import "time"

// CollectStats holds statistics from a single collection.
type CollectStats struct {
	Marked     int
	Swept      int
	WeakPruned int
	FreedBytes int
	Live       int
	Duration   time.Duration
	Timestamp  time.Time
}

// Collect runs a full mark/sweep collection and returns its statistics.
// It blocks until any in-progress Mutate call has finished.
func (a *Arena) Collect() *CollectStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collectLocked()
}

// CollectIfDirty collects only when something was allocated or unpinned
// since the previous collection. A clean arena has nothing new to reclaim,
// so it returns nil without taking a pass.
func (a *Arena) CollectIfDirty() *CollectStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dirty {
		return nil
	}
	return a.collectLocked()
}

// collectLocked marks everything reachable from the pins, lets weak tables
// forget dead entries, then drops and forgets every unmarked object.
func (a *Arena) collectLocked() *CollectStats {
	start := time.Now()
	stats := &CollectStats{Timestamp: start}

	// 1. Mark
	tr := &Tracer{}
	for _, root := range a.pins {
		root.Trace(tr)
		tr.drain()
	}
	stats.Marked = tr.marked

	// 2. Weak tables
	w := &WeakSweep{}
	for _, h := range a.weak {
		h.SweepWeak(w)
	}
	stats.WeakPruned = w.pruned

	// 3. Sweep
	live := a.objects[:0]
	for _, m := range a.objects {
		h := m.hdr()
		if h.marked {
			h.marked = false
			live = append(live, m)
			continue
		}
		stats.FreedBytes += m.drop()
		stats.Swept++
	}
	clear(a.objects[len(live):])
	a.objects = live

	stats.Live = len(a.objects)
	stats.Duration = time.Since(start)

	a.sinceCollect = 0
	a.dirty = false
	a.stats.LastCollection = start
	a.stats.Collections++
	a.stats.Dropped += uint64(stats.Swept)
	a.stats.FreedBytes += uint64(stats.FreedBytes)

	a.log.Debugf("collection %d: marked %d, swept %d, weak pruned %d, freed %d bytes in %s",
		a.stats.Collections, stats.Marked, stats.Swept, stats.WeakPruned, stats.FreedBytes, stats.Duration)
	return stats
}
