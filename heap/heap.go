// Package heap wires the string core to its runtime: an arena, the
// interner that lives in it, the periodic collector, and logging, all
// set up from a config.Config.
package heap

import (
	"fmt"
	"sync/atomic"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/avmstr"
	"github.com/chazu/avmstring/config"
	"github.com/chazu/avmstring/snapshot"
)

var log = commonlog.GetLogger("avmstring.heap")

// Heap owns an arena and the interner registered with it.
type Heap struct {
	cfg       *config.Config
	arena     *arena.Arena
	interner  *avmstr.Interner
	collector *arena.Collector
	inPlace   bool

	appends    atomic.Uint64
	inPlaceHit atomic.Uint64
}

// New builds a Heap from cfg. A nil cfg uses config.Default.
func New(cfg *config.Config) (*Heap, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	interval, err := cfg.CollectInterval()
	if err != nil {
		return nil, fmt.Errorf("heap: %w", err)
	}

	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())

	h := &Heap{
		cfg:     cfg,
		arena:   arena.New(arena.WithCollectThreshold(cfg.Arena.CollectThreshold)),
		inPlace: cfg.InPlaceAppend(),
	}
	h.arena.Mutate(func(mc *arena.Mutation) {
		h.interner = avmstr.NewInterner(mc)
	})

	if interval > 0 {
		h.collector = arena.NewCollector(h.arena, interval)
		h.collector.Start()
	}

	log.Infof("heap %s ready (in-place append %t, collect interval %s)", h.arena.ID(), h.inPlace, interval)
	return h, nil
}

// Arena returns the underlying arena.
func (h *Heap) Arena() *arena.Arena {
	return h.arena
}

// Interner returns the heap's interner.
func (h *Heap) Interner() *avmstr.Interner {
	return h.interner
}

// Collector returns the periodic collector, or nil when it is disabled.
func (h *Heap) Collector() *arena.Collector {
	return h.collector
}

// Mutate runs fn with a Ctx that is valid only until fn returns.
func (h *Heap) Mutate(fn func(c *Ctx)) {
	h.arena.Mutate(func(mc *arena.Mutation) {
		fn(&Ctx{heap: h, mc: mc})
	})
}

// Collect runs a collection now.
func (h *Heap) Collect() *arena.CollectStats {
	if h.collector != nil {
		return h.collector.CollectNow()
	}
	return h.arena.Collect()
}

// Stats combines arena counters with the heap's append counters.
type Stats struct {
	arena.Stats
	Atoms         int
	Appends       uint64
	InPlaceAppend uint64
}

// InPlaceRate is the fraction of concatenations that appended in place.
func (s Stats) InPlaceRate() float64 {
	if s.Appends == 0 {
		return 0
	}
	return float64(s.InPlaceAppend) / float64(s.Appends)
}

// Stats returns the heap counters. It takes the arena lock but never
// collects. Like Mutate it must not be called from inside a Mutate
// callback; use Ctx.Stats there.
func (h *Heap) Stats() Stats {
	return h.stats(h.arena.Stats())
}

func (h *Heap) stats(as arena.Stats) Stats {
	return Stats{
		Stats:         as,
		Atoms:         h.interner.Len(),
		Appends:       h.appends.Load(),
		InPlaceAppend: h.inPlaceHit.Load(),
	}
}

// Snapshot encodes the interner's atoms as CBOR.
func (h *Heap) Snapshot() ([]byte, error) {
	var snap *snapshot.Snapshot
	h.arena.Read(func() {
		snap = snapshot.Take(h.interner, h.arena.ID())
	})
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("heap: snapshot: %w", err)
	}
	log.Debugf("snapshot of %d atoms (%d bytes)", len(snap.Entries), len(data))
	return data, nil
}

// Restore interns the atoms of a CBOR snapshot and returns how many were
// newly created. Restored atoms are retained by the interner; call
// Interner().Release inside Mutate for any that are no longer wanted.
func (h *Heap) Restore(data []byte) (int, error) {
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("heap: restore: %w", err)
	}
	var created int
	h.arena.Mutate(func(mc *arena.Mutation) {
		created, err = snapshot.Restore(mc, h.interner, snap)
	})
	if err != nil {
		return created, fmt.Errorf("heap: restore: %w", err)
	}
	log.Infof("restored %d atoms from %s (%d new)", len(snap.Entries), snap.Source, created)
	return created, nil
}

// Close stops the collector.
func (h *Heap) Close() {
	if h.collector != nil {
		h.collector.Stop()
	}
}

// ---------------------------------------------------------------------------
// Ctx: operations inside a mutation
// ---------------------------------------------------------------------------

// Ctx bundles the mutation permit with the heap's configuration.
type Ctx struct {
	heap *Heap
	mc   *arena.Mutation
}

// Mutation returns the underlying permit.
func (c *Ctx) Mutation() *arena.Mutation {
	return c.mc
}

// Interner returns the heap's interner.
func (c *Ctx) Interner() *avmstr.Interner {
	return c.heap.interner
}

// NewUTF8 allocates a string from Go text.
func (c *Ctx) NewUTF8(s string) avmstr.String {
	return avmstr.NewUTF8(c.mc, s)
}

// Concat joins two strings, appending in place unless the heap was
// configured with in-place-append = false.
func (c *Ctx) Concat(left, right avmstr.String) avmstr.String {
	var out avmstr.String
	if c.heap.inPlace {
		out = avmstr.Concat(c.mc, left, right)
	} else {
		out = avmstr.ConcatCopy(c.mc, left, right)
	}
	if !left.IsEmpty() && !right.IsEmpty() {
		c.heap.appends.Add(1)
		if out.Repr().IsDependent() {
			c.heap.inPlaceHit.Add(1)
		}
	}
	return out
}

// Substring returns the characters [start, end) of s.
func (c *Ctx) Substring(s avmstr.String, start, end int) avmstr.String {
	return avmstr.Substring(c.mc, s, start, end)
}

// Intern returns the atom for s.
func (c *Ctx) Intern(s avmstr.String) avmstr.Atom {
	return c.heap.interner.Intern(c.mc, s)
}

// Pin keeps obj alive across collections until Unpin.
func (c *Ctx) Pin(obj arena.Object) arena.PinID {
	return c.mc.Pin(obj)
}

// Stats returns the heap counters from inside a mutation.
func (c *Ctx) Stats() Stats {
	return c.heap.stats(c.mc.Stats())
}

// Unpin removes a root added with Pin.
func (c *Ctx) Unpin(id arena.PinID) {
	c.mc.Unpin(id)
}
