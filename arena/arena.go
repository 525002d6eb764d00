// Package arena is the managed memory arena the string core allocates
// into. It hands out a mutation permit, tracks every allocation, and
// reclaims unreachable objects with a mark/sweep pass driven by each
// object's Trace method.
//
// The arena has a single mutator. Mutate holds the arena lock for the
// duration of its callback and collections take the same lock, so the
// collector never observes a half-finished mutation.
package arena

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Arena
// ---------------------------------------------------------------------------

// Stats holds cumulative allocation and collection counters.
type Stats struct {
	Allocations     uint64 // every Alloc call
	HeapAllocations uint64 // allocations whose object reported a HeapSize > 0
	BytesAllocated  uint64
	Collections     uint64
	Dropped         uint64
	FreedBytes      uint64
	LastCollection  time.Time // zero until the first collection
	Live            int
	Pins            int
}

// Arena owns a set of objects and the roots that keep them alive.
type Arena struct {
	id  uuid.UUID
	log commonlog.Logger

	mu      sync.Mutex
	objects []managed
	pins    map[PinID]Object
	nextPin PinID
	nextID  uint64
	weak    []WeakHolder

	// Per-arena services (such as the interner), keyed by a type private
	// to the package that registers them.
	singletons map[any]any

	threshold    int
	sinceCollect int
	dirty        bool // allocations or unpins since the last collection
	stats        Stats
}

// Option configures an Arena.
type Option func(*Arena)

// WithCollectThreshold makes Mutate run a collection on exit once n
// allocations have happened since the previous collection. Zero disables.
func WithCollectThreshold(n int) Option {
	return func(a *Arena) {
		a.threshold = n
	}
}

// WithLogger replaces the arena's logger.
func WithLogger(l commonlog.Logger) Option {
	return func(a *Arena) {
		a.log = l
	}
}

// New creates an empty arena.
func New(opts ...Option) *Arena {
	a := &Arena{
		id:         uuid.New(),
		log:        commonlog.GetLogger("avmstring.arena"),
		pins:       make(map[PinID]Object),
		singletons: make(map[any]any),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the arena's identity.
func (a *Arena) ID() uuid.UUID {
	return a.id
}

// Mutate runs fn with a mutation permit. The permit is only valid until fn
// returns. Handles that are not reachable from a pin when a collection
// runs are reclaimed, so anything kept across Mutate calls must be pinned.
func (a *Arena) Mutate(fn func(mc *Mutation)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	mc := &Mutation{arena: a}
	func() {
		defer func() { mc.done = true }()
		fn(mc)
	}()

	if a.threshold > 0 && a.sinceCollect >= a.threshold {
		a.log.Debugf("allocation threshold %d reached, collecting", a.threshold)
		a.collectLocked()
	}
}

// Read runs fn under the arena lock without a permit. It never collects,
// so it is the way to inspect handles from outside Mutate. Like Mutate, it
// must not be called from inside a Mutate or Read callback.
func (a *Arena) Read(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// Stats returns a copy of the arena counters. It must not be called from
// inside Mutate; use Mutation.Stats there.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statsLocked()
}

func (a *Arena) statsLocked() Stats {
	s := a.stats
	s.Live = len(a.objects)
	s.Pins = len(a.pins)
	return s
}

func (a *Arena) register(m managed, size int) {
	a.objects = append(a.objects, m)
	a.sinceCollect++
	a.dirty = true
	a.stats.Allocations++
	if size > 0 {
		a.stats.HeapAllocations++
		a.stats.BytesAllocated += uint64(size)
	}
}

// ---------------------------------------------------------------------------
// Mutation: the write permit
// ---------------------------------------------------------------------------

// PinID identifies a root registered with Mutation.Pin.
type PinID uint64

// Mutation is the permit required to allocate in, or write to, arena
// memory. It is only valid inside the Mutate callback that created it.
type Mutation struct {
	arena  *Arena
	done   bool
	allocs int
}

// Check panics if the permit is no longer valid.
func (mc *Mutation) Check() {
	if mc == nil || mc.done {
		panic("bug: arena: mutation permit used outside Mutate")
	}
}

// Arena returns the arena the permit belongs to.
func (mc *Mutation) Arena() *Arena {
	return mc.arena
}

// Allocs returns the number of allocations made with this permit.
func (mc *Mutation) Allocs() int {
	return mc.allocs
}

// Stats returns the arena counters. It is the lock-free form of
// Arena.Stats for use inside Mutate.
func (mc *Mutation) Stats() Stats {
	mc.Check()
	return mc.arena.statsLocked()
}

// Pin registers obj as a root. Everything obj traces survives collections
// until Unpin is called.
func (mc *Mutation) Pin(obj Object) PinID {
	mc.Check()
	a := mc.arena
	a.nextPin++
	a.pins[a.nextPin] = obj
	return a.nextPin
}

// Unpin removes a root. Unknown IDs are ignored.
func (mc *Mutation) Unpin(id PinID) {
	mc.Check()
	if _, ok := mc.arena.pins[id]; ok {
		delete(mc.arena.pins, id)
		mc.arena.dirty = true
	}
}

// RegisterWeak adds a weak table to be swept on every collection.
func (mc *Mutation) RegisterWeak(h WeakHolder) {
	mc.Check()
	mc.arena.weak = append(mc.arena.weak, h)
}

// Singleton returns the value registered under key with SetSingleton.
func (mc *Mutation) Singleton(key any) (any, bool) {
	mc.Check()
	v, ok := mc.arena.singletons[key]
	return v, ok
}

// SetSingleton registers v as the arena's only value for key. Registering
// a key twice is a bug.
func (mc *Mutation) SetSingleton(key, v any) {
	mc.Check()
	if _, ok := mc.arena.singletons[key]; ok {
		panic(fmt.Sprintf("bug: arena: singleton %T already registered", key))
	}
	mc.arena.singletons[key] = v
}
