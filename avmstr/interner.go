package avmstr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// ---------------------------------------------------------------------------
// Interner: the atom table
// ---------------------------------------------------------------------------

// commonAtoms are interned when an Interner is created and never collected.
// Keys name the slot; values are the content.
var commonAtoms = []struct{ key, content string }{
	{"empty", ""},
	{"length", "length"},
	{"prototype", "prototype"},
	{"constructor", "constructor"},
	{"toString", "toString"},
	{"valueOf", "valueOf"},
	{"undefined", "undefined"},
	{"null", "null"},
	{"true", "true"},
	{"false", "false"},
	{"NaN", "NaN"},
}

type internEntry struct {
	atom Atom
	seq  uint64
}

// Interner maps content to its unique atom within one arena. Each arena
// has at most one, and it is the only place records get marked interned.
//
// Entries are weak: an atom that nothing else reaches is forgotten at the
// next collection. Common atoms are held strongly.
type Interner struct {
	arena *arena.Arena

	mu      sync.RWMutex
	buckets map[uint64][]internEntry
	count   int
	nextSeq uint64
	common  map[string]Atom

	// retained atoms are held strongly until Release, keyed by atom ID.
	retained map[uint64]Atom
}

type internerKey struct{}

// NewInterner creates the interner of mc's arena, registers it for weak
// sweeps, pins it, and interns the common atoms. An arena that already
// has an interner is a bug; use InternerOf to find it.
func NewInterner(mc *arena.Mutation) *Interner {
	if _, ok := mc.Singleton(internerKey{}); ok {
		panic(fmt.Sprintf("bug: arena %s already has an interner", mc.Arena().ID()))
	}
	in := &Interner{
		arena:    mc.Arena(),
		buckets:  make(map[uint64][]internEntry),
		common:   make(map[string]Atom),
		retained: make(map[uint64]Atom),
	}
	mc.SetSingleton(internerKey{}, in)
	mc.RegisterWeak(in)
	mc.Pin(in)
	for _, c := range commonAtoms {
		in.DefineCommon(mc, c.key, c.content)
	}
	return in
}

// InternerOf returns the interner of mc's arena, if one was created.
func InternerOf(mc *arena.Mutation) (*Interner, bool) {
	v, ok := mc.Singleton(internerKey{})
	if !ok {
		return nil, false
	}
	return v.(*Interner), true
}

// Intern returns the atom for s's content, creating it if needed. An owned,
// non-dependent s is interned in place; anything else is copied first.
// s must be static or belong to the interner's arena.
func (in *Interner) Intern(mc *arena.Mutation, s String) Atom {
	mc.Check()
	if mc.Arena() != in.arena {
		panic("bug: interning with a permit of another arena")
	}
	in.checkArena(s)
	if a, ok := s.AsInterned(); ok {
		return a
	}
	h := s.Hash()

	in.mu.Lock()
	defer in.mu.Unlock()

	if a, ok := in.lookupLocked(h, s.View()); ok {
		return a
	}
	repr := s.toFullyOwned(mc)
	return in.insertLocked(mc, h, repr)
}

// InternStr returns the atom for v, copying v only if no atom exists yet.
func (in *Interner) InternStr(mc *arena.Mutation, v wstr.Str) Atom {
	return in.Intern(mc, FromStr(v))
}

// InternStatic returns the atom for a literal.
func (in *Interner) InternStatic(mc *arena.Mutation, s string) Atom {
	return in.InternStr(mc, wstr.Static(s))
}

// Lookup returns the atom for s's content without creating one.
func (in *Interner) Lookup(s String) (Atom, bool) {
	in.checkArena(s)
	if a, ok := s.AsInterned(); ok {
		return a, true
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.lookupLocked(s.Hash(), s.View())
}

// Len returns the number of atoms.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.count
}

// Atoms returns every atom in interning order.
func (in *Interner) Atoms() []Atom {
	in.mu.RLock()
	entries := make([]internEntry, 0, in.count)
	for _, b := range in.buckets {
		entries = append(entries, b...)
	}
	in.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Atom, len(entries))
	for i, e := range entries {
		out[i] = e.atom
	}
	return out
}

// Empty returns the empty atom.
func (in *Interner) Empty() Atom {
	a, _ := in.Common("empty")
	return a
}

// Common returns the common atom in slot key.
func (in *Interner) Common(key string) (Atom, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	a, ok := in.common[key]
	return a, ok
}

// DefineCommon populates the common slot key with the atom for content and
// keeps it alive for the interner's lifetime. Defining a slot again with
// the same content returns the existing atom; different content is a bug.
func (in *Interner) DefineCommon(mc *arena.Mutation, key, content string) Atom {
	a := in.InternStatic(mc, content)

	in.mu.Lock()
	defer in.mu.Unlock()
	if prev, ok := in.common[key]; ok {
		if !prev.Equal(a) {
			panic(fmt.Sprintf("bug: common atom %q already populated with %q, not %q", key, prev.String(), content))
		}
		return prev
	}
	in.common[key] = a
	return a
}

// Retain keeps a alive across collections until Release, without a pin
// per atom. Retaining an atom twice is the same as once.
func (in *Interner) Retain(mc *arena.Mutation, a Atom) {
	mc.Check()
	in.checkArena(a.Handle())
	in.mu.Lock()
	in.retained[a.ID()] = a
	in.mu.Unlock()
}

// Release makes a weak again. Common atoms stay strong regardless.
func (in *Interner) Release(mc *arena.Mutation, a Atom) {
	mc.Check()
	in.mu.Lock()
	delete(in.retained, a.ID())
	in.mu.Unlock()
}

// Retained returns the number of retained atoms.
func (in *Interner) Retained() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.retained)
}

// Trace reports the common and retained atoms. Other entries are weak.
func (in *Interner) Trace(tr *arena.Tracer) {
	for _, a := range in.common {
		a.Trace(tr)
	}
	for _, a := range in.retained {
		a.Trace(tr)
	}
}

// SweepWeak forgets atoms that did not survive the mark phase.
func (in *Interner) SweepWeak(w *arena.WeakSweep) {
	in.mu.Lock()
	defer in.mu.Unlock()

	pruned := 0
	for h, bucket := range in.buckets {
		kept := bucket[:0]
		for _, e := range bucket {
			if e.atom.repr.IsAlive(w) {
				kept = append(kept, e)
			} else {
				pruned++
			}
		}
		if len(kept) == 0 {
			delete(in.buckets, h)
			continue
		}
		clear(bucket[len(kept):])
		in.buckets[h] = kept
	}
	in.count -= pruned
	w.Pruned(pruned)
}

func (in *Interner) checkArena(s String) {
	if !s.IsStatic() && s.repr.Arena() != in.arena {
		panic(fmt.Sprintf("bug: string from arena %s used with the interner of arena %s", s.repr.Arena().ID(), in.arena.ID()))
	}
}

func (in *Interner) lookupLocked(h uint64, v wstr.Str) (Atom, bool) {
	for _, e := range in.buckets[h] {
		if e.atom.View().Equal(v) {
			return e.atom, true
		}
	}
	return Atom{}, false
}

func (in *Interner) insertLocked(mc *arena.Mutation, h uint64, repr arena.Gc[*Repr]) Atom {
	repr.Get().markInterned(mc)
	a := Atom{repr: repr}
	in.nextSeq++
	in.buckets[h] = append(in.buckets[h], internEntry{atom: a, seq: in.nextSeq})
	in.count++
	return a
}
