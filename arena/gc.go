package arena

// ---------------------------------------------------------------------------
// Gc: typed handle to an arena cell
// ---------------------------------------------------------------------------

// Object is a value that can live in an arena. Trace must report every
// arena handle the value holds, by calling Trace on each of them.
type Object interface {
	Trace(tr *Tracer)
}

// Dropper is implemented by objects that release resources when swept.
// Drop returns the number of bytes it released.
type Dropper interface {
	Drop() int
}

// Sizer is implemented by objects that bring their own heap memory into
// the arena. HeapSize is sampled once, at allocation.
type Sizer interface {
	HeapSize() int
}

type header struct {
	arena   *Arena
	id      uint64
	marked  bool
	dropped bool
}

// managed is the untyped view the arena keeps of every cell.
type managed interface {
	hdr() *header
	traceValue(tr *Tracer)
	drop() int
}

type cell[T Object] struct {
	header
	value T
}

func (c *cell[T]) hdr() *header { return &c.header }

func (c *cell[T]) traceValue(tr *Tracer) { c.value.Trace(tr) }

func (c *cell[T]) drop() int {
	if c.dropped {
		panic("bug: arena: object dropped twice")
	}
	c.dropped = true
	if d, ok := any(c.value).(Dropper); ok {
		return d.Drop()
	}
	return 0
}

// Gc is a handle to a value allocated in an arena. Handles compare by
// allocation: two handles are PtrEq only if they came from the same Alloc.
// The zero Gc refers to nothing.
type Gc[T Object] struct {
	c *cell[T]
}

// Alloc moves v into the arena and returns a handle to it.
func Alloc[T Object](mc *Mutation, v T) Gc[T] {
	mc.Check()
	a := mc.arena
	a.nextID++
	c := &cell[T]{header: header{arena: a, id: a.nextID}, value: v}
	size := 0
	if s, ok := any(v).(Sizer); ok {
		size = s.HeapSize()
	}
	a.register(c, size)
	mc.allocs++
	return Gc[T]{c: c}
}

// Get returns the value. It panics on the zero handle.
func (g Gc[T]) Get() T {
	if g.c.dropped {
		panic("bug: arena: use of a swept object")
	}
	return g.c.value
}

// IsZero reports whether g refers to nothing.
func (g Gc[T]) IsZero() bool {
	return g.c == nil
}

// ID returns the allocation number of g, or 0 for the zero handle.
func (g Gc[T]) ID() uint64 {
	if g.c == nil {
		return 0
	}
	return g.c.id
}

// Arena returns the arena g was allocated in, or nil for the zero handle.
func (g Gc[T]) Arena() *Arena {
	if g.c == nil {
		return nil
	}
	return g.c.arena
}

// Trace marks the referenced cell as reachable.
func (g Gc[T]) Trace(tr *Tracer) {
	if g.c != nil {
		tr.mark(g.c)
	}
}

// IsAlive reports, during a weak sweep, whether the referenced cell
// survived the mark phase.
func (g Gc[T]) IsAlive(w *WeakSweep) bool {
	if w == nil {
		panic("bug: arena: IsAlive outside a weak sweep")
	}
	return g.c != nil && g.c.marked
}

// PtrEq reports whether a and b refer to the same allocation.
func PtrEq[T Object](a, b Gc[T]) bool {
	return a.c == b.c
}

// ---------------------------------------------------------------------------
// Tracer
// ---------------------------------------------------------------------------

// Tracer is handed to Object.Trace during the mark phase.
type Tracer struct {
	work   []managed
	marked int
}

func (tr *Tracer) mark(m managed) {
	h := m.hdr()
	if h.marked {
		return
	}
	h.marked = true
	tr.marked++
	tr.work = append(tr.work, m)
}

func (tr *Tracer) drain() {
	for len(tr.work) > 0 {
		n := len(tr.work) - 1
		m := tr.work[n]
		tr.work[n] = nil
		tr.work = tr.work[:n]
		m.traceValue(tr)
	}
}

// ---------------------------------------------------------------------------
// Weak sweeps
// ---------------------------------------------------------------------------

// WeakSweep is handed to WeakHolder.SweepWeak between the mark and sweep
// phases of a collection.
type WeakSweep struct {
	pruned int
}

// Pruned records that a holder dropped n weak entries.
func (w *WeakSweep) Pruned(n int) {
	w.pruned += n
}

// WeakHolder is implemented by tables holding weak handles. SweepWeak must
// forget every handle whose IsAlive reports false.
type WeakHolder interface {
	SweepWeak(w *WeakSweep)
}
