package avmstr

import (
	"fmt"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// ---------------------------------------------------------------------------
// Repr: the storage record behind owned strings and atoms
// ---------------------------------------------------------------------------

// Repr is the storage record of an arena-allocated string.
//
// An owning Repr holds its buffer. For an owning Repr,
// len <= charsUsed <= capacity, where charsUsed counts the units published
// by this string and by every dependent appended in place after it.
// Example: a="abc" with capacity 10 has charsUsed=3; a+"d" writes 'd' into
// a's spare capacity, yields a dependent "abcd" and bumps charsUsed to 4.
//
// A dependent Repr borrows a sub-range of its owner's buffer. Its owner is
// always the ultimate owning ancestor, its capacity and charsUsed are 0,
// and it is never interned.
//
// Using Repr directly can break the interning invariants; the mutators are
// unexported for that reason.
type Repr struct {
	buf       wstr.Buf // owning only
	view      wstr.Str
	off       int // start of view within the owner's buffer
	capacity  int
	charsUsed int
	interned  bool
	owner     String // zero unless dependent
}

// newOwned takes ownership of buf.
func newOwned(buf wstr.Buf, interned bool) *Repr {
	return &Repr{
		buf:       buf,
		view:      buf.Str(),
		capacity:  buf.Cap(),
		charsUsed: buf.Len(),
		interned:  interned,
	}
}

// newDependent borrows s[start:end]. s must be arena-owned.
func newDependent(s String, start, end int) *Repr {
	r := s.repr.Get()
	view := r.view.Slice(start, end)

	owner := s
	if r.IsDependent() {
		owner = r.owner
	}

	return &Repr{
		view:  view,
		off:   r.off + start,
		owner: owner,
	}
}

// newDependentRaw borrows length units of owner's buffer starting at off.
// The range must already be published: off+length <= owner.charsUsed.
// Only the in-place append path builds dependents this way.
func newDependentRaw(owner String, off, length int, wide bool) *Repr {
	if owner.IsStatic() {
		panic("bug: raw dependent of a static string")
	}
	o := owner.repr.Get()
	if o.IsDependent() {
		panic("bug: raw dependent whose owner is itself dependent")
	}
	if o.buf.IsWide() != wide {
		panic("bug: raw dependent width differs from its owner")
	}
	if off < 0 || length < 0 || off+length > o.charsUsed || o.charsUsed > o.capacity {
		panic(fmt.Sprintf("bug: raw dependent [%d, %d) outside published range %d (capacity %d)",
			off, off+length, o.charsUsed, o.capacity))
	}
	return &Repr{
		view:  o.buf.View(off, off+length),
		off:   off,
		owner: owner,
	}
}

// IsDependent reports whether the record borrows another record's buffer.
func (r *Repr) IsDependent() bool {
	return !r.owner.repr.IsZero()
}

// Owner returns the owning string of a dependent record.
func (r *Repr) Owner() (String, bool) {
	return r.owner, r.IsDependent()
}

// View returns the record's characters.
func (r *Repr) View() wstr.Str {
	return r.view
}

// IsInterned reports whether the record is an atom.
func (r *Repr) IsInterned() bool {
	return r.interned
}

// Capacity returns the buffer capacity in units; 0 for dependents.
func (r *Repr) Capacity() int {
	return r.capacity
}

// CharsUsed returns the number of published units in the buffer; 0 for
// dependents.
func (r *Repr) CharsUsed() int {
	return r.charsUsed
}

// markInterned flags the record as an atom. Only the Interner calls this.
func (r *Repr) markInterned(mc *arena.Mutation) {
	mc.Check()
	if r.IsDependent() {
		panic("bug: we interned a dependent string")
	}
	r.interned = true
}

// setCharsUsed publishes n units of the buffer. Units must be written
// before they are published.
func (r *Repr) setCharsUsed(mc *arena.Mutation, n int) {
	mc.Check()
	if r.IsDependent() {
		panic("bug: setCharsUsed on a dependent string")
	}
	if n < r.view.Len() || n > r.capacity {
		panic(fmt.Sprintf("bug: charsUsed %d outside [%d, %d]", n, r.view.Len(), r.capacity))
	}
	r.charsUsed = n
}

// Trace reports the owner edge. Character buffers hold no handles.
func (r *Repr) Trace(tr *arena.Tracer) {
	r.owner.Trace(tr)
}

// HeapSize reports the bytes of the owned buffer; dependents bring none.
func (r *Repr) HeapSize() int {
	if r.IsDependent() {
		return 0
	}
	return r.buf.SizeBytes()
}

// Drop releases the owned buffer. Dependents own nothing and release
// nothing.
func (r *Repr) Drop() int {
	if r.IsDependent() {
		return 0
	}
	freed := r.buf.SizeBytes()
	r.buf.Release()
	r.view = wstr.Str{}
	r.capacity = 0
	r.charsUsed = 0
	return freed
}
