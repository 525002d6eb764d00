package avmstr

import (
	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// Atom is an interned string. An Interner holds at most one atom for any
// content, so two atoms are equal exactly when they are the same
// allocation.
type Atom struct {
	repr arena.Gc[*Repr]
}

// Handle returns the atom as a string.
func (a Atom) Handle() String {
	return fromRepr(a.repr)
}

// View returns the atom's characters.
func (a Atom) View() wstr.Str {
	return a.repr.Get().view
}

// String returns the atom as UTF-8.
func (a Atom) String() string {
	return a.View().String()
}

// IsZero reports whether a is the zero Atom.
func (a Atom) IsZero() bool {
	return a.repr.IsZero()
}

// ID returns the allocation identity of the atom.
func (a Atom) ID() uint64 {
	return a.repr.ID()
}

// Equal compares atoms by identity only.
func (a Atom) Equal(b Atom) bool {
	return arena.PtrEq(a.repr, b.repr)
}

// EqualString compares a with s: by identity if s is an atom of the same
// arena, by content otherwise.
func (a Atom) EqualString(s String) bool {
	if b, ok := s.AsInterned(); ok && b.repr.Arena() == a.repr.Arena() {
		return a.Equal(b)
	}
	return a.View().Equal(s.View())
}

// Trace reports the atom's record.
func (a Atom) Trace(tr *arena.Tracer) {
	a.repr.Trace(tr)
}
