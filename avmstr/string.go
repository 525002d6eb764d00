// Package avmstr implements the string values of the scripting runtime:
// cheap copyable handles over either static data or arena-owned storage
// records, zero-copy substrings, interned atoms with identity equality,
// and concatenation that appends in place when it is provably safe.
//
// Every operation that allocates or writes arena memory takes the arena's
// mutation permit.
package avmstr

import (
	"fmt"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// ---------------------------------------------------------------------------
// String: the handle
// ---------------------------------------------------------------------------

// String is a string value. It is either static, viewing data that lives
// for the whole process, or owned, referencing a Repr in an arena. The
// zero String is the empty static string. Strings are values and are never
// mutated after construction.
type String struct {
	static wstr.Str
	repr   arena.Gc[*Repr]
}

// FromStatic returns a static string over a literal. No allocation.
func FromStatic(s string) String {
	return String{static: wstr.Static(s)}
}

// FromStr returns a static string over s. The caller must not modify the
// memory s views.
func FromStr(s wstr.Str) String {
	return String{static: s}
}

// New moves buf into a new owned, non-interned string.
func New(mc *arena.Mutation, buf wstr.Buf) String {
	return fromRepr(arena.Alloc(mc, newOwned(buf, false)))
}

// NewUTF8 decodes s into a new owned string.
func NewUTF8(mc *arena.Mutation, s string) String {
	return New(mc, wstr.FromStr(wstr.FromUTF8(s)))
}

// NewUTF8Bytes decodes b into a new owned string. Invalid UTF-8 is
// replaced with U+FFFD.
func NewUTF8Bytes(mc *arena.Mutation, b []byte) String {
	return New(mc, wstr.FromStr(wstr.FromUTF8Bytes(b)))
}

func fromRepr(g arena.Gc[*Repr]) String {
	return String{repr: g}
}

// Substring returns s[start:end] without copying characters. An owned s
// yields a dependent string whose owner is s's ultimate owner; a static s
// yields a static sub-view.
func Substring(mc *arena.Mutation, s String, start, end int) String {
	if start < 0 || end < start || end > s.Len() {
		panic(fmt.Sprintf("bug: substring [%d, %d) out of range for length %d", start, end, s.Len()))
	}
	if s.IsStatic() {
		return String{static: s.static.Slice(start, end)}
	}
	return fromRepr(arena.Alloc(mc, newDependent(s, start, end)))
}

// IsStatic reports whether s is static rather than arena-owned.
func (s String) IsStatic() bool {
	return s.repr.IsZero()
}

// Repr returns the storage record of an owned string, or nil for a static
// one.
func (s String) Repr() *Repr {
	if s.IsStatic() {
		return nil
	}
	return s.repr.Get()
}

// View returns the characters of s.
func (s String) View() wstr.Str {
	if s.IsStatic() {
		return s.static
	}
	return s.repr.Get().view
}

// Len returns the number of units.
func (s String) Len() int {
	return s.View().Len()
}

// IsEmpty reports whether s has no units.
func (s String) IsEmpty() bool {
	return s.Len() == 0
}

// IsWide reports whether s is stored with 16-bit units.
func (s String) IsWide() bool {
	return s.View().IsWide()
}

// String returns s as UTF-8.
func (s String) String() string {
	return s.View().String()
}

// Owner returns the ultimate owner of a dependent string.
func (s String) Owner() (String, bool) {
	if s.IsStatic() {
		return String{}, false
	}
	return s.repr.Get().Owner()
}

// resolveOwner returns s's owner, or s itself when s is not dependent.
func (s String) resolveOwner() String {
	if o, ok := s.Owner(); ok {
		return o
	}
	return s
}

// AsInterned returns the atom view of s if its record is interned.
func (s String) AsInterned() (Atom, bool) {
	if s.IsStatic() || !s.repr.Get().interned {
		return Atom{}, false
	}
	return Atom{repr: s.repr}, true
}

// Equal compares s and o by content, with two shortcuts: the same record
// is always equal, and two distinct atoms of one arena are never equal.
func (s String) Equal(o String) bool {
	if !s.IsStatic() && !o.IsStatic() {
		if arena.PtrEq(s.repr, o.repr) {
			return true
		}
		if s.repr.Get().interned && o.repr.Get().interned && s.repr.Arena() == o.repr.Arena() {
			return false
		}
	}
	return s.View().Equal(o.View())
}

// Compare orders s and o unit by unit.
func (s String) Compare(o String) int {
	return s.View().Compare(o.View())
}

// Hash returns the content hash of s; equal strings hash equal.
func (s String) Hash() uint64 {
	return s.View().Hash()
}

// Trace reports the record of an owned string.
func (s String) Trace(tr *arena.Tracer) {
	s.repr.Trace(tr)
}

// PtrEq reports whether a and b are the same string: the same record, or
// static views of the same memory.
func PtrEq(a, b String) bool {
	if a.IsStatic() != b.IsStatic() {
		return false
	}
	if a.IsStatic() {
		return wstr.SameView(a.static, b.static)
	}
	return arena.PtrEq(a.repr, b.repr)
}

// toFullyOwned returns an owning, non-dependent record with the content of
// s, copying only when s is static or dependent.
func (s String) toFullyOwned(mc *arena.Mutation) arena.Gc[*Repr] {
	if !s.IsStatic() && !s.repr.Get().IsDependent() {
		return s.repr
	}
	return arena.Alloc(mc, newOwned(wstr.FromStr(s.View()), false))
}
