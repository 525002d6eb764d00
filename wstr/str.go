// Package wstr implements the character sequences used by the string core.
//
// A sequence is made of 16-bit code units stored in one of two widths:
//   - narrow: one byte per unit (Latin-1, units 0x00-0xFF)
//   - wide: one uint16 per unit (UTF-16, possibly with unpaired surrogates)
//
// Str is a read-only view and Buf is an owned, growable buffer. Sequences
// of different widths compare and hash equal when their units are equal.
package wstr

import (
	"bytes"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Str: read-only view over narrow or wide units
// ---------------------------------------------------------------------------

// Str is an immutable view of a character sequence. The zero Str is the
// empty narrow sequence. Str values are cheap to copy; they never own the
// memory they point to.
type Str struct {
	narrow []byte
	wide   []uint16
	isWide bool
}

// Empty returns the empty sequence.
func Empty() Str {
	return Str{}
}

// Static returns a view over a string literal without copying it. The
// literal is interpreted as ASCII; anything else is decoded as UTF-8 into a
// fresh sequence.
func Static(s string) Str {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return FromUTF8(s)
		}
	}
	if len(s) == 0 {
		return Str{}
	}
	// The returned bytes alias the literal and are never written.
	return Str{narrow: unsafe.Slice(unsafe.StringData(s), len(s))}
}

// FromLatin1 returns a narrow view over b. The slice is not copied.
func FromLatin1(b []byte) Str {
	return Str{narrow: b}
}

// FromUnits returns a wide view over u. The slice is not copied.
func FromUnits(u []uint16) Str {
	return Str{wide: u, isWide: true}
}

// Len returns the number of code units.
func (s Str) Len() int {
	if s.isWide {
		return len(s.wide)
	}
	return len(s.narrow)
}

// IsEmpty reports whether the sequence has no units.
func (s Str) IsEmpty() bool {
	return s.Len() == 0
}

// IsWide reports whether the sequence is stored with 16-bit units.
func (s Str) IsWide() bool {
	return s.isWide
}

// CharSize returns the storage size of one unit in bytes.
func (s Str) CharSize() int {
	if s.isWide {
		return 2
	}
	return 1
}

// At returns the unit at index i. It panics if i is out of range.
func (s Str) At(i int) uint16 {
	if s.isWide {
		return s.wide[i]
	}
	return uint16(s.narrow[i])
}

// Slice returns the units in [i, j) without copying.
func (s Str) Slice(i, j int) Str {
	if s.isWide {
		return Str{wide: s.wide[i:j:j], isWide: true}
	}
	return Str{narrow: s.narrow[i:j:j]}
}

// SliceFrom returns the units from i to the end.
func (s Str) SliceFrom(i int) Str {
	return s.Slice(i, s.Len())
}

// Prefix returns the first n units.
func (s Str) Prefix(n int) Str {
	return s.Slice(0, n)
}

// Suffix returns the last n units.
func (s Str) Suffix(n int) Str {
	l := s.Len()
	return s.Slice(l-n, l)
}

// Bytes returns the narrow units, or nil for a wide sequence. The result
// aliases the view and must not be modified.
func (s Str) Bytes() []byte {
	if s.isWide {
		return nil
	}
	return s.narrow
}

// Wide returns the wide units, or nil for a narrow sequence. The result
// aliases the view and must not be modified.
func (s Str) Wide() []uint16 {
	if s.isWide {
		return s.wide
	}
	return nil
}

// Units16 returns a fresh copy of all units widened to uint16.
func (s Str) Units16() []uint16 {
	out := make([]uint16, s.Len())
	if s.isWide {
		copy(out, s.wide)
		return out
	}
	for i, b := range s.narrow {
		out[i] = uint16(b)
	}
	return out
}

// Equal reports whether s and o hold the same units, regardless of width.
func (s Str) Equal(o Str) bool {
	if s.Len() != o.Len() {
		return false
	}
	if !s.isWide && !o.isWide {
		return bytes.Equal(s.narrow, o.narrow)
	}
	for i := 0; i < s.Len(); i++ {
		if s.At(i) != o.At(i) {
			return false
		}
	}
	return true
}

// Compare orders s and o unit by unit. It returns -1, 0 or +1.
func (s Str) Compare(o Str) int {
	if !s.isWide && !o.isWide {
		return bytes.Compare(s.narrow, o.narrow)
	}
	n := min(s.Len(), o.Len())
	for i := 0; i < n; i++ {
		a, b := s.At(i), o.At(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	switch {
	case s.Len() < o.Len():
		return -1
	case s.Len() > o.Len():
		return 1
	}
	return 0
}

// HasPrefix reports whether s begins with p.
func (s Str) HasPrefix(p Str) bool {
	return s.Len() >= p.Len() && s.Prefix(p.Len()).Equal(p)
}

// HasSuffix reports whether s ends with p.
func (s Str) HasSuffix(p Str) bool {
	return s.Len() >= p.Len() && s.Suffix(p.Len()).Equal(p)
}

// Index returns the index of the first occurrence of sub in s, or -1.
func (s Str) Index(sub Str) int {
	if !s.isWide && !sub.isWide {
		return bytes.Index(s.narrow, sub.narrow)
	}
	n := sub.Len()
	for i := 0; i+n <= s.Len(); i++ {
		if s.Slice(i, i+n).Equal(sub) {
			return i
		}
	}
	return -1
}

// ContainsWide reports whether any unit is above 0xFF, meaning the
// sequence cannot be stored narrow.
func (s Str) ContainsWide() bool {
	if !s.isWide {
		return false
	}
	for _, u := range s.wide {
		if u > 0xFF {
			return true
		}
	}
	return false
}

// SameView reports whether a and b view the same memory: same width, same
// length and the same first unit. Two empty views are always the same.
func SameView(a, b Str) bool {
	if a.isWide != b.isWide || a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	if a.isWide {
		return unsafe.SliceData(a.wide) == unsafe.SliceData(b.wide)
	}
	return unsafe.SliceData(a.narrow) == unsafe.SliceData(b.narrow)
}
