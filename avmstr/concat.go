package avmstr

import (
	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// ---------------------------------------------------------------------------
// Concatenation
// ---------------------------------------------------------------------------

const (
	// minCapacity is the smallest buffer a copying concatenation allocates.
	minCapacity = 32
	// maxHeadroom caps the spare capacity of a copying concatenation.
	maxHeadroom = 1 << 20
)

// growCapacity returns the buffer capacity for a copying concatenation of
// n units. The curve matches the legacy runtime's append growth, with the
// headroom capped at 1Mi units.
func growCapacity(n int) int {
	switch {
	case n < minCapacity:
		return minCapacity
	case n > maxHeadroom:
		return n + maxHeadroom
	default:
		return 2 * n
	}
}

// Concat returns left followed by right.
//
// When left is the most recently published tail of its owner's buffer and
// the owner has room, right is written into the owner's spare capacity and
// the result is a dependent string over the extended range. Otherwise a fresh
// buffer with headroom is allocated so that later appends can go in place.
func Concat(mc *arena.Mutation, left, right String) String {
	if left.IsEmpty() {
		return right
	}
	if right.IsEmpty() {
		return left
	}
	// Widths must match; appending narrow bytes into a wide buffer (or the
	// reverse) would need a conversion, so mixed widths always copy.
	if left.IsWide() == right.IsWide() {
		if s, ok := appendInPlace(mc, left, right); ok {
			return s
		}
	}
	return concatCopy(mc, left, right)
}

// ConcatCopy is Concat without the in-place path: every non-trivial result
// gets a fresh buffer.
func ConcatCopy(mc *arena.Mutation, left, right String) String {
	if left.IsEmpty() {
		return right
	}
	if right.IsEmpty() {
		return left
	}
	return concatCopy(mc, left, right)
}

// appendInPlace writes right into the spare capacity of left's owner.
//
// Assume a="abc", b=a+"d", c=a.substr(1), and we run d=c+"e":
//
//	a          ->  abc
//	b          ->  abcd
//	c          ->   bc       v capacity end
//	a's buffer ->  abcd_______
//	                  ^ firstRequested
//	                   ^ firstAvailable
//
// The write is only safe when firstRequested and firstAvailable coincide:
// then no other string has published anything past the end of left, so the
// units about to be written are invisible to every existing view.
func appendInPlace(mc *arena.Mutation, left, right String) (String, bool) {
	if left.IsStatic() {
		return String{}, false
	}
	ownerStr := left.resolveOwner()
	owner := ownerStr.repr.Get()
	l := left.repr.Get()

	// All views of the owner share its backing array, so offsets in that
	// array compare exactly like addresses.
	firstAvailable := owner.charsUsed
	firstRequested := l.off + l.view.Len()
	if firstAvailable != firstRequested {
		return String{}, false
	}
	if owner.capacity-owner.charsUsed < right.Len() {
		return String{}, false
	}

	// Write first, then publish.
	owner.buf.WriteAt(firstAvailable, right.View())
	owner.setCharsUsed(mc, owner.charsUsed+right.Len())

	repr := newDependentRaw(ownerStr, l.off, l.view.Len()+right.Len(), l.view.IsWide())
	return fromRepr(arena.Alloc(mc, repr)), true
}

// concatCopy allocates a fresh buffer with growth headroom. Overallocating
// here means every first-time append lands here, but later appends to the
// result can go in place.
func concatCopy(mc *arena.Mutation, left, right String) String {
	n := left.Len() + right.Len()
	buf := wstr.WithCapacity(growCapacity(n), left.IsWide() || right.IsWide())
	buf.PushStr(left.View())
	buf.PushStr(right.View())
	return New(mc, buf)
}
