package wstr

import "fmt"

// ---------------------------------------------------------------------------
// Buf: owned, growable unit buffer
// ---------------------------------------------------------------------------

// Buf is an owned buffer of units. Its capacity is the capacity of the
// backing array; units between Len and Cap are spare and only become
// visible through View once written.
type Buf struct {
	narrow []byte
	wide   []uint16
	isWide bool
}

// WithCapacity returns an empty buffer able to hold n units without
// reallocating.
func WithCapacity(n int, wide bool) Buf {
	if wide {
		return Buf{wide: make([]uint16, 0, n), isWide: true}
	}
	return Buf{narrow: make([]byte, 0, n)}
}

// FromStr returns a buffer holding a copy of s, with no spare capacity.
func FromStr(s Str) Buf {
	b := WithCapacity(s.Len(), s.IsWide())
	b.PushStr(s)
	return b
}

// Len returns the number of units pushed into the buffer.
func (b *Buf) Len() int {
	if b.isWide {
		return len(b.wide)
	}
	return len(b.narrow)
}

// Cap returns the number of units the backing array can hold.
func (b *Buf) Cap() int {
	if b.isWide {
		return cap(b.wide)
	}
	return cap(b.narrow)
}

// IsWide reports whether the buffer stores 16-bit units.
func (b *Buf) IsWide() bool {
	return b.isWide
}

// Str returns a view over the pushed units.
func (b *Buf) Str() Str {
	return b.View(0, b.Len())
}

// View returns a view over units [i, j) of the backing array. j may
// exceed Len up to Cap; callers are responsible for having written those
// units first.
func (b *Buf) View(i, j int) Str {
	if b.isWide {
		return Str{wide: b.wide[i:j:j], isWide: true}
	}
	return Str{narrow: b.narrow[i:j:j]}
}

// PushStr appends the units of s. Pushing a wide sequence into a narrow
// buffer widens the buffer first, keeping its capacity.
func (b *Buf) PushStr(s Str) {
	if s.isWide && !b.isWide {
		b.widen()
	}
	switch {
	case b.isWide && s.isWide:
		b.wide = append(b.wide, s.wide...)
	case b.isWide:
		for _, c := range s.narrow {
			b.wide = append(b.wide, uint16(c))
		}
	default:
		b.narrow = append(b.narrow, s.narrow...)
	}
}

// WriteAt copies the units of s into the backing array starting at off,
// without changing Len. Widths must match and the write must fit in Cap.
func (b *Buf) WriteAt(off int, s Str) {
	if s.isWide != b.isWide {
		panic("bug: wstr: WriteAt width mismatch")
	}
	end := off + s.Len()
	if off < 0 || end > b.Cap() {
		panic(fmt.Sprintf("bug: wstr: WriteAt [%d, %d) outside capacity %d", off, end, b.Cap()))
	}
	if b.isWide {
		copy(b.wide[off:end:end], s.wide)
		return
	}
	copy(b.narrow[off:end:end], s.narrow)
}

// Release drops the backing array and returns how many units of capacity
// it held.
func (b *Buf) Release() int {
	n := b.Cap()
	b.narrow = nil
	b.wide = nil
	return n
}

// SizeBytes returns the size of the backing array in bytes.
func (b *Buf) SizeBytes() int {
	if b.isWide {
		return 2 * cap(b.wide)
	}
	return cap(b.narrow)
}

func (b *Buf) widen() {
	w := make([]uint16, len(b.narrow), max(cap(b.narrow), len(b.narrow)))
	for i, c := range b.narrow {
		w[i] = uint16(c)
	}
	b.wide = w
	b.narrow = nil
	b.isWide = true
}
