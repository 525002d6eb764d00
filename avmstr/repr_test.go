package avmstr

import (
	"testing"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/wstr"
)

// mutate runs fn with a permit on a fresh arena and returns the arena.
func mutate(fn func(mc *arena.Mutation)) *arena.Arena {
	a := arena.New()
	a.Mutate(fn)
	return a
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestOwnedReprInvariants(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		buf := wstr.WithCapacity(16, false)
		buf.PushStr(wstr.Static("hello"))
		s := New(mc, buf)
		r := s.Repr()

		if r.IsDependent() {
			t.Error("New should produce an owning record")
		}
		if r.IsInterned() {
			t.Error("New should not intern")
		}
		if r.CharsUsed() != 5 {
			t.Errorf("CharsUsed() = %d, want 5", r.CharsUsed())
		}
		if r.Capacity() != 16 {
			t.Errorf("Capacity() = %d, want 16", r.Capacity())
		}
		if _, ok := r.Owner(); ok {
			t.Error("owning record should have no owner")
		}
		if r.HeapSize() != 16 {
			t.Errorf("HeapSize() = %d, want 16", r.HeapSize())
		}
	})
}

func TestDependentReprInvariants(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		a := NewUTF8(mc, "hello world")
		b := Substring(mc, a, 6, 11)
		r := b.Repr()

		if !r.IsDependent() {
			t.Fatal("substring of an owned string should be dependent")
		}
		if r.Capacity() != 0 || r.CharsUsed() != 0 {
			t.Errorf("dependent Capacity/CharsUsed = %d/%d, want 0/0", r.Capacity(), r.CharsUsed())
		}
		if r.IsInterned() {
			t.Error("dependent should never be interned")
		}
		if r.HeapSize() != 0 {
			t.Errorf("dependent HeapSize() = %d, want 0", r.HeapSize())
		}
		if got := b.String(); got != "world" {
			t.Errorf("substring = %q, want world", got)
		}
	})
}

func TestOwnerChainIsFlattened(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		a := NewUTF8(mc, "abcdefgh")
		b := Substring(mc, a, 1, 7)
		c := Substring(mc, b, 1, 5)
		d := Substring(mc, c, 1, 3)

		for name, s := range map[string]String{"b": b, "c": c, "d": d} {
			owner, ok := s.Owner()
			if !ok || !PtrEq(owner, a) {
				t.Errorf("%s: owner should be the ultimate owner a", name)
			}
		}
		if got := d.String(); got != "de" {
			t.Errorf("d = %q, want de", got)
		}
		if d.Repr().off != 3 {
			t.Errorf("d offset = %d, want 3", d.Repr().off)
		}
	})
}

func TestMarkInternedDependentPanics(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		a := NewUTF8(mc, "abc")
		b := Substring(mc, a, 0, 2)
		expectPanic(t, "markInterned", func() { b.Repr().markInterned(mc) })
		a.Repr().markInterned(mc)
		if !a.Repr().IsInterned() {
			t.Error("owning record should accept markInterned")
		}
	})
}

func TestSetCharsUsedBounds(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		buf := wstr.WithCapacity(8, false)
		buf.PushStr(wstr.Static("abc"))
		s := New(mc, buf)
		r := s.Repr()

		r.setCharsUsed(mc, 8)
		if r.CharsUsed() != 8 {
			t.Errorf("CharsUsed() = %d, want 8", r.CharsUsed())
		}
		expectPanic(t, "below length", func() { r.setCharsUsed(mc, 2) })
		expectPanic(t, "above capacity", func() { r.setCharsUsed(mc, 9) })
		dep := Substring(mc, s, 0, 1)
		expectPanic(t, "dependent", func() { dep.Repr().setCharsUsed(mc, 1) })
	})
}

func TestDependentRawChecks(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		buf := wstr.WithCapacity(8, false)
		buf.PushStr(wstr.Static("abc"))
		owner := New(mc, buf)

		r := newDependentRaw(owner, 1, 2, false)
		if r.View().String() != "bc" {
			t.Errorf("raw dependent = %q, want bc", r.View().String())
		}
		expectPanic(t, "unpublished", func() { newDependentRaw(owner, 1, 3, false) })
		expectPanic(t, "width", func() { newDependentRaw(owner, 0, 1, true) })
		expectPanic(t, "static owner", func() { newDependentRaw(FromStatic("abc"), 0, 1, false) })
		dep := Substring(mc, owner, 0, 2)
		expectPanic(t, "dependent owner", func() { newDependentRaw(dep, 0, 1, false) })
	})
}

func TestCollectDropsOnlyOwnedBuffers(t *testing.T) {
	a := arena.New()
	var pin arena.PinID
	var ownerSize int
	a.Mutate(func(mc *arena.Mutation) {
		owner := NewUTF8(mc, "hello world")
		ownerSize = owner.Repr().HeapSize()
		dep := Substring(mc, owner, 0, 5)
		pin = mc.Pin(dep)
	})

	// The dependent keeps its owner alive.
	if stats := a.Collect(); stats.Swept != 0 {
		t.Fatalf("Swept = %d while the dependent is pinned, want 0", stats.Swept)
	}

	a.Mutate(func(mc *arena.Mutation) { mc.Unpin(pin) })
	stats := a.Collect()
	if stats.Swept != 2 {
		t.Errorf("Swept = %d, want 2", stats.Swept)
	}
	if stats.FreedBytes != ownerSize {
		t.Errorf("FreedBytes = %d, want %d (owner only)", stats.FreedBytes, ownerSize)
	}
}

func TestDropReleasesBuffer(t *testing.T) {
	mutate(func(mc *arena.Mutation) {
		s := NewUTF8(mc, "abcd")
		r := s.Repr()
		if freed := r.Drop(); freed != 4 {
			t.Errorf("Drop() = %d, want 4", freed)
		}
		if r.Capacity() != 0 || !r.View().IsEmpty() {
			t.Error("Drop should release the buffer")
		}
		dep := &Repr{owner: s}
		if dep.Drop() != 0 {
			t.Error("dependent Drop should release nothing")
		}
	})
}
