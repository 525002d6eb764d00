package wstr

import "testing"

func TestBufPushAndView(t *testing.T) {
	b := WithCapacity(8, false)
	b.PushStr(Static("abc"))
	if b.Len() != 3 || b.Cap() != 8 {
		t.Fatalf("Len/Cap = %d/%d, want 3/8", b.Len(), b.Cap())
	}
	if got := b.Str().String(); got != "abc" {
		t.Errorf("Str() = %q, want abc", got)
	}
	if b.SizeBytes() != 8 {
		t.Errorf("SizeBytes() = %d, want 8", b.SizeBytes())
	}
}

func TestBufPushWidens(t *testing.T) {
	b := WithCapacity(10, false)
	b.PushStr(Static("ab"))
	b.PushStr(FromUTF8("€"))
	if !b.IsWide() {
		t.Fatal("pushing a wide sequence should widen the buffer")
	}
	if b.Cap() < 10 {
		t.Errorf("widening should keep capacity, got %d", b.Cap())
	}
	if got := b.Str().String(); got != "ab€" {
		t.Errorf("Str() = %q, want ab€", got)
	}
	b.PushStr(Static("c"))
	if got := b.Str().String(); got != "ab€c" {
		t.Errorf("Str() = %q, want ab€c", got)
	}
}

func TestBufWriteAtSpare(t *testing.T) {
	b := WithCapacity(6, false)
	b.PushStr(Static("ab"))
	b.WriteAt(2, Static("cd"))
	if b.Len() != 2 {
		t.Errorf("WriteAt should not change Len, got %d", b.Len())
	}
	if got := b.View(0, 4).String(); got != "abcd" {
		t.Errorf("View(0, 4) = %q, want abcd", got)
	}
}

func TestBufWriteAtPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"overflow", func() {
			b := WithCapacity(2, false)
			b.WriteAt(1, Static("xy"))
		}},
		{"width", func() {
			b := WithCapacity(4, true)
			b.WriteAt(0, Static("x"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestBufRelease(t *testing.T) {
	b := FromStr(Static("hello"))
	if n := b.Release(); n != 5 {
		t.Errorf("Release() = %d, want 5", n)
	}
	if b.Cap() != 0 {
		t.Errorf("Cap after Release = %d, want 0", b.Cap())
	}
}

func TestViewsAreCapped(t *testing.T) {
	b := WithCapacity(8, false)
	b.PushStr(Static("abcd"))
	v := b.View(0, 2)
	// Appending to a view must never write into the owner's spare capacity.
	grown := append(v.Bytes(), 'z')
	grown[0] = 'q'
	if b.Str().String() != "abcd" {
		t.Errorf("owner was modified through a view: %q", b.Str())
	}
}

func TestSameView(t *testing.T) {
	b := FromStr(Static("abcdef"))
	whole := b.Str()
	if !SameView(whole, b.View(0, 6)) {
		t.Error("two views of the same range should be the same")
	}
	if SameView(whole, b.View(0, 5)) || SameView(whole.Slice(1, 3), whole.Slice(2, 4)) {
		t.Error("different ranges should not be the same")
	}
	other := FromStr(Static("abcdef"))
	if SameView(whole, other.Str()) {
		t.Error("equal content in different buffers should not be the same")
	}
	if !SameView(Empty(), whole.Slice(2, 2)) {
		t.Error("empty views are always the same")
	}
}
