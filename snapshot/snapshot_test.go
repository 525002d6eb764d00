package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/avmstr"
	"github.com/chazu/avmstring/wstr"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src := arena.New()
	var data []byte
	var want []string
	src.Mutate(func(mc *arena.Mutation) {
		in := avmstr.NewInterner(mc)
		in.InternStatic(mc, "alpha")
		in.Intern(mc, avmstr.NewUTF8(mc, "ωmega"))
		snap := Take(in, src.ID())
		if snap.Source != src.ID().String() {
			t.Errorf("Source = %q, want %q", snap.Source, src.ID())
		}
		for _, a := range in.Atoms() {
			want = append(want, a.String())
		}
		var err error
		data, err = Marshal(snap)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
	})

	snap, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(snap.Entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(snap.Entries), len(want))
	}
	for i, e := range snap.Entries {
		if got := e.Str().String(); got != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got, want[i])
		}
	}

	dst := arena.New()
	dst.Mutate(func(mc *arena.Mutation) {
		in := avmstr.NewInterner(mc)
		created, err := Restore(mc, in, snap)
		if err != nil {
			t.Fatalf("Restore: %v", err)
		}
		// Common atoms already exist; only the two custom ones are new.
		if created != 2 {
			t.Errorf("created = %d, want 2", created)
		}
		omega, ok := in.Lookup(avmstr.FromStr(wstr.FromUTF8("ωmega")))
		if !ok || !omega.View().IsWide() {
			t.Error("wide atom should be restored wide")
		}

		again, err := Restore(mc, in, snap)
		if err != nil || again != 0 {
			t.Errorf("second Restore created %d (err %v), want 0", again, err)
		}
	})
}

func TestMarshalIsDeterministic(t *testing.T) {
	id := uuid.New()
	snap := &Snapshot{
		Version: Version,
		Source:  id.String(),
		Entries: []Entry{entryOf(wstr.Static("a")), entryOf(wstr.FromUTF8("€"))},
	}
	a, err := Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding should be deterministic")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("garbage should not decode")
	}

	bad, _ := Marshal(&Snapshot{Version: Version + 1, Source: uuid.New().String()})
	if _, err := Unmarshal(bad); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("expected unsupported version error, got %v", err)
	}

	noID, _ := Marshal(&Snapshot{Version: Version, Source: "not-a-uuid"})
	if _, err := Unmarshal(noID); err == nil || !strings.Contains(err.Error(), "bad source id") {
		t.Errorf("expected bad source id error, got %v", err)
	}
}

func TestRestoreRejectsMixedEntry(t *testing.T) {
	a := arena.New()
	a.Mutate(func(mc *arena.Mutation) {
		in := avmstr.NewInterner(mc)
		snap := &Snapshot{
			Version: Version,
			Source:  a.ID().String(),
			Entries: []Entry{{Wide: true, Narrow: []byte("x")}},
		}
		if _, err := Restore(mc, in, snap); err == nil {
			t.Error("an entry with content of the wrong width should be rejected")
		}
		if _, err := Restore(mc, in, &Snapshot{Version: 0}); err == nil {
			t.Error("Restore should check the version")
		}
	})
}

func TestRestoredAtomsSurviveCollection(t *testing.T) {
	snap := &Snapshot{
		Version: Version,
		Source:  uuid.New().String(),
		Entries: []Entry{entryOf(wstr.Static("warm")), entryOf(wstr.FromUTF8("ωarm"))},
	}

	a := arena.New()
	var in *avmstr.Interner
	a.Mutate(func(mc *arena.Mutation) {
		in = avmstr.NewInterner(mc)
		if _, err := Restore(mc, in, snap); err != nil {
			t.Fatalf("Restore: %v", err)
		}
	})
	a.Collect()

	for _, e := range snap.Entries {
		if _, ok := in.Lookup(avmstr.FromStr(e.Str())); !ok {
			t.Errorf("restored atom %q should survive a collection", e.Str())
		}
	}
	if in.Retained() != 2 {
		t.Errorf("Retained() = %d, want 2", in.Retained())
	}
}
