// Package snapshot saves and restores the contents of an interner as
// canonical CBOR, so a runtime can warm its atom table from a previous
// session.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/avmstring/arena"
	"github.com/chazu/avmstring/avmstr"
	"github.com/chazu/avmstring/wstr"
)

// Version is the snapshot format version written by Marshal.
const Version = 1

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Entry is one atom's content. Narrow atoms carry their bytes in Narrow;
// wide atoms carry their UTF-16 units in Wide.
type Entry struct {
	Wide   bool     `cbor:"1,keyasint"`
	Narrow []byte   `cbor:"2,keyasint,omitempty"`
	Units  []uint16 `cbor:"3,keyasint,omitempty"`
}

// Snapshot is the serialized form of an interner.
type Snapshot struct {
	Version int     `cbor:"1,keyasint"`
	Source  string  `cbor:"2,keyasint"` // ID of the arena the atoms came from
	Entries []Entry `cbor:"3,keyasint"`
}

// Take records every atom of in in interning order.
func Take(in *avmstr.Interner, source uuid.UUID) *Snapshot {
	atoms := in.Atoms()
	s := &Snapshot{
		Version: Version,
		Source:  source.String(),
		Entries: make([]Entry, 0, len(atoms)),
	}
	for _, a := range atoms {
		s.Entries = append(s.Entries, entryOf(a.View()))
	}
	return s
}

func entryOf(v wstr.Str) Entry {
	if v.IsWide() {
		return Entry{Wide: true, Units: append([]uint16(nil), v.Wide()...)}
	}
	return Entry{Narrow: append([]byte(nil), v.Bytes()...)}
}

// Str returns the entry's content as a view.
func (e Entry) Str() wstr.Str {
	if e.Wide {
		return wstr.FromUnits(e.Units)
	}
	return wstr.FromLatin1(e.Narrow)
}

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes and checks its version.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d (want %d)", s.Version, Version)
	}
	if _, err := uuid.Parse(s.Source); err != nil {
		return nil, fmt.Errorf("snapshot: bad source id %q: %w", s.Source, err)
	}
	return &s, nil
}

// Restore interns every entry of s into in and returns how many atoms were
// newly created. Content already present keeps its existing atom. Every
// restored atom is retained by in, so a warmed table survives collections
// until the caller releases what it no longer needs.
func Restore(mc *arena.Mutation, in *avmstr.Interner, s *Snapshot) (int, error) {
	if s.Version != Version {
		return 0, fmt.Errorf("snapshot: unsupported version %d (want %d)", s.Version, Version)
	}
	before := in.Len()
	for i, e := range s.Entries {
		if e.Wide && len(e.Narrow) > 0 || !e.Wide && len(e.Units) > 0 {
			return in.Len() - before, fmt.Errorf("snapshot: entry %d has content of the wrong width", i)
		}
		in.Retain(mc, in.InternStr(mc, e.Str()))
	}
	return in.Len() - before, nil
}
