package wstr

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

const hashChunk = 256

// Hash returns a 64-bit hash of the units. Narrow and wide sequences with
// equal units hash equal, since units are fed to the hasher widened.
func (s Str) Hash() uint64 {
	h := xxh3.New()
	var buf [2 * hashChunk]byte
	n := s.Len()
	for start := 0; start < n; start += hashChunk {
		end := min(start+hashChunk, n)
		for i := start; i < end; i++ {
			binary.LittleEndian.PutUint16(buf[2*(i-start):], s.At(i))
		}
		_, _ = h.Write(buf[:2*(end-start)])
	}
	return h.Sum64()
}
