package wstr

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ---------------------------------------------------------------------------
// UTF-8 conversion
// ---------------------------------------------------------------------------

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// FromUTF8 decodes s into a fresh sequence. The result is narrow when
// every code point fits in Latin-1, and wide (UTF-16) otherwise. Invalid
// UTF-8 is replaced with U+FFFD.
func FromUTF8(s string) Str {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	latin := true
	for _, r := range s {
		if r > 0xFF {
			latin = false
			break
		}
	}
	if latin {
		out, err := charmap.ISO8859_1.NewEncoder().String(s)
		if err != nil {
			panic("bug: wstr: latin-1 encode of latin-1 text failed: " + err.Error())
		}
		return Str{narrow: []byte(out)}
	}
	le, err := utf16le.NewEncoder().String(s)
	if err != nil {
		panic("bug: wstr: utf-16 encode of valid text failed: " + err.Error())
	}
	units := make([]uint16, len(le)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16([]byte(le[2*i : 2*i+2]))
	}
	return Str{wide: units, isWide: true}
}

// FromUTF8Bytes is FromUTF8 for a byte slice.
func FromUTF8Bytes(b []byte) Str {
	return FromUTF8(string(b))
}

// String converts the sequence to UTF-8. Unpaired surrogates become
// U+FFFD.
func (s Str) String() string {
	if s.IsEmpty() {
		return ""
	}
	if !s.isWide {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(s.narrow)
		if err != nil {
			panic("bug: wstr: latin-1 decode failed: " + err.Error())
		}
		return string(out)
	}
	le := make([]byte, 2*len(s.wide))
	for i, u := range s.wide {
		binary.LittleEndian.PutUint16(le[2*i:], u)
	}
	out, err := utf16le.NewDecoder().Bytes(le)
	if err != nil {
		panic("bug: wstr: utf-16 decode failed: " + err.Error())
	}
	return string(out)
}
