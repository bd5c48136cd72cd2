package jsstring

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	surrHigh = 0xD800
	surrLow  = 0xDC00
	surrEnd  = 0xE000
)

func isHigh(u uint16) bool { return u >= surrHigh && u < surrLow }
func isLow(u uint16) bool  { return u >= surrLow && u < surrEnd }

// loneSurrogate decodes a WTF-8 encoded surrogate at the start of s.
func loneSurrogate(s string) (uint16, bool) {
	if len(s) >= 3 && s[0] == 0xED && s[1] >= 0xA0 && s[1] <= 0xBF && s[2]&0xC0 == 0x80 {
		return 0xD000 | uint16(s[1]&0x3F)<<6 | uint16(s[2]&0x3F), true
	}
	return 0, false
}

// each calls fn for every code unit of s.
func each(s string, fn func(u uint16) bool) {
	for i := 0; i < len(s); {
		if u, ok := loneSurrogate(s[i:]); ok {
			if !fn(u) {
				return
			}
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			if !fn(uint16(hi)) || !fn(uint16(lo)) {
				return
			}
			continue
		}
		if !fn(uint16(r)) {
			return
		}
	}
}

// Units returns the UTF-16 code units of s.
func Units(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	each(s, func(u uint16) bool {
		out = append(out, u)
		return true
	})
	return out
}

// Length returns the number of UTF-16 code units in s.
func Length(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if _, ok := loneSurrogate(s[i:]); ok {
			n++
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Writer builds a WTF-8 string from code units, pairing surrogates that
// arrive in separate writes.
type Writer struct {
	b       strings.Builder
	pending uint16
}

// Grow reserves room for n more bytes.
func (w *Writer) Grow(n int) { w.b.Grow(n) }

// WriteUnit appends one code unit.
func (w *Writer) WriteUnit(u uint16) {
	if w.pending != 0 {
		hi := w.pending
		w.pending = 0
		if isLow(u) {
			w.b.WriteRune(utf16.DecodeRune(rune(hi), rune(u)))
			return
		}
		writeSurrogate(&w.b, hi)
	}
	switch {
	case isHigh(u):
		w.pending = u
	case isLow(u):
		writeSurrogate(&w.b, u)
	default:
		w.b.WriteRune(rune(u))
	}
}

// WriteUnits appends code units.
func (w *Writer) WriteUnits(units []uint16) {
	for _, u := range units {
		w.WriteUnit(u)
	}
}

// String flushes any unpaired high surrogate and returns the result.
func (w *Writer) String() string {
	if w.pending != 0 {
		writeSurrogate(&w.b, w.pending)
		w.pending = 0
	}
	return w.b.String()
}

func writeSurrogate(b *strings.Builder, u uint16) {
	b.WriteByte(0xE0 | byte(u>>12))
	b.WriteByte(0x80 | byte(u>>6)&0x3F)
	b.WriteByte(0x80 | byte(u)&0x3F)
}

// FromUnits builds a string from code units. Unpaired surrogates are kept.
func FromUnits(units []uint16) string {
	var w Writer
	w.Grow(len(units))
	w.WriteUnits(units)
	return w.String()
}
