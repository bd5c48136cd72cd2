package jsstring

import (
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// CharCodeAt returns the code unit at index i, or 0 when i is out of range.
func CharCodeAt(s string, i int) uint16 {
	if i < 0 {
		return 0
	}
	var out uint16
	n := 0
	each(s, func(u uint16) bool {
		if n == i {
			out = u
			return false
		}
		n++
		return true
	})
	return out
}

// Compare orders strings by code units and returns -1, 0 or 1.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	if isASCII(a) && isASCII(b) {
		return strings.Compare(a, b)
	}
	return slices.Compare(Units(a), Units(b))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Concat joins two strings. A high surrogate at the end of a and a low
// surrogate at the start of b combine into one code point.
func Concat(a, b string) string {
	if hi, ok := trailingSurrogate(a); ok && isHigh(hi) {
		if lo, ok := loneSurrogate(b); ok && isLow(lo) {
			var w Writer
			w.Grow(len(a) + len(b))
			w.b.WriteString(a[:len(a)-3])
			w.WriteUnit(hi)
			w.WriteUnit(lo)
			w.b.WriteString(b[3:])
			return w.String()
		}
	}
	return a + b
}

func trailingSurrogate(s string) (uint16, bool) {
	if len(s) < 3 {
		return 0, false
	}
	return loneSurrogate(s[len(s)-3:])
}

// Equals reports whether a and b have the same code units.
func Equals(a, b string) bool {
	return a == b
}

// FromCharCode builds a one-unit string.
func FromCharCode(u uint16) string {
	return FromUnits([]uint16{u})
}

// Substring returns units [start, end). Indices are clamped to [0, len] and
// swapped when start > end.
func Substring(s string, start, end int) string {
	n := Length(s)
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if start > end {
		start, end = end, start
	}
	if start == 0 && end == n {
		return s
	}
	if isASCII(s) {
		return s[start:end]
	}
	return FromUnits(Units(s)[start:end])
}

// IndexOf returns the first unit index of sub at or after from, or -1.
func IndexOf(s, sub string, from int) int {
	units, needle := Units(s), Units(sub)
	from = min(max(from, 0), len(units))
	for i := from; i+len(needle) <= len(units); i++ {
		if slices.Equal(units[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the last unit index of sub at or before from, or -1.
func LastIndexOf(s, sub string, from int) int {
	units, needle := Units(s), Units(sub)
	start := min(max(from, 0), len(units)-len(needle))
	for i := start; i >= 0; i-- {
		if slices.Equal(units[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// CodePointAt returns the code point starting at unit index i, combining a
// surrogate pair. It returns -1 when i is out of range.
func CodePointAt(s string, i int) rune {
	units := Units(s)
	if i < 0 || i >= len(units) {
		return -1
	}
	u := units[i]
	if isHigh(u) && i+1 < len(units) && isLow(units[i+1]) {
		return utf16.DecodeRune(rune(u), rune(units[i+1]))
	}
	return rune(u)
}

// FromCodePoint encodes one code point. Surrogate code points stay lone.
func FromCodePoint(cp rune) (string, bool) {
	switch {
	case cp < 0 || cp > utf8.MaxRune:
		return "", false
	case cp >= surrHigh && cp < surrEnd:
		return FromCharCode(uint16(cp)), true
	}
	return string(cp), true
}

// IsWellFormed reports whether s has no lone surrogates.
func IsWellFormed(s string) bool {
	return utf8.ValidString(s)
}

// WellFormed replaces every lone surrogate with U+FFFD, yielding valid UTF-8.
func WellFormed(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if _, ok := loneSurrogate(s[i:]); ok {
			b.WriteRune(utf8.RuneError)
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// Split splits s around sep. An empty separator splits into code units.
func Split(s, sep string) []string {
	if sep != "" {
		return strings.Split(s, sep)
	}
	units := Units(s)
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = FromCharCode(u)
	}
	return out
}

// UnitOffset converts a rune index into runes to a code unit index.
func UnitOffset(runes []rune, i int) int {
	n := 0
	for _, r := range runes[:min(i, len(runes))] {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// RuneOffset converts a code unit index into the rune index of runes.
func RuneOffset(runes []rune, units int) int {
	n := 0
	for i, r := range runes {
		if n >= units {
			return i
		}
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return len(runes)
}
