package value

import "strings"

// Array is a host list. It is a reference value.
type Array struct {
	Items []Value
}

// NewArray builds a list from values.
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

// Strings converts each string to a string value.
func Strings(ss []string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// NewArrayOf builds a list of n undefined entries.
func NewArrayOf(n int) *Array {
	return &Array{Items: make([]Value, n)}
}

func (a *Array) Len() int { return len(a.Items) }

// At returns element i, or Undefined outside the list.
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.Items) {
		return Undefined
	}
	return a.Items[i]
}

// Set stores v at i, growing the list with undefined entries as needed.
func (a *Array) Set(i int, v Value) {
	if i < 0 {
		return
	}
	for len(a.Items) <= i {
		a.Items = append(a.Items, Undefined)
	}
	a.Items[i] = v
}

func (a *Array) Push(v Value) {
	a.Items = append(a.Items, v)
}

// Pop removes and returns the last element, Undefined when empty.
func (a *Array) Pop() Value {
	if len(a.Items) == 0 {
		return Undefined
	}
	v := a.Items[len(a.Items)-1]
	a.Items = a.Items[:len(a.Items)-1]
	return v
}

// RemoveAt removes and returns element i.
func (a *Array) RemoveAt(i int) Value {
	if i < 0 || i >= len(a.Items) {
		return Undefined
	}
	v := a.Items[i]
	a.Items = append(a.Items[:i], a.Items[i+1:]...)
	return v
}

// Truncate sets the length, padding with undefined when growing.
func (a *Array) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(a.Items) {
		clear(a.Items[n:])
		a.Items = a.Items[:n]
		return
	}
	a.Set(n-1, Undefined)
}

// Slice copies [start, end) with relative (negative) index support.
func (a *Array) Slice(start, end int) *Array {
	n := len(a.Items)
	start = relative(start, n)
	end = relative(end, n)
	if end < start {
		end = start
	}
	out := make([]Value, end-start)
	copy(out, a.Items[start:end])
	return &Array{Items: out}
}

func relative(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}

// Join renders elements with sep; undefined and null render empty.
func (a *Array) Join(sep string) string {
	parts := make([]string, len(a.Items))
	for i, v := range a.Items {
		if v.IsNullish() {
			continue
		}
		parts[i] = ToString(v)
	}
	return strings.Join(parts, sep)
}
