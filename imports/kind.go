package imports

import (
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// Kind is the boundary type of a slot parameter or result.
type Kind uint8

const (
	Handle Kind = iota // i32 handle into the resource table
	I32
	I64
	F32
	F64
	Bool // i32, 0 or 1
)

var kindNames = [...]string{"handle", "i32", "i64", "f32", "f64", "bool"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ValueType returns the core wasm type k is passed as.
func (k Kind) ValueType() api.ValueType {
	switch k {
	case I64:
		return api.ValueTypeI64
	case F32:
		return api.ValueTypeF32
	case F64:
		return api.ValueTypeF64
	}
	return api.ValueTypeI32
}

// Params lists parameter kinds.
func Params(kinds ...Kind) []Kind { return kinds }

// Results lists result kinds.
func Results(kinds ...Kind) []Kind { return kinds }

// Repeat returns n copies of k.
func Repeat(k Kind, n int) []Kind {
	out := make([]Kind, n)
	for i := range out {
		out[i] = k
	}
	return out
}

func valueTypes(kinds []Kind) []api.ValueType {
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		out[i] = k.ValueType()
	}
	return out
}

// FormatSignature renders a core signature as "(i32, f64) -> (i32)".
func FormatSignature(params, results []api.ValueType) string {
	var b strings.Builder
	list := func(types []api.ValueType) {
		b.WriteByte('(')
		for i, t := range types {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(t))
		}
		b.WriteByte(')')
	}
	list(params)
	b.WriteString(" -> ")
	list(results)
	return b.String()
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
