package memory

// Kind is the element type of a View.
type Kind uint8

const (
	Int8 Kind = iota
	Uint8
	Uint8Clamped
	Int16
	Uint16
	Int32
	Uint32
	BigInt64
	BigUint64
	Float32
	Float64
	DataView
)

var kindNames = [...]string{
	Int8:         "Int8",
	Uint8:        "Uint8",
	Uint8Clamped: "Uint8Clamped",
	Int16:        "Int16",
	Uint16:       "Uint16",
	Int32:        "Int32",
	Uint32:       "Uint32",
	BigInt64:     "BigInt64",
	BigUint64:    "BigUint64",
	Float32:      "Float32",
	Float64:      "Float64",
	DataView:     "DataView",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Valid reports whether k names a known element kind.
func (k Kind) Valid() bool {
	return k <= DataView
}

// ElementSize returns the byte width of one element. DataView addresses bytes.
func (k Kind) ElementSize() int {
	switch k {
	case Int8, Uint8, Uint8Clamped, DataView:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case BigInt64, BigUint64, Float64:
		return 8
	}
	return 0
}

// Kinds lists every kind in enumeration order.
func Kinds() []Kind {
	return []Kind{Int8, Uint8, Uint8Clamped, Int16, Uint16, Int32, Uint32, BigInt64, BigUint64, Float32, Float64, DataView}
}
