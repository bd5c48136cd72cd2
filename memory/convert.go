package memory

import "math"

const two32 = 4294967296.0

// toUint32 applies ToUint32 modular conversion; NaN and infinities map to 0.
func toUint32(v float64) uint32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(v), two32)
	if m < 0 {
		m += two32
	}
	return uint32(m)
}

// clampUint8 implements Uint8Clamped conversion: clamp to [0, 255] and round
// half to even.
func clampUint8(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// toInt64 truncates toward zero and wraps modulo 2^64.
func toInt64(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	t := math.Trunc(v)
	if t >= -9.223372036854775808e18 && t < 9.223372036854775808e18 {
		return int64(t)
	}
	m := math.Mod(t, 18446744073709551616.0)
	if m < 0 {
		m += 18446744073709551616.0
	}
	if m >= 9.223372036854775808e18 {
		return int64(uint64(m))
	}
	return int64(m)
}
