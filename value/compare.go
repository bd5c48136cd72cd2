package value

import (
	"math"
	"reflect"
)

// Equal implements strict equality (===). Reference values compare by
// identity; NaN is not equal to itself.
func Equal(a, b Value) bool {
	if a.Tag() != b.Tag() {
		return false
	}
	switch x := a.raw.(type) {
	case nil:
		return b.raw == nil
	case float64:
		y, _ := b.raw.(float64)
		return x == y
	}
	return identical(a.raw, b.raw)
}

// SameValue implements Object.is: NaN equals NaN and +0 differs from -0.
func SameValue(a, b Value) bool {
	x, xok := a.raw.(float64)
	y, yok := b.raw.(float64)
	if xok && yok {
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y && math.Signbit(x) == math.Signbit(y)
	}
	return Equal(a, b)
}

func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		// funcs and other incomparable values compare by code pointer
		if ta.Kind() == reflect.Func {
			return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
		}
		return false
	}
	return a == b
}

// Truthy implements ToBoolean.
func Truthy(v Value) bool {
	switch x := v.raw.(type) {
	case nil, NullType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}
