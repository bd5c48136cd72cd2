package value

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/wasm-bridge/memory"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"  +3.5e2  ", 350},
		{"  42.5e1 ", 425},
		{"42", 42},
		{"-0.5", -0.5},
		{"+.5", 0.5},
		{"5.", 5},
		{"1e400", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"\u00a012\ufeff", 12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}

	for _, bad := range []string{"abc", "0x10", "", " ", "1_000", "12abc", "e5", ".", "infinity", "1e", "--1"} {
		t.Run("reject "+bad, func(t *testing.T) {
			assert.True(t, math.IsNaN(ParseNumber(bad)), "ParseNumber(%q)", bad)
		})
	}

	assert.True(t, math.IsNaN(ParseNumber("NaN")))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 12.5, ParseFloat("  12.5px"))
	assert.Equal(t, 1.0, ParseFloat("1e"))
	assert.Equal(t, 100.0, ParseFloat("1e2x"))
	assert.Equal(t, math.Inf(-1), ParseFloat("-Infinityyy"))
	assert.True(t, math.IsNaN(ParseFloat("px12")))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{42, "42"},
		{-1.5, "-1.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789, "123456789"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestToString(t *testing.T) {
	view, _ := memory.NewArray(memory.Uint8, 3)
	_ = view.SetValues([]float64{1, 2, 3}, 0)
	dv, _ := memory.Copy(memory.NewBuffer(2), 0, 2)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"undefined", Undefined, "undefined"},
		{"null", Null, "null"},
		{"bool", True, "true"},
		{"number", Number(2.5), "2.5"},
		{"list", Of(NewArray(Number(1), Undefined, String("x"), Null)), "1,,x,"},
		{"object", Of(NewObject()), "[object Object]"},
		{"classed", Of(NewObjectOf("Date")), "[object Date]"},
		{"view", Of(view), "1,2,3"},
		{"dataview", Of(dv), "[object DataView]"},
		{"shared", Of(memory.NewSharedBuffer(1)), "[object SharedArrayBuffer]"},
		{"error", Of(errors.New("boom")), "Error: boom"},
		{"func", Of(Func(func(context.Context, ...Value) (Value, error) { return Undefined, nil })), "function () { [native code] }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToString(tt.v))
		})
	}
}

func TestToNumber(t *testing.T) {
	assert.True(t, math.IsNaN(ToNumber(Undefined)))
	assert.Equal(t, 0.0, ToNumber(Null))
	assert.Equal(t, 1.0, ToNumber(True))
	assert.Equal(t, 0.0, ToNumber(String("  ")))
	assert.Equal(t, 16.0, ToNumber(String("0x10")))
	assert.Equal(t, 7.0, ToNumber(Of(NewArray(String("7")))))
	assert.True(t, math.IsNaN(ToNumber(Of(NewObject()))))
}

func TestEquality(t *testing.T) {
	arr := NewArray()
	nan := Number(math.NaN())

	assert.True(t, Equal(Of(arr), Of(arr)))
	assert.False(t, Equal(Of(arr), Of(NewArray())))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(Number(1), String("1")))
	assert.False(t, Equal(nan, nan))
	assert.True(t, SameValue(nan, nan))
	assert.True(t, Equal(Number(0), Number(math.Copysign(0, -1))))
	assert.False(t, SameValue(Number(0), Number(math.Copysign(0, -1))))
	assert.True(t, Equal(Undefined, Value{}))
	assert.True(t, Equal(Null, Null))

	f := Func(func(context.Context, ...Value) (Value, error) { return Undefined, nil })
	assert.True(t, Equal(Of(f), Of(f)))
}

func TestTruthy(t *testing.T) {
	for _, v := range []Value{Undefined, Null, False, Number(0), Number(math.NaN()), String("")} {
		assert.False(t, Truthy(v), "%v", v)
	}
	for _, v := range []Value{True, Number(-1), String("0"), Of(NewArray()), Of(NewObject())} {
		assert.True(t, Truthy(v), "%v", v)
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "undefined", TypeOf(Undefined))
	assert.Equal(t, "object", TypeOf(Null))
	assert.Equal(t, "function", TypeOf(Of(Func(nil))))
	assert.Equal(t, "number", TypeOf(Number(1)))
}

func TestToFixed(t *testing.T) {
	tests := []struct {
		in     float64
		digits int
		want   string
	}{
		{1.005, 2, "1.00"},
		{0.5, 0, "1"},
		{2.5, 0, "3"},
		{-0.0001, 2, "-0.00"},
		{123.456, 1, "123.5"},
		{0.000001, 3, "0.000"},
		{42, 3, "42.000"},
		{1e21, 2, "1e+21"},
		{math.NaN(), 2, "NaN"},
	}
	for _, tt := range tests {
		got, err := ToFixed(tt.in, tt.digits)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "ToFixed(%v, %d)", tt.in, tt.digits)
	}

	_, err := ToFixed(1, 101)
	assert.Error(t, err)
}

func TestStrings(t *testing.T) {
	vs := Strings([]string{"a", ""})
	assert.Len(t, vs, 2)
	assert.Equal(t, []Value{String("a"), String("")}, vs)
	assert.Empty(t, Strings(nil))
}
