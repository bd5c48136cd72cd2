package value

import (
	"github.com/wippyai/wasm-bridge/memory"
)

// NullType is the raw representation of the null value.
type NullType struct{}

// Value is a dynamic host value together with its tag. The zero Value is
// the absent (undefined) value.
type Value struct {
	tag Tag
	raw any
}

var (
	// Undefined is the absent value.
	Undefined = Value{tag: TagAbsent}
	// Null is the null value. It classifies as TagOther.
	Null = Value{tag: TagOther, raw: NullType{}}
	// True and False are the boolean values.
	True  = Value{tag: TagBool, raw: true}
	False = Value{tag: TagBool, raw: false}
)

// Number builds a number value.
func Number(f float64) Value { return Value{tag: TagNumber, raw: f} }

// String builds a string value.
func String(s string) Value { return Value{tag: TagString, raw: s} }

// Bool builds a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Tag returns the classification tag.
func (v Value) Tag() Tag {
	if v.tag == 0 {
		return TagAbsent
	}
	return v.tag
}

// Raw returns the normalised host value.
func (v Value) Raw() any { return v.raw }

func (v Value) IsUndefined() bool { return v.Tag() == TagAbsent }

func (v Value) IsNull() bool {
	_, ok := v.raw.(NullType)
	return ok
}

// IsNullish reports undefined or null.
func (v Value) IsNullish() bool { return v.IsUndefined() || v.IsNull() }

func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

func (v Value) Number() (float64, bool) {
	f, ok := v.raw.(float64)
	return f, ok
}

func (v Value) Str() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

func (v Value) Array() (*Array, bool) {
	a, ok := v.raw.(*Array)
	return a, ok && a != nil
}

func (v Value) Object() (*Object, bool) {
	o, ok := v.raw.(*Object)
	return o, ok && o != nil
}

func (v Value) View() (*memory.View, bool) {
	vw, ok := v.raw.(*memory.View)
	return vw, ok && vw != nil
}

func (v Value) Buffer() (*memory.Buffer, bool) {
	b, ok := v.raw.(*memory.Buffer)
	return b, ok && b != nil
}

func (v Value) Callable() (Callable, bool) {
	c, ok := v.raw.(Callable)
	return c, ok
}

// Error returns the raw error of a value built from a Go error.
func (v Value) Error() (error, bool) {
	err, ok := v.raw.(error)
	return err, ok
}

func normalize(raw any) any {
	switch x := raw.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []Value:
		return &Array{Items: x}
	}
	return raw
}
