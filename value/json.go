package value

import (
	"bytes"
	"encoding/json"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wippyai/wasm-bridge/memory"
)

// Stringify renders v as JSON text. ok is false when v has no JSON form
// (undefined or a callable at the top level).
func Stringify(v Value) (string, bool) {
	var b bytes.Buffer
	if !writeJSON(&b, v) {
		return "", false
	}
	return b.String(), true
}

func skipped(v Value) bool {
	if v.IsUndefined() {
		return true
	}
	_, isFn := v.raw.(Callable)
	return isFn
}

func writeJSON(b *bytes.Buffer, v Value) bool {
	if skipped(v) {
		return false
	}
	switch x := v.raw.(type) {
	case NullType:
		b.WriteString("null")
	case bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			b.WriteString("null")
		} else {
			b.WriteString(FormatNumber(x))
		}
	case string:
		enc, _ := json.Marshal(x)
		b.Write(enc)
	case *Array:
		b.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			if !writeJSON(b, item) {
				b.WriteString("null")
			}
		}
		b.WriteByte(']')
	case *memory.View:
		if x.IsDataView() {
			b.WriteString("{}")
			break
		}
		b.WriteByte('{')
		for i, f := range x.Values() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`"` + FormatNumber(float64(i)) + `":`)
			writeJSON(b, Number(f))
		}
		b.WriteByte('}')
	case *Object:
		b.WriteByte('{')
		first := true
		x.Each(func(key string, item Value) bool {
			if skipped(item) {
				return true
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			enc, _ := json.Marshal(key)
			b.Write(enc)
			b.WriteByte(':')
			writeJSON(b, item)
			return true
		})
		b.WriteByte('}')
	default:
		b.WriteString("{}")
	}
	return true
}

// MarshalJSON implements json.Marshaler; undefined renders as null.
func (v Value) MarshalJSON() ([]byte, error) {
	s, ok := Stringify(v)
	if !ok {
		return []byte("null"), nil
	}
	return []byte(s), nil
}

// UnmarshalJSON decodes JSON into host values: objects keep key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Undefined
		return nil
	}
	switch data[0] {
	case '{':
		props := orderedmap.New[string, Value]()
		if err := props.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = Of(&Object{props: props})
	case '[':
		var items []Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []Value{}
		}
		*v = Of(&Array{Items: items})
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 'n':
		*v = Null
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// ParseJSON parses JSON text.
func ParseJSON(text string) (Value, error) {
	var v Value
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Undefined, err
	}
	return v, nil
}
