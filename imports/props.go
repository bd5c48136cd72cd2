package imports

import (
	"strconv"

	"github.com/wippyai/wasm-bridge/jsstring"
	"github.com/wippyai/wasm-bridge/value"
)

// PropertyHost is implemented by host objects that expose named members,
// such as dynamically loaded modules.
type PropertyHost interface {
	Property(name string) (value.Value, bool)
}

func arrayIndex(key string, n int) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, i < n
}

// GetProperty implements o[key] for the value kinds the bridge knows.
func GetProperty(o value.Value, key string) value.Value {
	switch x := o.Raw().(type) {
	case *value.Object:
		return x.Get(key)
	case *value.Array:
		if key == "length" {
			return value.Number(float64(x.Len()))
		}
		if i, ok := arrayIndex(key, x.Len()); ok {
			return x.At(i)
		}
	case string:
		if key == "length" {
			return value.Number(float64(jsstring.Length(x)))
		}
		if i, ok := arrayIndex(key, jsstring.Length(x)); ok {
			return value.String(jsstring.Substring(x, i, i+1))
		}
	case PropertyHost:
		if v, ok := x.Property(key); ok {
			return v
		}
	}
	if vw, ok := o.View(); ok {
		switch key {
		case "length":
			return value.Number(float64(vw.Len()))
		case "byteLength":
			return value.Number(float64(vw.ByteLength()))
		case "byteOffset":
			return value.Number(float64(vw.ByteOffset()))
		case "buffer":
			return value.Of(vw.Buffer())
		}
		if i, ok := arrayIndex(key, vw.Len()); ok {
			f, _ := vw.At(i)
			return value.Number(f)
		}
	}
	if b, ok := o.Buffer(); ok && key == "byteLength" {
		return value.Number(float64(b.ByteLength()))
	}
	return value.Undefined
}

// SetProperty implements o[key] = v and reports whether it took effect.
func SetProperty(o value.Value, key string, v value.Value) bool {
	switch x := o.Raw().(type) {
	case *value.Object:
		x.Set(key, v)
		return true
	case *value.Array:
		if key == "length" {
			x.Truncate(int(value.ToNumber(v)))
			return true
		}
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			return false
		}
		x.Set(i, v)
		return true
	}
	if vw, ok := o.View(); ok {
		if i, ok := arrayIndex(key, vw.Len()); ok {
			return vw.SetAt(i, value.ToNumber(v)) == nil
		}
	}
	return false
}

// HasProperty implements key in o.
func HasProperty(o value.Value, key string) bool {
	switch x := o.Raw().(type) {
	case *value.Object:
		return x.Has(key)
	case *value.Array:
		_, ok := arrayIndex(key, x.Len())
		return ok || key == "length"
	case PropertyHost:
		_, ok := x.Property(key)
		return ok
	}
	return !GetProperty(o, key).IsUndefined()
}
