package runtime

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"unicode"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/value"
)

// Host is the interface for struct-based additional imports.
// All exported methods (except Namespace) become slots.
type Host interface {
	// Namespace returns the import module name (e.g. "env").
	Namespace() string
}

// ExplicitRegistrar lets a host give exact slot names when the automatic
// PascalCase-to-camelCase conversion doesn't apply (e.g. "$log").
type ExplicitRegistrar interface {
	Register() map[string]any
}

// HostRegistry collects typed Go functions and turns them into additional
// imports. Parameters and results map onto slot kinds:
//
//	bool                         Bool
//	int8..int32, uint8..uint32   I32
//	int64, uint64                I64
//	float32                      F32
//	float64                      F64
//	string, value.Value, *value.Array, *value.Object, value.Callable
//	                             Handle
//
// A leading context.Context parameter receives the call context. A trailing
// error result traps the module when non-nil.
type HostRegistry struct {
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]any),
	}
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]any)
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		for name, handler := range er.Register() {
			r.funcs[ns][name] = handler
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}
		r.funcs[ns][toCamelCase(method.Name)] = rv.Method(i).Interface()
	}
	return nil
}

func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if fn == nil {
		return errors.InvalidInput(errors.PhaseHost, "handler cannot be nil")
	}
	if reflect.TypeOf(fn).Kind() != reflect.Func {
		return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			HostType(reflect.TypeOf(fn).String()).
			Detail("handler must be a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn
	return nil
}

// Imports builds a table holding one slot per registered function.
func (r *HostRegistry) Imports() (imports.Imports, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := imports.NewTable()
	namespaces := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		for name, fn := range r.funcs[ns] {
			s, err := adaptFunc(fn)
			if err != nil {
				return nil, errors.Registration(errors.PhaseHost, ns, name, err)
			}
			s.Namespace, s.Name = ns, name
			if err := t.Define(s); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

var (
	contextType  = reflect.TypeFor[context.Context]()
	errorType    = reflect.TypeFor[error]()
	valueType    = reflect.TypeFor[value.Value]()
	arrayType    = reflect.TypeFor[*value.Array]()
	objectType   = reflect.TypeFor[*value.Object]()
	callableType = reflect.TypeFor[value.Callable]()
)

func kindOf(t reflect.Type) (imports.Kind, bool) {
	switch t {
	case valueType, arrayType, objectType, callableType:
		return imports.Handle, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return imports.Bool, true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return imports.I32, true
	case reflect.Int64, reflect.Uint64:
		return imports.I64, true
	case reflect.Float32:
		return imports.F32, true
	case reflect.Float64:
		return imports.F64, true
	case reflect.String:
		return imports.Handle, true
	}
	return 0, false
}

func unsupported(t reflect.Type) error {
	return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
		HostType(t.String()).
		Detail("no slot kind for Go type").
		Build()
}

// adaptFunc derives the slot signature of fn and a slot function calling
// it through reflection.
func adaptFunc(fn any) (imports.Slot, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()

	first := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		first = 1
	}
	var params []imports.Kind
	for i := first; i < ft.NumIn(); i++ {
		k, ok := kindOf(ft.In(i))
		if !ok {
			return imports.Slot{}, unsupported(ft.In(i))
		}
		params = append(params, k)
	}

	nOut := ft.NumOut()
	hasErr := nOut > 0 && ft.Out(nOut-1) == errorType
	if hasErr {
		nOut--
	}
	if nOut > 1 {
		return imports.Slot{}, errors.InvalidInput(errors.PhaseHost, "host function returns more than one value")
	}
	var results []imports.Kind
	if nOut == 1 {
		k, ok := kindOf(ft.Out(0))
		if !ok {
			return imports.Slot{}, unsupported(ft.Out(0))
		}
		results = append(results, k)
	}

	call := func(c *imports.Call) {
		in := make([]reflect.Value, ft.NumIn())
		if first == 1 {
			in[0] = reflect.ValueOf(c.Ctx())
		}
		for i := first; i < ft.NumIn(); i++ {
			in[i] = argValue(c, i-first, ft.In(i))
		}
		out := fv.Call(in)
		if hasErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				c.Fail(err)
			}
		}
		if nOut == 1 {
			setResult(c, out[0])
		}
	}
	return imports.Slot{Params: params, Results: results, Fn: call}, nil
}

func argValue(c *imports.Call, i int, t reflect.Type) reflect.Value {
	switch t {
	case valueType:
		return reflect.ValueOf(c.Value(i))
	case arrayType:
		return reflect.ValueOf(c.Array(i))
	case objectType:
		return reflect.ValueOf(c.Object(i))
	case callableType:
		return reflect.ValueOf(c.Callable(i))
	}
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(c.Bool(i))
	case reflect.Int8, reflect.Int16, reflect.Int32:
		v.SetInt(int64(c.I32(i)))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		v.SetUint(uint64(c.U32(i)))
	case reflect.Int64:
		v.SetInt(c.I64(i))
	case reflect.Uint64:
		v.SetUint(uint64(c.I64(i)))
	case reflect.Float32:
		v.SetFloat(float64(c.F32(i)))
	case reflect.Float64:
		v.SetFloat(c.F64(i))
	case reflect.String:
		v.SetString(c.Str(i))
	}
	return v
}

func setResult(c *imports.Call, v reflect.Value) {
	switch v.Type() {
	case valueType:
		c.ReturnValue(v.Interface().(value.Value))
		return
	case arrayType, objectType, callableType:
		if v.IsNil() {
			c.ReturnHandle(0)
			return
		}
		c.ReturnAny(v.Interface())
		return
	}
	switch v.Kind() {
	case reflect.Bool:
		c.ReturnBool(v.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		c.ReturnI32(int32(v.Int()))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		c.ReturnU32(uint32(v.Uint()))
	case reflect.Int64:
		c.ReturnI64(v.Int())
	case reflect.Uint64:
		c.ReturnI64(int64(v.Uint()))
	case reflect.Float32:
		c.ReturnF32(float32(v.Float()))
	case reflect.Float64:
		c.ReturnF64(v.Float())
	case reflect.String:
		c.ReturnValue(value.String(v.String()))
	}
}

// toCamelCase converts PascalCase to camelCase.
// Leading acronyms are lowered as a unit: HTTPGet -> httpGet, URL -> url.
func toCamelCase(s string) string {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return s
	}

	end := 1
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// Last uppercase before lowercase starts the next word, not the acronym
	if end > 1 && end < len(runes) && unicode.IsLower(runes[end]) {
		end--
	}
	for i := 0; i < end; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
