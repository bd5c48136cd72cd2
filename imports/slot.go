package imports

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/value"
)

// Slot is one named host function.
type Slot struct {
	Namespace string
	Name      string
	Params    []Kind
	Results   []Kind
	Fn        func(*Call)
	Doc       string
}

// Func declares a slot; the namespace is filled in by the group.
func Func(name string, params, results []Kind, fn func(*Call)) Slot {
	return Slot{Name: name, Params: params, Results: results, Fn: fn}
}

// Key returns "namespace#name".
func (s *Slot) Key() string { return s.Namespace + "#" + s.Name }

func (s *Slot) ParamTypes() []api.ValueType  { return valueTypes(s.Params) }
func (s *Slot) ResultTypes() []api.ValueType { return valueTypes(s.Results) }

// Signature renders the slot's core signature.
func (s *Slot) Signature() string {
	return FormatSignature(s.ParamTypes(), s.ResultTypes())
}

// SlotObserver is implemented by environments that count slot calls.
type SlotObserver interface {
	ObserveSlot(s *Slot)
}

// GoFunc adapts the slot to a wazero host function bound to env.
func (s *Slot) GoFunc(env Env) api.GoModuleFunc {
	obs, _ := env.(SlotObserver)
	n := len(s.Params)
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		if obs != nil {
			obs.ObserveSlot(s)
		}
		c := Call{ctx: ctx, env: env, mod: mod, slot: s, stack: stack}
		if n <= len(c.small) {
			c.args = c.small[:n]
		} else {
			c.args = make([]uint64, n)
		}
		copy(c.args, stack[:n])
		s.Fn(&c)
	}
}

// Stub returns a slot with the signature of s whose results are all zero.
// It stands in for capabilities the host does not support.
func Stub(s Slot) Slot {
	s.Fn = func(c *Call) {
		for i := range s.Results {
			c.ReturnRaw(i, 0)
		}
	}
	return s
}

// Callable declares a slot that forwards to a host callable. All n
// parameters are handles; the result is a handle.
func Callable(name string, n int, fn value.Callable) Slot {
	return Func(name, Repeat(Handle, n), Results(Handle), func(c *Call) {
		args := make([]value.Value, n)
		for i := range args {
			args[i] = c.Value(i)
		}
		res, err := fn.Call(c.Ctx(), args...)
		if err != nil {
			c.Fail(err)
		}
		c.ReturnValue(res)
	})
}
