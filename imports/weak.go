package imports

import (
	"github.com/wippyai/wasm-bridge/callback"
)

func weakMapArg(c *Call, i int) *callback.WeakMap {
	m, ok := c.Value(i).Raw().(*callback.WeakMap)
	if !ok {
		c.typeError(i, "WeakMap")
	}
	return m
}

// WeakGroup exposes weak references and weak maps. Without the WeakRefs
// feature the slots are stubs and supported reports false.
func WeakGroup() Group {
	return Group{
		Namespace: NSWeak,
		Requires:  func(f Features) bool { return f.WeakRefs },
		Slots: []Slot{
			Func("supported", nil, Results(Bool), func(c *Call) {
				c.ReturnBool(true)
			}),
			Func("weakRef", Params(Handle), Results(Handle), func(c *Call) {
				w, err := callback.NewWeakRef(c.Value(0))
				c.ReturnAny(must(c, w, err))
			}),
			Func("deref", Params(Handle), Results(Handle), func(c *Call) {
				w, ok := c.Value(0).Raw().(*callback.WeakRef)
				if !ok {
					c.typeError(0, "WeakRef")
				}
				c.ReturnValue(w.Deref())
			}),
			Func("weakMap", nil, Results(Handle), func(c *Call) {
				c.ReturnAny(callback.NewWeakMap())
			}),
			Func("weakMapGet", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(weakMapArg(c, 0).Get(c.Value(1)))
			}),
			Func("weakMapSet", Params(Handle, Handle, Handle), nil, func(c *Call) {
				if err := weakMapArg(c, 0).Set(c.Value(1), c.Value(2)); err != nil {
					c.Fail(err)
				}
			}),
			Func("weakMapHas", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(weakMapArg(c, 0).Has(c.Value(1)))
			}),
			Func("weakMapDelete", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(weakMapArg(c, 0).Delete(c.Value(1)))
			}),
		},
	}
}

func finalizersArg(c *Call, i int) *callback.Finalizers {
	f, ok := c.Value(i).Raw().(*callback.Finalizers)
	if !ok {
		c.typeError(i, "FinalizationRegistry")
	}
	return f
}

// FinalizerGroup exposes finalization registries. The cleanup callback
// runs as a loop task after the target is collected.
func FinalizerGroup() Group {
	return Group{
		Namespace: NSWeak,
		Requires:  func(f Features) bool { return f.Finalizers },
		Slots: []Slot{
			Func("finalizersSupported", nil, Results(Bool), func(c *Call) {
				c.ReturnBool(true)
			}),
			Func("finalizers", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnAny(callback.NewFinalizers(c.Env().Loop(), c.Callable(0)))
			}),
			Func("register", Params(Handle, Handle, Handle, Handle), nil, func(c *Call) {
				if err := finalizersArg(c, 0).Register(c.Value(1), c.Value(2), c.Value(3)); err != nil {
					c.Fail(err)
				}
			}),
			Func("unregister", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(finalizersArg(c, 0).Unregister(c.Value(1)))
			}),
		},
	}
}
