package imports

import (
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/value"
)

func literal(n int) Slot {
	name := [...]string{"", "list1", "list2", "list3", "list4"}[n]
	return Func(name, Repeat(Handle, n), Results(Handle), func(c *Call) {
		items := make([]value.Value, n)
		for i := range items {
			items[i] = c.Value(i)
		}
		c.ReturnAny(value.NewArray(items...))
	})
}

// CollectionGroup manipulates host lists.
func CollectionGroup() Group {
	return Group{
		Namespace: NSCollection,
		Slots: []Slot{
			Func("newList", nil, Results(Handle), func(c *Call) {
				c.ReturnAny(value.NewArray())
			}),
			Func("newListSized", Params(I32), Results(Handle), func(c *Call) {
				n := c.Int(0)
				if n < 0 {
					c.Fail(errors.InvalidInput(errors.PhaseRuntime, "invalid list length"))
				}
				c.ReturnAny(value.NewArrayOf(n))
			}),
			literal(1),
			literal(2),
			literal(3),
			literal(4),
			Func("length", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(c.Array(0).Len()))
			}),
			Func("get", Params(Handle, I32), Results(Handle), func(c *Call) {
				c.ReturnValue(c.Array(0).At(c.Int(1)))
			}),
			Func("set", Params(Handle, I32, Handle), nil, func(c *Call) {
				c.Array(0).Set(c.Int(1), c.Value(2))
			}),
			Func("push", Params(Handle, Handle), nil, func(c *Call) {
				c.Array(0).Push(c.Value(1))
			}),
			Func("pop", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(c.Array(0).Pop())
			}),
			Func("removeAt", Params(Handle, I32), Results(Handle), func(c *Call) {
				c.ReturnValue(c.Array(0).RemoveAt(c.Int(1)))
			}),
			Func("truncate", Params(Handle, I32), nil, func(c *Call) {
				c.Array(0).Truncate(c.Int(1))
			}),
			Func("join", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(c.Array(0).Join(c.Str(1))))
			}),
			Func("slice", Params(Handle, I32, I32), Results(Handle), func(c *Call) {
				c.ReturnAny(c.Array(0).Slice(c.Int(1), c.Int(2)))
			}),
			Func("isList", Params(Handle), Results(Bool), func(c *Call) {
				_, ok := c.Value(0).Array()
				c.ReturnBool(ok)
			}),
		},
	}
}
