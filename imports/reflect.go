package imports

import (
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/value"
)

func listArg(c *Call, i int) []value.Value {
	v := c.Value(i)
	if v.IsNullish() {
		return nil
	}
	a, ok := v.Array()
	if !ok {
		c.typeError(i, "list")
	}
	return a.Items
}

func callValue(c *Call, fn value.Value, args []value.Value) {
	callable, ok := fn.Callable()
	if !ok {
		c.Fail(errors.TypeMismatch(errors.PhaseRuntime, []string{c.slot.Key()}, value.TypeOf(fn), "function"))
	}
	res, err := callable.Call(c.Ctx(), args...)
	if err != nil {
		c.Fail(err)
	}
	c.ReturnValue(res)
}

func numeric(v value.Value) bool {
	switch v.Tag() {
	case value.TagAbsent, value.TagBool, value.TagNumber:
		return true
	}
	return v.IsNull()
}

// Add implements the + operator: numeric addition when both operands are
// numeric primitives, string concatenation otherwise.
func Add(a, b value.Value) value.Value {
	if numeric(a) && numeric(b) {
		return value.Number(value.ToNumber(a) + value.ToNumber(b))
	}
	return value.String(value.ToString(a) + value.ToString(b))
}

// ReflectGroup gives the module generic access to host values.
func ReflectGroup() Group {
	return Group{
		Namespace: NSReflect,
		Slots: []Slot{
			Func("get", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(GetProperty(c.Value(0), c.Str(1)))
			}),
			Func("set", Params(Handle, Handle, Handle), nil, func(c *Call) {
				SetProperty(c.Value(0), c.Str(1), c.Value(2))
			}),
			Func("has", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(HasProperty(c.Value(0), c.Str(1)))
			}),
			Func("delete", Params(Handle, Handle), Results(Bool), func(c *Call) {
				o, ok := c.Value(0).Object()
				c.ReturnBool(ok && o.Delete(c.Str(1)))
			}),
			Func("call", Params(Handle, Handle), Results(Handle), func(c *Call) {
				callValue(c, c.Value(0), listArg(c, 1))
			}),
			Func("callMethod", Params(Handle, Handle, Handle), Results(Handle), func(c *Call) {
				callValue(c, GetProperty(c.Value(0), c.Str(1)), listArg(c, 2))
			}),
			Func("construct", Params(Handle, Handle), Results(Handle), func(c *Call) {
				v := c.Value(0)
				ctor, ok := v.Raw().(value.Constructor)
				if !ok {
					c.Fail(errors.TypeMismatch(errors.PhaseRuntime, []string{c.slot.Key()}, value.TypeOf(v), "constructor"))
				}
				res, err := ctor.Construct(c.Ctx(), listArg(c, 1)...)
				if err != nil {
					c.Fail(err)
				}
				c.ReturnValue(res)
			}),
			Func("newObject", nil, Results(Handle), func(c *Call) {
				c.ReturnAny(value.NewObject())
			}),
			Func("global", nil, Results(Handle), func(c *Call) {
				c.ReturnAny(c.Env().Global())
			}),
			Func("keys", Params(Handle), Results(Handle), func(c *Call) {
				o, ok := c.Value(0).Object()
				if !ok {
					c.ReturnAny(value.NewArray())
					return
				}
				c.ReturnAny(splitList(o.Keys()))
			}),
			Func("equals", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(value.Equal(c.Value(0), c.Value(1)))
			}),
			Func("is", Params(Handle, Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(value.SameValue(c.Value(0), c.Value(1)))
			}),
			Func("tag", Params(Handle), Results(I32), func(c *Call) {
				v := c.Value(0)
				c.ReturnI32(int32(c.Env().Classifier().Classify(v.Raw())))
			}),
			Func("typeOf", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.TypeOf(c.Value(0))))
			}),
			Func("isUndefined", Params(Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(c.Value(0).IsUndefined())
			}),
			Func("isNull", Params(Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(c.Value(0).IsNull())
			}),
			Func("null", nil, Results(Handle), func(c *Call) {
				c.ReturnValue(value.Null)
			}),
			Func("isModuleWrapped", Params(Handle), Results(Bool), func(c *Call) {
				_, ok := value.IsModuleWrapped(c.Value(0))
				c.ReturnBool(ok)
			}),
			Func("unwrap", Params(Handle), Results(I32), func(c *Call) {
				target, ok := value.IsModuleWrapped(c.Value(0))
				if !ok {
					c.typeError(0, "module function")
				}
				c.ReturnU32(target)
			}),
			Func("isPlainObject", Params(Handle), Results(Bool), func(c *Call) {
				o, ok := c.Value(0).Object()
				c.ReturnBool(ok && o.IsPlain())
			}),
			Func("isRegExp", Params(Handle), Results(Bool), func(c *Call) {
				_, ok := c.Value(0).Raw().(*RegExp)
				c.ReturnBool(ok)
			}),
			Func("isFunction", Params(Handle), Results(Bool), func(c *Call) {
				_, ok := c.Value(0).Callable()
				c.ReturnBool(ok)
			}),
			Func("instanceOf", Params(Handle, Handle), Results(Bool), func(c *Call) {
				o, ok := c.Value(0).Object()
				c.ReturnBool(ok && o.Class != "" && o.Class == c.Str(1))
			}),
			Func("truthy", Params(Handle), Results(Bool), func(c *Call) {
				c.ReturnBool(value.Truthy(c.Value(0)))
			}),
			Func("boxNumber", Params(F64), Results(Handle), func(c *Call) {
				c.ReturnValue(value.Number(c.F64(0)))
			}),
			Func("boxBool", Params(Bool), Results(Handle), func(c *Call) {
				c.ReturnValue(value.Bool(c.Bool(0)))
			}),
			Func("toNumber", Params(Handle), Results(F64), func(c *Call) {
				c.ReturnF64(c.Number(0))
			}),
			Func("toString", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(value.ToString(c.Value(0))))
			}),
			Func("add", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(Add(c.Value(0), c.Value(1)))
			}),
			Func("retain", Params(Handle), Results(Handle), func(c *Call) {
				h := c.Handle(0)
				if h != 0 && !c.Env().Handles().Retain(h) {
					c.Fail(errors.InvalidHandle(errors.PhaseRuntime, uint32(h)))
				}
				c.ReturnHandle(h)
			}),
			Func("release", Params(Handle), nil, func(c *Call) {
				if h := c.Handle(0); h != 0 {
					c.Env().Handles().Release(h)
				}
			}),
			Func("handleCount", nil, Results(I32), func(c *Call) {
				c.ReturnI32(int32(c.Env().Handles().Len()))
			}),
		},
	}
}

