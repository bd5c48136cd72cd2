package imports

import (
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/memory"
)

func viewArg(c *Call, i int) *memory.View {
	v, ok := c.Value(i).View()
	if !ok {
		c.typeError(i, "typed view")
	}
	return v
}

func bufferArg(c *Call, i int) *memory.Buffer {
	b, ok := c.Value(i).Buffer()
	if !ok {
		c.typeError(i, "buffer")
	}
	return b
}

func kindArg(c *Call, i int) memory.Kind {
	k := memory.Kind(c.U32(i))
	if !k.Valid() {
		c.Fail(errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			Path(c.slot.Key()).
			Detail("unknown element kind %d", c.U32(i)).
			Build())
	}
	return k
}

func must[T any](c *Call, v T, err error) T {
	if err != nil {
		c.Fail(err)
	}
	return v
}

// BufferGroup exposes typed views, byte buffers and the bulk copy loops
// between views and module arrays. Kind arguments are memory.Kind ordinals.
func BufferGroup() Group {
	return Group{
		Namespace: NSBuffer,
		Slots: []Slot{
			Func("newTypedArray", Params(I32, I32), Results(Handle), func(c *Call) {
				k := kindArg(c, 0)
				v, err := memory.NewArray(k, c.Int(1))
				c.ReturnAny(must(c, v, err))
			}),
			Func("newBuffer", Params(I32), Results(Handle), func(c *Call) {
				n := c.Int(0)
				if n < 0 {
					c.Fail(errors.InvalidInput(errors.PhaseMarshal, "negative buffer length"))
				}
				c.ReturnAny(memory.NewBuffer(n))
			}),
			Func("newSharedBuffer", Params(I32), Results(Handle), func(c *Call) {
				if !c.Env().Features().SharedBuffers {
					c.ReturnHandle(0)
					return
				}
				n := c.Int(0)
				if n < 0 {
					c.Fail(errors.InvalidInput(errors.PhaseMarshal, "negative buffer length"))
				}
				c.ReturnAny(memory.NewSharedBuffer(n))
			}),
			Func("view", Params(I32, Handle, I32, I32), Results(Handle), func(c *Call) {
				k := kindArg(c, 0)
				v, err := memory.NewView(k, bufferArg(c, 1), c.Int(2), c.Int(3))
				c.ReturnAny(must(c, v, err))
			}),
			Func("viewAll", Params(I32, Handle), Results(Handle), func(c *Call) {
				k := kindArg(c, 0)
				v, err := memory.ViewAll(k, bufferArg(c, 1))
				c.ReturnAny(must(c, v, err))
			}),
			Func("subview", Params(Handle, I32, I32), Results(Handle), func(c *Call) {
				v, err := viewArg(c, 0).Subview(c.Int(1), c.Int(2))
				c.ReturnAny(must(c, v, err))
			}),
			Func("slice", Params(Handle, I32, I32), Results(Handle), func(c *Call) {
				c.ReturnAny(viewArg(c, 0).Slice(c.Int(1), c.Int(2)))
			}),
			Func("set", Params(Handle, Handle, I32), nil, func(c *Call) {
				if err := viewArg(c, 0).Set(viewArg(c, 1), c.Int(2)); err != nil {
					c.Fail(err)
				}
			}),
			Func("copy", Params(Handle, I32, I32), Results(Handle), func(c *Call) {
				b, err := memory.Copy(bufferArg(c, 0), c.Int(1), c.Int(2))
				c.ReturnAny(must(c, b, err))
			}),
			Func("ownership", Params(Handle), Results(I32), func(c *Call) {
				b, _ := c.Value(0).Buffer()
				c.ReturnI32(memory.ClassifyBuffer(b))
			}),
			Func("kind", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(viewArg(c, 0).Kind()))
			}),
			Func("buffer", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnAny(viewArg(c, 0).Buffer())
			}),
			Func("byteOffset", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(viewArg(c, 0).ByteOffset()))
			}),
			Func("byteLength", Params(Handle), Results(I32), func(c *Call) {
				v := c.Value(0)
				if vw, ok := v.View(); ok {
					c.ReturnI32(int32(vw.ByteLength()))
					return
				}
				c.ReturnI32(int32(bufferArg(c, 0).ByteLength()))
			}),
			Func("length", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(viewArg(c, 0).Len()))
			}),
			Func("get", Params(Handle, I32), Results(F64), func(c *Call) {
				f, err := viewArg(c, 0).At(c.Int(1))
				c.ReturnF64(must(c, f, err))
			}),
			Func("put", Params(Handle, I32, F64), nil, func(c *Call) {
				if err := viewArg(c, 0).SetAt(c.Int(1), c.F64(2)); err != nil {
					c.Fail(err)
				}
			}),
			Func("getInt64", Params(Handle, I32), Results(I64), func(c *Call) {
				n, err := viewArg(c, 0).Int64At(c.Int(1))
				c.ReturnI64(must(c, n, err))
			}),
			Func("putInt64", Params(Handle, I32, I64), nil, func(c *Call) {
				if err := viewArg(c, 0).SetInt64At(c.Int(1), c.I64(2)); err != nil {
					c.Fail(err)
				}
			}),
			Func("dataViewGet", Params(Handle, I32, I32, Bool), Results(F64), func(c *Call) {
				k := kindArg(c, 1)
				f, err := viewArg(c, 0).GetAs(k, c.Int(2), c.Bool(3))
				c.ReturnF64(must(c, f, err))
			}),
			Func("dataViewSet", Params(Handle, I32, I32, F64, Bool), nil, func(c *Call) {
				k := kindArg(c, 1)
				if err := viewArg(c, 0).SetAs(k, c.Int(2), c.F64(3), c.Bool(4)); err != nil {
					c.Fail(err)
				}
			}),
			Func("linearBuffer", nil, Results(Handle), func(c *Call) {
				mem := c.Scope().Memory
				if mem == nil {
					c.ReturnHandle(0)
					return
				}
				c.ReturnAny(mem.Buffer())
			}),
			Func("fromLinear", Params(I32, I32), Results(Handle), func(c *Call) {
				mem := c.Scope().Memory
				if mem == nil {
					c.Fail(errors.NotInitialized(errors.PhaseMarshal, "linear memory"))
				}
				data, err := mem.ReadCopy(c.U32(0), c.U32(1))
				data = must(c, data, err)
				v, err := memory.ViewAll(memory.Uint8, memory.WrapBuffer(data, memory.Exclusive))
				c.ReturnAny(must(c, v, err))
			}),
			Func("toLinear", Params(Handle, I32), Results(I32), func(c *Call) {
				mem := c.Scope().Memory
				if mem == nil {
					c.Fail(errors.NotInitialized(errors.PhaseMarshal, "linear memory"))
				}
				b := viewArg(c, 0).Bytes()
				if err := mem.Write(c.U32(1), b); err != nil {
					c.Fail(err)
				}
				c.ReturnI32(int32(len(b)))
			}),
			bulkIn("copyFromI8", memory.WidthI8),
			bulkIn("copyFromI16", memory.WidthI16),
			bulkIn("copyFromI32", memory.WidthI32),
			bulkIn("copyFromF32", memory.WidthF32),
			bulkIn("copyFromF64", memory.WidthF64),
			bulkOut("copyToI8", memory.WidthI8),
			bulkOut("copyToI16", memory.WidthI16),
			bulkOut("copyToI32", memory.WidthI32),
			bulkOut("copyToF32", memory.WidthF32),
			bulkOut("copyToF64", memory.WidthF64),
		},
	}
}

// bulkIn copies module array elements into a view:
// (view, viewOffset, array, arrayOffset, length).
func bulkIn(name string, w memory.Width) Slot {
	return Func(name, Params(Handle, I32, I32, I32, I32), nil, func(c *Call) {
		err := memory.CopyFromModule(c.Ctx(), c.Scope().Arrays, w, viewArg(c, 0), c.Int(1), c.U32(2), c.U32(3), c.Int(4))
		if err != nil {
			c.Fail(err)
		}
	})
}

// bulkOut copies view elements into a module array with the same argument
// order as bulkIn.
func bulkOut(name string, w memory.Width) Slot {
	return Func(name, Params(Handle, I32, I32, I32, I32), nil, func(c *Call) {
		err := memory.CopyToModule(c.Ctx(), c.Scope().Arrays, w, viewArg(c, 0), c.Int(1), c.U32(2), c.U32(3), c.Int(4))
		if err != nil {
			c.Fail(err)
		}
	})
}

