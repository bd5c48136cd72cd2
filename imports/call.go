package imports

import (
	"context"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

// Call is the state of one slot invocation. Arguments are copied before the
// slot runs, so results may be written at any point.
type Call struct {
	ctx   context.Context
	env   Env
	mod   api.Module
	slot  *Slot
	stack []uint64
	args  []uint64
	small [6]uint64
	scope *Scope
}

func (c *Call) Ctx() context.Context { return c.ctx }
func (c *Call) Env() Env             { return c.env }

// Module is the calling module instance; nil when invoked outside wazero.
func (c *Call) Module() api.Module { return c.mod }

// Scope returns the per-module view of the environment for the caller.
func (c *Call) Scope() *Scope {
	if c.scope == nil {
		c.scope = c.env.Scope(c.mod)
	}
	return c.scope
}

func (c *Call) Raw(i int) uint64 { return c.args[i] }
func (c *Call) I32(i int) int32  { return api.DecodeI32(c.args[i]) }
func (c *Call) U32(i int) uint32 { return api.DecodeU32(c.args[i]) }
func (c *Call) I64(i int) int64  { return int64(c.args[i]) }
func (c *Call) F32(i int) float32 {
	return api.DecodeF32(c.args[i])
}
func (c *Call) F64(i int) float64 { return api.DecodeF64(c.args[i]) }
func (c *Call) Bool(i int) bool   { return api.DecodeU32(c.args[i]) != 0 }
func (c *Call) Int(i int) int     { return int(api.DecodeI32(c.args[i])) }

// Handle returns argument i as a handle.
func (c *Call) Handle(i int) resource.Handle {
	return resource.Handle(api.DecodeU32(c.args[i]))
}

// Value resolves argument i through the handle table. Unknown handles read
// as Undefined.
func (c *Call) Value(i int) value.Value {
	return c.env.Handles().Value(c.Handle(i))
}

// Str resolves argument i and converts it with String(o).
func (c *Call) Str(i int) string {
	v := c.Value(i)
	if s, ok := v.Str(); ok {
		return s
	}
	return value.ToString(v)
}

// Number resolves argument i as a number.
func (c *Call) Number(i int) float64 {
	return value.ToNumber(c.Value(i))
}

// Array resolves argument i as a list or fails the call.
func (c *Call) Array(i int) *value.Array {
	a, ok := c.Value(i).Array()
	if !ok {
		c.typeError(i, "list")
	}
	return a
}

// Object resolves argument i as an object or fails the call.
func (c *Call) Object(i int) *value.Object {
	o, ok := c.Value(i).Object()
	if !ok {
		c.typeError(i, "object")
	}
	return o
}

// Callable returns argument i as a callable.
func (c *Call) Callable(i int) value.Callable {
	fn, ok := c.Value(i).Callable()
	if !ok {
		c.typeError(i, "function")
	}
	return fn
}

func (c *Call) typeError(i int, want string) {
	v := c.Value(i)
	c.Fail(errors.TypeMismatch(errors.PhaseRuntime, []string{c.slot.Key(), argName(i)}, value.TypeOf(v)+"("+v.Tag().String()+")", want))
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}

// ReturnRaw writes result slot i.
func (c *Call) ReturnRaw(i int, bits uint64) { c.stack[i] = bits }

func (c *Call) ReturnI32(v int32)   { c.stack[0] = api.EncodeI32(v) }
func (c *Call) ReturnU32(v uint32)  { c.stack[0] = api.EncodeU32(v) }
func (c *Call) ReturnI64(v int64)   { c.stack[0] = uint64(v) }
func (c *Call) ReturnF32(v float32) { c.stack[0] = api.EncodeF32(v) }
func (c *Call) ReturnF64(v float64) { c.stack[0] = api.EncodeF64(v) }

func (c *Call) ReturnBool(v bool) {
	if v {
		c.stack[0] = 1
	} else {
		c.stack[0] = 0
	}
}

func (c *Call) ReturnHandle(h resource.Handle) { c.stack[0] = api.EncodeU32(uint32(h)) }

// ReturnValue inserts v into the handle table and returns its handle.
func (c *Call) ReturnValue(v value.Value) {
	c.ReturnHandle(c.env.Handles().Insert(v))
}

// ReturnAny classifies raw and returns it as a handle.
func (c *Call) ReturnAny(raw any) {
	c.ReturnValue(c.env.Classifier().New(raw))
}

// Fail traps the calling module with err.
func (c *Call) Fail(err error) {
	panic(err)
}
