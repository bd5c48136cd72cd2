package imports

import (
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/jsstring"
	"github.com/wippyai/wasm-bridge/value"
)

// stringArg returns argument i as a string, trapping on any other value.
// The builtins do not coerce.
func stringArg(c *Call, i int) string {
	s, ok := c.Value(i).Str()
	if !ok {
		c.typeError(i, "string")
	}
	return s
}

func unitIndex(c *Call, s string, i int) int {
	idx := c.Int(i)
	if idx < 0 || idx >= jsstring.Length(s) {
		c.Fail(errors.OutOfBounds(errors.PhaseRuntime, []string{c.slot.Key()}, idx, jsstring.Length(s)))
	}
	return idx
}

// JSStringGroup implements the wasm:js-string builtins over handles.
// Module arrays of code units are addressed through the caller's codec.
func JSStringGroup() Group {
	return Group{
		Namespace: NSJSString,
		Slots: []Slot{
			Func("cast", Params(Handle), Results(Handle), func(c *Call) {
				stringArg(c, 0)
				c.ReturnHandle(c.Handle(0))
			}),
			Func("test", Params(Handle), Results(I32), func(c *Call) {
				_, ok := c.Value(0).Str()
				c.ReturnBool(ok)
			}),
			Func("fromCharCodeArray", Params(I32, I32, I32), Results(Handle), func(c *Call) {
				s, err := c.Scope().Codec.ToHostString(c.Ctx(), c.U32(0), c.Int(1), c.Int(2))
				if err != nil {
					c.Fail(err)
				}
				c.ReturnValue(value.String(s))
			}),
			Func("intoCharCodeArray", Params(Handle, I32, I32), Results(I32), func(c *Call) {
				n, err := c.Scope().Codec.FromHostString(c.Ctx(), stringArg(c, 0), c.U32(1), c.Int(2))
				if err != nil {
					c.Fail(err)
				}
				c.ReturnI32(int32(n))
			}),
			Func("fromCharCode", Params(I32), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(jsstring.FromCharCode(uint16(c.U32(0)))))
			}),
			Func("fromCodePoint", Params(I32), Results(Handle), func(c *Call) {
				s, ok := jsstring.FromCodePoint(rune(c.U32(0)))
				if !ok {
					c.Fail(errors.InvalidInput(errors.PhaseRuntime, "invalid code point"))
				}
				c.ReturnValue(value.String(s))
			}),
			Func("charCodeAt", Params(Handle, I32), Results(I32), func(c *Call) {
				s := stringArg(c, 0)
				c.ReturnU32(uint32(jsstring.CharCodeAt(s, unitIndex(c, s, 1))))
			}),
			Func("codePointAt", Params(Handle, I32), Results(I32), func(c *Call) {
				s := stringArg(c, 0)
				c.ReturnI32(jsstring.CodePointAt(s, unitIndex(c, s, 1)))
			}),
			Func("length", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(jsstring.Length(stringArg(c, 0))))
			}),
			Func("concat", Params(Handle, Handle), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(jsstring.Concat(stringArg(c, 0), stringArg(c, 1))))
			}),
			Func("substring", Params(Handle, I32, I32), Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(jsstring.Substring(stringArg(c, 0), c.Int(1), c.Int(2))))
			}),
			Func("equals", Params(Handle, Handle), Results(I32), func(c *Call) {
				a, aok := c.Value(0).Str()
				b, bok := c.Value(1).Str()
				switch {
				case !aok && !c.Value(0).IsNullish():
					c.typeError(0, "string")
				case !bok && !c.Value(1).IsNullish():
					c.typeError(1, "string")
				}
				c.ReturnBool(aok == bok && (!aok || jsstring.Equals(a, b)))
			}),
			Func("compare", Params(Handle, Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(jsstring.Compare(stringArg(c, 0), stringArg(c, 1))))
			}),
		},
	}
}
