package imports

import "github.com/wippyai/wasm-bridge/errors"

// LoaderGroup lets the module request deferred parts and dynamic units.
// Both slots return a promise; a host without loaders fails the call.
func LoaderGroup() Group {
	return Group{
		Namespace: NSLoader,
		Slots: []Slot{
			Func("loadDeferred", Params(Handle), Results(Handle), func(c *Call) {
				name := c.Str(0)
				l := c.Env().Loader()
				if l == nil {
					c.Fail(errors.MissingLoader("deferred", name))
				}
				p, err := l.LoadDeferred(c.Ctx(), name)
				c.ReturnAny(must(c, p, err))
			}),
			Func("loadDynamic", Params(Handle, Handle), Results(Handle), func(c *Call) {
				wasmName := c.Str(0)
				l := c.Env().Loader()
				if l == nil {
					c.Fail(errors.MissingLoader("dynamic", wasmName))
				}
				p, err := l.LoadDynamic(c.Ctx(), wasmName, c.Str(1))
				c.ReturnAny(must(c, p, err))
			}),
		},
	}
}
