package imports

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

func isWrapperSignature(r Requirement) bool {
	return r.Kind == ImportFunc &&
		len(r.Params) == 1 && r.Params[0] == api.ValueTypeI32 &&
		len(r.Results) == 1 && r.Results[0] == api.ValueTypeI32
}

func isInternSignature(r Requirement) bool {
	return r.Kind == ImportFunc && len(r.Params) == 0 &&
		len(r.Results) == 1 && r.Results[0] == api.ValueTypeI32
}

// CallbackGroup synthesizes one slot per bridge:callback import. Slot X
// takes a module function reference and returns a handle to a host
// callable forwarding to the trampoline export X. Imports with any other
// signature are left out so validation reports them.
func CallbackGroup(reqs []Requirement) Group {
	g := Group{Namespace: NSCallback}
	seen := make(map[string]bool)
	for _, r := range reqs {
		if r.Namespace != NSCallback || !isWrapperSignature(r) || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		export := r.Name
		g.Slots = append(g.Slots, Func(export, Params(I32), Results(Handle), func(c *Call) {
			w, err := c.Scope().Callbacks.Wrap(export, c.U32(0))
			c.ReturnAny(must(c, w, err))
		}))
	}
	return g
}

// InternGroup synthesizes one slot per bridge:intern import, returning a
// pinned handle to the string equal to the import name. The handle is
// created on first use and shared by every later call.
func InternGroup(reqs []Requirement) Group {
	g := Group{Namespace: NSIntern}
	seen := make(map[string]bool)
	for _, r := range reqs {
		if r.Namespace != NSIntern || !isInternSignature(r) || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		s := r.Name
		var h resource.Handle
		g.Slots = append(g.Slots, Func(s, nil, Results(Handle), func(c *Call) {
			if h == 0 {
				h = c.Env().Handles().Pin(value.String(s))
			}
			c.ReturnHandle(h)
		}))
	}
	return g
}
