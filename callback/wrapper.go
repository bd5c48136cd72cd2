package callback

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

// Wrapper is a module function exposed to the host as a value.Callable.
type Wrapper struct {
	reg     *Registry
	t       *trampoline
	target  uint32
	dropped atomic.Bool
}

var _ value.ModuleWrapped = (*Wrapper)(nil)

// ModuleTarget returns the module's own reference to the wrapped function.
func (w *Wrapper) ModuleTarget() uint32 { return w.target }

// Arity is the number of argument slots the trampoline declares.
func (w *Wrapper) Arity() int { return w.t.arity }

// Export names the trampoline export.
func (w *Wrapper) Export() string { return w.t.export }

// Call forwards args to the module. Only the supplied arguments are read;
// missing positions are passed as handle 0 and argc is len(args).
func (w *Wrapper) Call(ctx context.Context, args ...value.Value) (value.Value, error) {
	table := w.reg.handles
	params := make([]uint64, 2+w.t.arity)
	params[0] = api.EncodeU32(w.target)
	params[1] = api.EncodeI32(int32(len(args)))

	n := min(len(args), w.t.arity)
	borrowed := make([]resource.Handle, 0, n)
	for i := range n {
		h := table.Insert(args[i])
		if h != 0 {
			borrowed = append(borrowed, h)
		}
		params[2+i] = api.EncodeU32(uint32(h))
	}
	defer func() {
		for _, h := range borrowed {
			table.Release(h)
		}
	}()

	results, err := w.reg.inv.Call(ctx, w.t.export, params...)
	if w.reg.hook != nil {
		w.reg.hook(w.t.export, err)
	}
	if err != nil {
		return value.Undefined, err
	}
	if !w.t.hasResult || len(results) == 0 {
		return value.Undefined, nil
	}
	return table.Take(resource.Handle(api.DecodeU32(results[0]))), nil
}

// Drop is called when the last handle to the wrapper is released.
func (w *Wrapper) Drop() {
	if w.dropped.CompareAndSwap(false, true) {
		w.reg.live.Add(-1)
	}
}
