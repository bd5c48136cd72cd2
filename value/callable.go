package value

import "context"

// Callable is a host value that can be invoked.
type Callable interface {
	Call(ctx context.Context, args ...Value) (Value, error)
}

// Constructor is a host value usable with construct.
type Constructor interface {
	Construct(ctx context.Context, args ...Value) (Value, error)
}

// ModuleWrapped marks a callable that forwards into the module. The target
// is the module's own function reference, so a round-tripped callable can be
// unwrapped instead of wrapped a second time.
type ModuleWrapped interface {
	Callable
	ModuleTarget() uint32
}

// Func adapts a Go function to Callable.
type Func func(ctx context.Context, args ...Value) (Value, error)

func (f Func) Call(ctx context.Context, args ...Value) (Value, error) {
	return f(ctx, args...)
}

// IsModuleWrapped returns the module target when v wraps a module function.
func IsModuleWrapped(v Value) (uint32, bool) {
	if w, ok := v.raw.(ModuleWrapped); ok {
		return w.ModuleTarget(), true
	}
	return 0, false
}

// Arg returns args[i] or Undefined.
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
