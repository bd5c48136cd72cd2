package callback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/resource"
)

// Invoker calls module exports with raw core values.
type Invoker interface {
	Call(ctx context.Context, export string, params ...uint64) ([]uint64, error)
	Signature(export string) (params, results []api.ValueType, ok bool)
}

// Hook observes every wrapper invocation.
type Hook func(export string, err error)

type trampoline struct {
	export    string
	arity     int
	hasResult bool
}

// Registry creates wrappers for one app and tracks how many are live.
type Registry struct {
	inv     Invoker
	handles *resource.Table
	hook    Hook

	mu          sync.Mutex
	trampolines map[string]*trampoline
	live        atomic.Int64
}

// NewRegistry creates a registry calling through inv and marshalling through
// handles.
func NewRegistry(inv Invoker, handles *resource.Table) *Registry {
	return &Registry{
		inv:         inv,
		handles:     handles,
		trampolines: make(map[string]*trampoline),
	}
}

// SetHook installs an invocation observer. It must be called before the
// first wrapper runs.
func (r *Registry) SetHook(h Hook) {
	r.hook = h
}

// Trampoline validates export as a trampoline and returns its declared arity.
func (r *Registry) Trampoline(export string) (int, error) {
	t, err := r.trampoline(export)
	if err != nil {
		return 0, err
	}
	return t.arity, nil
}

func (r *Registry) trampoline(export string) (*trampoline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trampolines[export]; ok {
		return t, nil
	}

	params, results, ok := r.inv.Signature(export)
	if !ok {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindMissingImport).
			Path(export).
			Detail("module does not export callback trampoline %q", export).
			Build()
	}
	if err := checkTrampoline(export, params, results); err != nil {
		return nil, err
	}

	t := &trampoline{export: export, arity: len(params) - 2, hasResult: len(results) == 1}
	r.trampolines[export] = t
	return t, nil
}

func checkTrampoline(export string, params, results []api.ValueType) error {
	bad := len(params) < 2 || len(results) > 1
	for _, p := range params {
		bad = bad || p != api.ValueTypeI32
	}
	for _, p := range results {
		bad = bad || p != api.ValueTypeI32
	}
	if !bad {
		return nil
	}
	return errors.New(errors.PhaseInstantiate, errors.KindSignatureMismatch).
		Path(export).
		ModuleType(signature(params, results)).
		HostType("(i32 target, i32 argc, i32...) -> i32?").
		Detail("export %q is not a callback trampoline", export).
		Build()
}

func signature(params, results []api.ValueType) string {
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ") -> ("
	for i, p := range results {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	return s + ")"
}

// Wrap returns a host callable forwarding to the trampoline export with
// the given target token.
func (r *Registry) Wrap(export string, target uint32) (*Wrapper, error) {
	t, err := r.trampoline(export)
	if err != nil {
		return nil, err
	}
	r.live.Add(1)
	return &Wrapper{reg: r, t: t, target: target}, nil
}

// Live returns the number of wrappers not yet dropped from the handle table.
func (r *Registry) Live() int {
	return int(r.live.Load())
}

func (r *Registry) String() string {
	return fmt.Sprintf("callback.Registry{live: %d}", r.Live())
}
