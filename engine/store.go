package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
)

// Store is one isolated wazero runtime holding host modules and the
// module instances linked against them.
type Store struct {
	rt wazero.Runtime

	mu     sync.Mutex
	bound  map[string]struct{}
	closed bool
}

// NewStore creates a store backed by the engine's compilation cache.
func (e *Engine) NewStore(ctx context.Context) (*Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.Closed("engine")
	}
	return &Store{
		rt:    wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig()),
		bound: make(map[string]struct{}),
	}, nil
}

// Bind instantiates one host module per namespace of t. Every slot calls
// into env. Binding a namespace twice is a conflict.
func (s *Store) Bind(ctx context.Context, t *imports.Table, env imports.Env) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Closed("store")
	}

	for _, ns := range t.Namespaces() {
		if _, dup := s.bound[ns]; dup {
			return errors.New(errors.PhaseInstantiate, errors.KindConflict).
				Path(ns).
				Detail("host module %q is already bound", ns).
				Build()
		}
		b := s.rt.NewHostModuleBuilder(ns)
		for _, slot := range t.Slots(ns) {
			b.NewFunctionBuilder().
				WithGoModuleFunction(slot.GoFunc(env), slot.ParamTypes(), slot.ResultTypes()).
				WithName(slot.Name).
				Export(slot.Name)
		}
		if _, err := b.Instantiate(ctx); err != nil {
			return errors.Instantiation(err)
		}
		s.bound[ns] = struct{}{}
		debugf("bound host module %s", ns)
	}
	return nil
}

// Bound reports whether namespace has a host module.
func (s *Store) Bound(namespace string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bound[namespace]
	return ok
}

// Instantiate links wasm against the store and registers it as name, so
// later modules can import it. Start functions other than the module's
// own start section are not run.
func (s *Store) Instantiate(ctx context.Context, wasm []byte, name string) (api.Module, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.Closed("store")
	}

	compiled, err := s.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Compilation(err)
	}
	cfg := wazero.NewModuleConfig().WithName(name).WithStartFunctions()
	mod, err := s.rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation(err)
	}
	Logger().Debug("module instantiated", zap.String("name", name))
	return mod, nil
}

// Module returns the instance registered as name, or nil.
func (s *Store) Module(name string) api.Module {
	return s.rt.Module(name)
}

// Close closes every module in the store.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.rt.Close(ctx)
}

// Exports calls the exported functions of one module instance.
type Exports struct {
	mod api.Module
}

// NewExports wraps mod.
func NewExports(mod api.Module) *Exports {
	return &Exports{mod: mod}
}

// Call invokes export with raw core values.
func (x *Exports) Call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	fn := x.mod.ExportedFunction(export)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", export)
	}
	return fn.Call(ctx, params...)
}

// Signature returns the core signature of export.
func (x *Exports) Signature(export string) (params, results []api.ValueType, ok bool) {
	def, ok := x.mod.ExportedFunctionDefinitions()[export]
	if !ok {
		return nil, nil, false
	}
	return def.ParamTypes(), def.ResultTypes(), true
}
