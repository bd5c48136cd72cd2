package runtime

import (
	"context"
	"io"
	"slices"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/callback"
	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/value"
)

// CompiledModule is an immutable, validated module. It can be
// instantiated any number of times.
type CompiledModule struct {
	rt       *Runtime
	compiled *engine.Compiled
	builtins map[string]bool
}

// Bytes returns the module binary.
func (m *CompiledModule) Bytes() []byte { return m.compiled.Bytes() }

// Builtins lists the builtin import sets declared at compile time.
func (m *CompiledModule) Builtins() []string {
	out := make([]string, 0, len(m.builtins))
	for b := range m.builtins {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

// HasBuiltin reports whether name was declared at compile time.
func (m *CompiledModule) HasBuiltin(name string) bool { return m.builtins[name] }

// Imports lists every import the module declares.
func (m *CompiledModule) Imports() []imports.Requirement {
	return m.compiled.Requirements()
}

// Exports lists the exported names.
func (m *CompiledModule) Exports() []string {
	return m.compiled.ExportNames()
}

// Signature returns the core signature of an exported function.
func (m *CompiledModule) Signature(export string) (params, results []api.ValueType, ok bool) {
	return m.compiled.Signature(export)
}

// Close releases the compiled metadata. Apps already instantiated are not
// affected.
func (m *CompiledModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// DeferredLoader returns the bytes of the deferred part called name.
type DeferredLoader func(ctx context.Context, name string) (Source, error)

// DynamicLoader returns the bytes of a dynamically loaded unit together
// with the auxiliary imports it needs.
type DynamicLoader func(ctx context.Context, wasmName, auxName string) (Source, imports.Imports, error)

// InstantiateOptions configures one instantiation. Nil loaders mean the
// feature is unsupported: a module asking for it fails the request.
type InstantiateOptions struct {
	DeferredModuleLoader DeferredLoader
	DynamicModuleLoader  DynamicLoader

	// Stdout and Stderr receive platform print and warn output. They
	// default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// Global is the object the module sees as the global scope. A fresh
	// empty object is used when nil.
	Global *value.Object
}

// Table builds the import table for one instantiation: the bridge groups,
// the js-string builtins when declared, the synthesized callback and intern
// slots, then additional merged on top. Additional slots may not replace
// slots of the bridge namespaces.
func (m *CompiledModule) Table(additional imports.Imports) (*imports.Table, error) {
	reqs := m.compiled.Requirements()

	groups := imports.Base()
	if m.builtins[BuiltinJSString] {
		groups = append(groups, imports.JSStringGroup())
	}
	groups = append(groups, imports.CallbackGroup(reqs), imports.InternGroup(reqs))

	base, err := imports.NewBuilder(m.rt.features).Add(groups...).Table()
	if err != nil {
		return nil, err
	}
	table, err := imports.Merge(base, additional, imports.Reserved)
	if err != nil {
		return nil, err
	}
	table.Freeze()
	return table, nil
}

// Check reports every import of the module the table cannot satisfy and
// every callback slot whose trampoline export is malformed.
func (m *CompiledModule) Check(table *imports.Table) error {
	if err := imports.Validate(table, m.compiled.Requirements(), nil); err != nil {
		return err
	}
	return checkTrampolines(m.compiled, table.Slots(imports.NSCallback))
}

func checkTrampolines(sigs signatures, slots []*imports.Slot) error {
	reg := callback.NewRegistry(staticInvoker{sigs}, nil)
	for _, s := range slots {
		if _, err := reg.Trampoline(s.Name); err != nil {
			return err
		}
	}
	return nil
}

type signatures interface {
	Signature(export string) (params, results []api.ValueType, ok bool)
}

// staticInvoker answers signature queries before the module exists.
type staticInvoker struct {
	signatures
}

func (staticInvoker) Call(context.Context, string, ...uint64) ([]uint64, error) {
	return nil, errors.NotInitialized(errors.PhaseInstantiate, "module")
}

// Instantiate links the module against a fresh import table and returns
// the running app. Every import failure is reported at once.
func (m *CompiledModule) Instantiate(ctx context.Context, additional imports.Imports, opts InstantiateOptions) (*InstantiatedApp, error) {
	app, err := m.instantiate(ctx, additional, opts)
	m.rt.metrics.instantiated(err)
	if err != nil {
		m.rt.logger.Debug("instantiate failed", zap.Error(err))
		return nil, err
	}
	return app, nil
}

func (m *CompiledModule) instantiate(ctx context.Context, additional imports.Imports, opts InstantiateOptions) (*InstantiatedApp, error) {
	table, err := m.Table(additional)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	if err := m.Check(table); err != nil {
		return nil, errors.Instantiation(err)
	}

	store, err := m.rt.engine.NewStore(ctx)
	if err != nil {
		return nil, err
	}
	app := newApp(m, store, table, opts)

	if err := store.Bind(ctx, table, app); err != nil {
		_ = app.Close(ctx)
		return nil, errors.Instantiation(err)
	}
	mod, err := store.Instantiate(ctx, m.compiled.Bytes(), MainModuleName)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.setMain(mod)
	app.logger.Info("app instantiated",
		zap.Int("imports", len(m.compiled.Requirements())),
		zap.Int("slots", table.Len()))
	return app, nil
}
