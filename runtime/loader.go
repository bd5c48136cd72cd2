package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/internal/wasmbin"
	"github.com/wippyai/wasm-bridge/value"
)

// partSeparator joins a bridge namespace and the instance it was renamed
// for, e.g. "bridge:callback@part1".
const partSeparator = "@"

// perPart are the namespaces whose slots depend on the importing module.
// Every linked unit gets its own copy under a renamed namespace.
var perPart = []string{imports.NSCallback, imports.NSIntern}

// LoadDeferred fetches the deferred part called name off the loop, then
// links it on the loop. The promise resolves with the part name. Loading
// the same part twice returns the same promise; a failed load is forgotten
// so a later call tries again.
func (a *InstantiatedApp) LoadDeferred(ctx context.Context, name string) (*eventloop.Promise, error) {
	loader := a.opts.DeferredModuleLoader
	if loader == nil {
		return nil, errors.MissingLoader("deferred", name)
	}

	a.mu.Lock()
	if p, ok := a.deferred[name]; ok {
		a.mu.Unlock()
		return p, nil
	}
	p := eventloop.NewPromise(a.loop)
	a.deferred[name] = p
	a.mu.Unlock()

	release := a.loop.Hold()
	go func() {
		data, err := fetch(ctx, func(ctx context.Context) (Source, error) { return loader(ctx, name) })
		a.loop.Post(func(ctx context.Context) error {
			defer release()
			if err == nil {
				_, err = a.link(ctx, name, data, nil)
			}
			if err != nil {
				a.logger.Warn("deferred part failed", zap.String("part", name), zap.Error(err))
				a.mu.Lock()
				if a.deferred[name] == p {
					delete(a.deferred, name)
				}
				a.mu.Unlock()
				p.Fail(err)
				return nil
			}
			a.logger.Debug("deferred part loaded", zap.String("part", name))
			p.Resolve(value.String(name))
			return nil
		})
	}()
	return p, nil
}

// LoadDynamic fetches a dynamically compiled unit and its auxiliary
// imports, links it and resolves with a *DynamicModule exposing its
// exports.
func (a *InstantiatedApp) LoadDynamic(ctx context.Context, wasmName, auxName string) (*eventloop.Promise, error) {
	loader := a.opts.DynamicModuleLoader
	if loader == nil {
		return nil, errors.MissingLoader("dynamic", wasmName)
	}

	a.mu.Lock()
	a.dynamic++
	instance := fmt.Sprintf("%s#%d", wasmName, a.dynamic)
	a.mu.Unlock()

	p := eventloop.NewPromise(a.loop)
	release := a.loop.Hold()
	go func() {
		var aux imports.Imports
		data, err := fetch(ctx, func(ctx context.Context) (Source, error) {
			src, extra, err := loader(ctx, wasmName, auxName)
			aux = extra
			return src, err
		})
		a.loop.Post(func(ctx context.Context) error {
			defer release()
			var dm *DynamicModule
			if err == nil {
				dm, err = a.linkDynamic(ctx, instance, data, aux)
			}
			if err != nil {
				a.logger.Warn("dynamic module failed", zap.String("module", wasmName), zap.Error(err))
				p.Fail(err)
				return nil
			}
			p.Resolve(value.Of(dm))
			return nil
		})
	}()
	return p, nil
}

func fetch(ctx context.Context, open func(context.Context) (Source, error)) ([]byte, error) {
	src, err := open(ctx)
	if err != nil {
		return nil, errors.Load("load module", err)
	}
	if src == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "loader returned no source")
	}
	return src.Read(ctx)
}

func (a *InstantiatedApp) linkDynamic(ctx context.Context, instance string, wasm []byte, aux imports.Imports) (*DynamicModule, error) {
	mod, err := a.link(ctx, instance, wasm, aux)
	if err != nil {
		return nil, err
	}
	return &DynamicModule{name: instance, app: a, exports: engine.NewExports(mod), mod: mod}, nil
}

// link instantiates a further unit into the app's store. The unit imports
// the bridge namespaces, the main module and earlier units by instance
// name, plus the auxiliary imports. Its callback and intern imports are
// renamed to namespaces of its own.
func (a *InstantiatedApp) link(ctx context.Context, instance string, wasm []byte, aux imports.Imports) (api.Module, error) {
	if a.store.Module(instance) != nil {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindConflict).
			Path(instance).
			Detail("module %q is already linked", instance).
			Build()
	}

	info, err := wasmbin.Parse(wasm)
	if err != nil {
		return nil, errors.Compilation(err)
	}
	reqs := engine.Requirements(info)

	renames := make(map[string]string)
	var groups []imports.Group
	for _, ns := range perPart {
		if !slices.ContainsFunc(reqs, func(r imports.Requirement) bool { return r.Namespace == ns }) {
			continue
		}
		renamed := ns + partSeparator + instance
		renames[ns] = renamed
		var g imports.Group
		switch ns {
		case imports.NSCallback:
			g = imports.CallbackGroup(reqs)
		case imports.NSIntern:
			g = imports.InternGroup(reqs)
		}
		g.Namespace = renamed
		groups = append(groups, g)
	}
	if len(renames) > 0 {
		wasm = wasmbin.RenameImportModules(wasm, renames)
		for i := range reqs {
			if to, ok := renames[reqs[i].Namespace]; ok {
				reqs[i].Namespace = to
			}
		}
	}

	own, err := imports.NewBuilder(a.Features()).Add(groups...).Table()
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	if aux != nil {
		for _, ns := range aux.Namespaces() {
			if imports.Reserved(ns) || a.store.Bound(ns) {
				return nil, errors.New(errors.PhaseInstantiate, errors.KindConflict).
					Path(ns).
					Detail("auxiliary namespace %q is already bound", ns).
					Build()
			}
		}
		if own, err = imports.Merge(own, aux, nil); err != nil {
			return nil, errors.Instantiation(err)
		}
	}
	own.Freeze()

	compiled, err := a.module.rt.engine.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}
	defer compiled.Close(ctx)

	visible, err := imports.Merge(a.table, own, nil)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	external := func(ns string) bool { return a.store.Module(ns) != nil }
	if err := imports.Validate(visible, reqs, external); err != nil {
		return nil, errors.Instantiation(err)
	}
	if err := checkTrampolines(compiled, own.Slots(renames[imports.NSCallback])); err != nil {
		return nil, errors.Instantiation(err)
	}

	if err := a.store.Bind(ctx, own, a); err != nil {
		return nil, errors.Instantiation(err)
	}
	a.mu.Lock()
	a.shared[instance] = compiled.SharedMemory()
	a.mu.Unlock()
	return a.store.Instantiate(ctx, wasm, instance)
}

// DynamicModule is the host object a dynamic load resolves with. Its
// exported functions are properties callable through the reflect slots.
type DynamicModule struct {
	name    string
	app     *InstantiatedApp
	exports *engine.Exports
	mod     api.Module
}

// Name returns the instance name of the unit.
func (d *DynamicModule) Name() string { return d.name }

// Exports lists the exported function names.
func (d *DynamicModule) Exports() []string {
	defs := d.mod.ExportedFunctionDefinitions()
	out := make([]string, 0, len(defs))
	for name := range defs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Call invokes an export with host values, using the same conventions as
// InstantiatedApp.CallValue.
func (d *DynamicModule) Call(ctx context.Context, export string, args ...value.Value) (value.Value, error) {
	return invokeValues(ctx, d.app.handles, d.exports, export, args)
}

// Property exposes each exported function as a callable.
func (d *DynamicModule) Property(name string) (value.Value, bool) {
	if _, _, ok := d.exports.Signature(name); !ok {
		return value.Undefined, false
	}
	return value.Of(value.Func(func(ctx context.Context, args ...value.Value) (value.Value, error) {
		return d.Call(ctx, name, args...)
	})), true
}
