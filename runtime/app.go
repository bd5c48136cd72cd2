package runtime

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/callback"
	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/jsstring"
	"github.com/wippyai/wasm-bridge/memory"
	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

const (
	// MainModuleName is the instance name of the main module. Deferred
	// parts import its exports under this name.
	MainModuleName = "main"

	// InvokeMainExport receives the start arguments as one list handle.
	InvokeMainExport = "$invokeMain"
)

// InstantiatedApp is a running module with its own store, handle table,
// event loop and import table. Nothing is shared with other apps.
//
// An app is not safe for concurrent use. Loaders run their fetch off the
// loop and hand the result back through the loop.
type InstantiatedApp struct {
	id      uuid.UUID
	module  *CompiledModule
	store   *engine.Store
	table   *imports.Table
	handles *resource.Table
	loop    *eventloop.Loop
	global  *value.Object
	opts    InstantiateOptions
	logger  *zap.Logger
	metrics *metrics
	classes value.Classifier

	main        api.Module
	mainExports *engine.Exports
	unsubscribe func()
	// owned is closed together with the app; set by the legacy shim.
	owned *Runtime

	mu       sync.Mutex
	scopes   map[string]*imports.Scope
	deferred map[string]*eventloop.Promise
	// shared marks linked units whose memory is shared.
	shared   map[string]bool
	dynamic  int
	closed   bool
}

func newApp(m *CompiledModule, store *engine.Store, table *imports.Table, opts InstantiateOptions) *InstantiatedApp {
	id := uuid.New()
	rt := m.rt
	logger := rt.logger.With(zap.String("app", id.String()))
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	global := opts.Global
	if global == nil {
		global = value.NewObject()
	}

	a := &InstantiatedApp{
		id:       id,
		module:   m,
		store:    store,
		table:    table,
		handles:  resource.NewTable(),
		loop:     eventloop.New(eventloop.WithClock(rt.clock), eventloop.WithLogger(logger)),
		global:   global,
		opts:     opts,
		logger:   logger,
		metrics:  rt.metrics,
		classes:  value.Classifier{SharedBuffers: rt.features.SharedBuffers},
		scopes:   make(map[string]*imports.Scope),
		deferred: make(map[string]*eventloop.Promise),
		shared:   make(map[string]bool),
	}
	gauge := rt.metrics.liveHandles
	a.unsubscribe = a.handles.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		switch e.Type {
		case resource.EventCreated:
			gauge.Inc()
		case resource.EventDropped:
			gauge.Dec()
		}
	}))
	return a
}

func (a *InstantiatedApp) setMain(mod api.Module) {
	a.main = mod
	a.mainExports = engine.NewExports(mod)
}

// ID identifies the app in logs.
func (a *InstantiatedApp) ID() string { return a.id.String() }

// Module returns the main module instance.
func (a *InstantiatedApp) Module() api.Module { return a.main }

// Compiled returns the module the app was instantiated from.
func (a *InstantiatedApp) Compiled() *CompiledModule { return a.module }

// Linked returns the instance registered under name: "main", a deferred
// part name or a dynamic unit name. It is nil when nothing is linked.
func (a *InstantiatedApp) Linked(name string) api.Module { return a.store.Module(name) }

// Table returns the frozen import table of the main module.
func (a *InstantiatedApp) Table() *imports.Table { return a.table }

// Values returns the handle table shared by every module of the app.
func (a *InstantiatedApp) Values() *resource.Table { return a.handles }

// Loop returns the app's event loop.
func (a *InstantiatedApp) Loop() *eventloop.Loop { return a.loop }

// Global returns the object the module sees as the global scope.
func (a *InstantiatedApp) Global() *value.Object { return a.global }

func (a *InstantiatedApp) Handles() *resource.Table      { return a.handles }
func (a *InstantiatedApp) Classifier() value.Classifier { return a.classes }
func (a *InstantiatedApp) Features() imports.Features   { return a.module.rt.features }
func (a *InstantiatedApp) Loader() imports.Loader       { return a }
func (a *InstantiatedApp) Logger() *zap.Logger          { return a.logger }
func (a *InstantiatedApp) Stdout() io.Writer            { return a.opts.Stdout }
func (a *InstantiatedApp) Stderr() io.Writer            { return a.opts.Stderr }

// ObserveSlot counts slot calls. Per-part namespaces are folded into the
// namespace they were renamed from.
func (a *InstantiatedApp) ObserveSlot(s *imports.Slot) {
	ns, _, _ := strings.Cut(s.Namespace, partSeparator)
	a.metrics.slotCalls.WithLabelValues(ns).Inc()
}

// Scope returns the per-module view for mod, creating it on first use.
// A nil mod means the main module.
func (a *InstantiatedApp) Scope(mod api.Module) *imports.Scope {
	if mod == nil {
		mod = a.main
	}
	if mod == nil {
		return &imports.Scope{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if sc, ok := a.scopes[mod.Name()]; ok {
		return sc
	}
	sc := a.newScope(mod)
	a.scopes[mod.Name()] = sc
	return sc
}

func (a *InstantiatedApp) newScope(mod api.Module) *imports.Scope {
	sc := &imports.Scope{}
	var fallback memory.ArrayAccess
	if mem := mod.Memory(); mem != nil {
		shared := a.shared[mod.Name()]
		if mod == a.main {
			shared = a.module.compiled.SharedMemory()
		}
		sc.Memory = memory.NewLinear(mem, shared)
		fallback = memory.MemoryArrays{Mem: sc.Memory}
	}
	sc.Arrays = memory.ModuleArrays{Exports: memory.NewExportArrays(mod), Fallback: fallback}
	sc.Codec = &jsstring.Codec{ChunkSize: a.module.rt.cfg.StringChunkSize, Arrays: sc.Arrays}

	exports := engine.NewExports(mod)
	sc.Invoker = exports
	sc.Callbacks = callback.NewRegistry(exports, a.handles)
	sc.Callbacks.SetHook(a.metrics.callback)
	return sc
}

// InvokeMain passes args to the module's main entry point as one list and
// drains the microtasks it queued. Timers keep running under Run.
func (a *InstantiatedApp) InvokeMain(ctx context.Context, args ...value.Value) error {
	if a.main == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "app")
	}
	h := a.handles.Insert(value.Of(value.NewArray(args...)))
	defer a.handles.Release(h)

	if _, err := a.mainExports.Call(ctx, InvokeMainExport, api.EncodeU32(uint32(h))); err != nil {
		return err
	}
	a.loop.DrainMicrotasks(ctx)
	return nil
}

// Run drives timers, microtasks and loader completions until the loop is
// idle or ctx is done.
func (a *InstantiatedApp) Run(ctx context.Context) error {
	return a.loop.Run(ctx)
}

// Call invokes a main module export with raw core values.
func (a *InstantiatedApp) Call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	if a.main == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "app")
	}
	return a.mainExports.Call(ctx, export, params...)
}

// CallValue invokes a main module export with host values. i32 parameters
// receive borrowed handles, float and i64 parameters receive numbers. An
// i32 result is a handle whose ownership passes to the host.
func (a *InstantiatedApp) CallValue(ctx context.Context, export string, args ...value.Value) (value.Value, error) {
	if a.main == nil {
		return value.Undefined, errors.NotInitialized(errors.PhaseRuntime, "app")
	}
	return invokeValues(ctx, a.handles, a.mainExports, export, args)
}

func invokeValues(ctx context.Context, handles *resource.Table, inv callback.Invoker, export string, args []value.Value) (value.Value, error) {
	params, results, ok := inv.Signature(export)
	if !ok {
		return value.Undefined, errors.NotFound(errors.PhaseRuntime, "export", export)
	}

	raw := make([]uint64, len(params))
	var borrowed []resource.Handle
	defer func() {
		for _, h := range borrowed {
			handles.Release(h)
		}
	}()
	for i, t := range params {
		v := value.Arg(args, i)
		switch t {
		case api.ValueTypeI32:
			h := handles.Insert(v)
			borrowed = append(borrowed, h)
			raw[i] = api.EncodeU32(uint32(h))
		case api.ValueTypeI64:
			raw[i] = uint64(int64(value.ToNumber(v)))
		case api.ValueTypeF32:
			raw[i] = api.EncodeF32(float32(value.ToNumber(v)))
		case api.ValueTypeF64:
			raw[i] = api.EncodeF64(value.ToNumber(v))
		default:
			return value.Undefined, errors.Unsupported(errors.PhaseRuntime, api.ValueTypeName(t)+" parameter of "+export)
		}
	}

	out, err := inv.Call(ctx, export, raw...)
	if err != nil || len(results) == 0 {
		return value.Undefined, err
	}
	switch results[0] {
	case api.ValueTypeI32:
		return handles.Take(resource.Handle(api.DecodeU32(out[0]))), nil
	case api.ValueTypeI64:
		return value.Number(float64(int64(out[0]))), nil
	case api.ValueTypeF32:
		return value.Number(float64(api.DecodeF32(out[0]))), nil
	case api.ValueTypeF64:
		return value.Number(api.DecodeF64(out[0])), nil
	}
	return value.Undefined, errors.Unsupported(errors.PhaseRuntime, api.ValueTypeName(results[0])+" result of "+export)
}

// Close releases the store, every handle and the loop. It is safe to call
// more than once.
func (a *InstantiatedApp) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.unsubscribe()
	a.metrics.liveHandles.Sub(float64(a.handles.Len()))
	err := multierr.Combine(
		a.store.Close(ctx),
		a.handles.Close(),
	)
	if a.owned != nil {
		err = multierr.Append(err, a.owned.Close(ctx))
	}
	a.logger.Debug("app closed", zap.Error(err))
	return err
}
