// Package wasmbridge runs precompiled WebAssembly modules that expect a
// structured, JS-like host.
//
// The module talks to the host through opaque i32 handles. Host values
// (strings, numbers, arrays, objects, buffers, callables, promises) live in
// a per-app handle table and the module reaches them through fixed import
// groups.
//
// # Architecture Overview
//
//	wasmbridge/          Root package with re-exports and the Memory interface
//	├── runtime/         Compile, instantiate, invoke; loaders and host registry
//	├── engine/          wazero integration: compile, bind tables, instantiate
//	├── imports/         Import slots, groups and the import table builder
//	├── memory/          Typed-memory marshaller: linear memory and array copies
//	├── jsstring/        String interop: UTF-16 chunking and js-string builtins
//	├── value/           Dynamic values and the value tagger
//	├── callback/        Callback wrappers, finalizers and weak references
//	├── eventloop/       Microtasks, timers and promises
//	├── resource/        Handle table
//	├── errors/          Structured error types
//	└── cmd/run          CLI runner with an interactive inspector
//
// # Quick Start
//
//	rt, err := wasmbridge.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	compiled, err := rt.Compile(ctx, wasmBytes, runtime.WithBuiltins(wasmbridge.BuiltinJSString))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app, err := compiled.Instantiate(ctx, nil, wasmbridge.InstantiateOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close(ctx)
//
//	if err := app.InvokeMain(ctx, value.Strings(os.Args[1:])...); err != nil {
//	    log.Fatal(err)
//	}
//	_ = app.Run(ctx)
//
// # Host Functions
//
// Additional imports are plain Go functions:
//
//	reg := wasmbridge.NewHostRegistry()
//	reg.RegisterFunc("env", "now", func() float64 {
//	    return float64(time.Now().UnixMilli())
//	})
//	extra, err := reg.Imports()
//
// They may add namespaces and names but never replace a bridge slot.
//
// # Thread Safety
//
// Runtime and CompiledModule are safe for concurrent use. InstantiatedApp
// is NOT thread-safe and should be driven by a single goroutine.
//
// # Memory Model
//
// Linear memory can only grow. Views handed to the host are re-resolved
// against the current memory on every access, so growth never leaves a
// stale slice behind.
package wasmbridge
