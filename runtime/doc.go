// Package runtime compiles WebAssembly modules and instantiates them against
// the bridge's structured host imports.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	compiled, err := rt.Compile(ctx, wasmBytes, runtime.WithBuiltins(runtime.BuiltinJSString))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app, err := compiled.Instantiate(ctx, nil, runtime.InstantiateOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close(ctx)
//
//	if err := app.InvokeMain(ctx, value.String("hello"), value.Number(1)); err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil { // timers, promises, loaders
//	    log.Fatal(err)
//	}
//
// # Lifecycle
//
// A module moves from bytes to CompiledModule to InstantiatedApp:
//
//	Compile(bytes)            - validate and read import/export metadata
//	CompileStreaming(source)  - same, reading from Bytes, Stream or Response
//	Instantiate(additional)   - build the import table, link, start
//
// A CompiledModule is immutable and may be instantiated many times. Each
// InstantiatedApp owns its store, handle table, event loop and import
// table; no state is shared between apps.
//
// # Imports
//
// The import table is built fresh for every instantiation from the bridge
// groups (bridge:buffer, bridge:text, bridge:timer, ...). Modules compiled
// with the js-string builtin also get wasm:js-string. Callers add their
// own namespaces as additional imports, directly or through HostRegistry:
//
//	reg := runtime.NewHostRegistry()
//	reg.RegisterFunc("env", "log", func(msg string) { fmt.Println(msg) })
//	extra, _ := reg.Imports()
//	app, err := compiled.Instantiate(ctx, extra, runtime.InstantiateOptions{})
//
// Additional imports may add namespaces and names but never replace a
// bridge slot. Every import the module declares is checked before linking
// and all problems are reported together in one *errors.ImportErrors.
//
// # Loading
//
// Deferred parts and dynamic units are loaded on request of the module
// through bridge:loader. Fetching happens off the loop; linking happens on
// the loop, so Run must be driving the app for the returned promise to
// settle. Nil loaders make those requests fail with a descriptive error.
//
// # Thread Safety
//
// Runtime and CompiledModule are safe for concurrent use. An
// InstantiatedApp is not: drive it from one goroutine.
package runtime
