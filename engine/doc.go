// Package engine is the bridge's thin layer over wazero.
//
// An Engine owns a compilation cache shared by every store it creates. A
// Store is one isolated wazero runtime: the bridge's host namespaces are
// bound into it as host modules, then the main module and any deferred
// parts are instantiated next to them so parts can import "main".
//
//	eng, err := engine.New(ctx, &engine.Config{MemoryLimitPages: 1024})
//	compiled, err := eng.Compile(ctx, wasmBytes)
//	store, err := eng.NewStore(ctx)
//	err = store.Bind(ctx, table, env)
//	mod, err := store.Instantiate(ctx, compiled.Bytes(), "main")
//
// # Thread Safety
//
// Engine is safe for concurrent use. A Store belongs to one app and is
// driven from that app's loop.
//
// # Experimental Features
//
// Threads/Atomics: Enable via Config.EnableThreads. Shared memories become
// available to the module; the host still sees them through api.Memory.
//
// # Known Limitations
//
// wazero v1.10.1 implements neither the GC proposal nor typed function
// references, so modules must use the handle ABI with i32 handles in place
// of externref values.
package engine
