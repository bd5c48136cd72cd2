// Package callback turns module functions into host callables and gives the
// module the lifetime primitives it expects from its host: finalization
// registries and weak references.
//
// # Wrappers
//
// A module that hands a function to the host passes a target token and names
// a trampoline export with the signature
//
//	(i32 target, i32 argc, i32 x0, ..., i32 xN-1) -> i32?
//
// The Registry validates the trampoline once and returns a Wrapper. Calling
// the wrapper with k arguments inserts each of them into the handle table,
// pads positions k..N-1 with handle 0 and passes argc = k, so the module can
// tell an explicit undefined from a missing argument. Argument handles are
// borrowed for the duration of the call; the result handle transfers to the
// host.
//
// # Finalization and weak references
//
// Finalizers are backed by runtime.AddCleanup. Cleanups run on a runtime
// goroutine and only post the user callback onto the event loop, so callbacks
// run between other loop tasks in no particular order. WeakRef and WeakMap
// use the weak package and work for the reference types the bridge hands
// out.
package callback
