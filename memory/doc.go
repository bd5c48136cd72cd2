// Package memory implements the typed-memory marshaller of the bridge.
//
// A Buffer is raw byte storage with an ownership class (exclusive, shared or
// other). A View is a zero-copy projection of a buffer as a sequence of
// elements of one Kind, mirroring the typed-array family a module expects
// from its host: Int8 through Float64 plus the generic DataView.
//
// Construction is always bounds-checked and never clamps:
//
//	v, err := memory.NewView(memory.Int32, buf, 8, 4) // bytes [8, 24)
//
// Buffers backed by module linear memory re-derive their byte slice on every
// access so a view stays valid across memory growth.
//
// The bulk copy loops (CopyFromModule, CopyToModule) move elements between a
// host View and a module-managed array through an ArrayAccess, which either
// calls the module's $wasmXArrayGet/$wasmXArraySet exports or addresses linear
// memory directly.
package memory
