// Package resource provides the handle table that carries host values across
// the module boundary.
//
// Every non-numeric host value the module sees is an entry in a per-app
// Table and the module holds it as an i32 handle. Handle 0 is reserved for
// the absent value.
//
// # Ownership
//
// A handle given to the module is owned by the module, which releases it
// explicitly:
//
//	h := table.Insert(value.Of(obj)) // refs = 1
//	table.Retain(h)                  // refs = 2
//	table.Release(h)                 // refs = 1
//	table.Release(h)                 // dropped, observers see EventDropped
//
// Reference values (pointers) are deduplicated: inserting the same object
// twice yields the same handle with its count incremented, so the module can
// compare handles for identity.
//
// # Pinning
//
// Pinned entries (interned strings, the global object) are never dropped by
// Release; they live until the table is closed.
//
// # Observers
//
// Observers receive EventCreated, EventRetained and EventDropped. The bridge
// uses them to keep the live-handle gauge and the callback registry current.
package resource
