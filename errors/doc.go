// Package errors provides structured error types for the wasm bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the failing slot or path, the host/module type names
// involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
//		Path("bridge:buffer", "view").
//		HostType("Int32").
//		Detail("offset 12 + 4 elements exceeds buffer of 16 bytes").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseMarshal, path, 10, 5)
//	err := errors.MissingLoader("deferred", "part.1")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
