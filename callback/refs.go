package callback

import (
	"runtime"
	"weak"

	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/memory"
	"github.com/wippyai/wasm-bridge/value"
)

// ref is a transient view of a reference-typed host value. It must not be
// stored: addCleanup keeps the pointer reachable.
type ref struct {
	key        any
	alive      func() bool
	deref      func() any
	addCleanup func(fn func(*registration), reg *registration) runtime.Cleanup
}

// refOf reports whether raw is a reference the bridge can track weakly.
func refOf(raw any) (ref, bool) {
	switch p := raw.(type) {
	case *value.Array:
		return makeRef(p), p != nil
	case *value.Object:
		return makeRef(p), p != nil
	case *memory.View:
		return makeRef(p), p != nil
	case *memory.Buffer:
		return makeRef(p), p != nil
	case *eventloop.Promise:
		return makeRef(p), p != nil
	case *Wrapper:
		return makeRef(p), p != nil
	case *WeakRef:
		return makeRef(p), p != nil
	case *WeakMap:
		return makeRef(p), p != nil
	case *Finalizers:
		return makeRef(p), p != nil
	}
	return ref{}, false
}

func makeRef[T any](p *T) ref {
	wp := weak.Make(p)
	return ref{
		key:   wp,
		alive: func() bool { return wp.Value() != nil },
		deref: func() any {
			if q := wp.Value(); q != nil {
				return q
			}
			return nil
		},
		addCleanup: func(fn func(*registration), reg *registration) runtime.Cleanup {
			return runtime.AddCleanup(p, fn, reg)
		},
	}
}
