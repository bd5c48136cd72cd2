package imports

import (
	"context"
	"io"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/callback"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/jsstring"
	"github.com/wippyai/wasm-bridge/memory"
	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

// Features lists optional host capabilities.
type Features struct {
	WeakRefs      bool
	Finalizers    bool
	SharedBuffers bool
}

// AllFeatures enables every optional capability.
var AllFeatures = Features{WeakRefs: true, Finalizers: true, SharedBuffers: true}

// Loader loads further code units on behalf of the module.
type Loader interface {
	// LoadDeferred resolves with the part name once the part is linked.
	LoadDeferred(ctx context.Context, name string) (*eventloop.Promise, error)
	// LoadDynamic resolves with a host object exposing the unit's exports.
	LoadDynamic(ctx context.Context, wasmName, auxName string) (*eventloop.Promise, error)
}

// Scope is the environment as seen from one module instance: its memory,
// its array accessors and its exports.
type Scope struct {
	Memory    *memory.Linear // nil when the module has no memory
	Arrays    memory.ArrayAccess
	Codec     *jsstring.Codec
	Invoker   callback.Invoker
	Callbacks *callback.Registry
}

// Env is what slots see of the app they serve.
type Env interface {
	Handles() *resource.Table
	Loop() *eventloop.Loop
	Classifier() value.Classifier
	Features() Features
	Global() *value.Object
	Loader() Loader
	Logger() *zap.Logger
	Stdout() io.Writer
	Stderr() io.Writer
	// Scope returns the per-module view for mod. A nil mod means the main
	// module.
	Scope(mod api.Module) *Scope
}
