package wasmbridge

import (
	"context"

	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/memory"
	"github.com/wippyai/wasm-bridge/runtime"
	"github.com/wippyai/wasm-bridge/value"
)

// Memory represents a module's linear memory as seen by the marshaller.
// *memory.Linear implements it.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

var (
	_ Memory      = (*memory.Linear)(nil)
	_ MemorySizer = (*memory.Linear)(nil)
)

type (
	Runtime            = runtime.Runtime
	Config             = runtime.Config
	Option             = runtime.Option
	CompileOption      = runtime.CompileOption
	CompiledModule     = runtime.CompiledModule
	InstantiatedApp    = runtime.InstantiatedApp
	InstantiateOptions = runtime.InstantiateOptions
	DeferredLoader     = runtime.DeferredLoader
	DynamicLoader      = runtime.DynamicLoader
	DynamicModule      = runtime.DynamicModule
	Source             = runtime.Source
	HostRegistry       = runtime.HostRegistry
)

// BuiltinJSString enables the wasm:js-string import group.
const BuiltinJSString = runtime.BuiltinJSString

// New creates a runtime. See runtime.New.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	return runtime.New(ctx, opts...)
}

// NewHostRegistry creates an empty registry for additional imports.
func NewHostRegistry() *HostRegistry { return runtime.NewHostRegistry() }

// Instantiate compiles module bytes, or takes a *CompiledModule, and
// instantiates it.
//
// Deprecated: use Runtime.Compile and CompiledModule.Instantiate.
func Instantiate(ctx context.Context, moduleOrCompiled any, additional imports.Imports) (*InstantiatedApp, error) {
	return runtime.Instantiate(ctx, moduleOrCompiled, additional)
}

// Invoke calls the app's main entry point.
//
// Deprecated: use InstantiatedApp.InvokeMain.
func Invoke(ctx context.Context, app *InstantiatedApp, args ...value.Value) error {
	return runtime.Invoke(ctx, app, args...)
}
