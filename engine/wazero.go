package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/internal/wasmbin"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32 `yaml:"memory_limit_pages" validate:"lte=65536"`

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	// This allows atomic operations and shared memory within WASM modules.
	EnableThreads bool `yaml:"enable_threads"`

	// CloseOnContextDone makes running module code observe context
	// cancellation, at some cost per call.
	CloseOnContextDone bool `yaml:"close_on_context_done"`
}

// Engine compiles modules and creates stores sharing one compilation cache.
type Engine struct {
	cfg   Config
	cache wazero.CompilationCache
	// meta compiles modules to validate them and read their definitions.
	meta wazero.Runtime

	mu     sync.Mutex
	closed bool
}

// New creates an engine. A nil cfg uses the defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	e := &Engine{cache: wazero.NewCompilationCache()}
	if cfg != nil {
		e.cfg = *cfg
	}
	e.meta = wazero.NewRuntimeWithConfig(ctx, e.runtimeConfig())
	return e, nil
}

func (e *Engine) runtimeConfig() wazero.RuntimeConfig {
	rc := wazero.NewRuntimeConfig().WithCompilationCache(e.cache)
	if e.cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(e.cfg.MemoryLimitPages)
	}
	if e.cfg.EnableThreads {
		rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	if e.cfg.CloseOnContextDone {
		rc = rc.WithCloseOnContextDone(true)
	}
	return rc
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Compile validates wasm and reads its imports and exports. Any failure
// is a compilation error.
func (e *Engine) Compile(ctx context.Context, wasm []byte) (*Compiled, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, errors.Closed("engine")
	}

	info, err := wasmbin.Parse(wasm)
	if err != nil {
		return nil, errors.Compilation(err)
	}
	mod, err := e.meta.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Compilation(err)
	}
	Logger().Debug("module compiled",
		zap.Int("bytes", len(wasm)),
		zap.Int("imports", len(info.Imports)),
		zap.Int("exports", len(info.Exports)))
	return &Compiled{bytes: wasm, info: info, module: mod}, nil
}

// Close releases the cache and the metadata runtime. Stores created from
// the engine must be closed first.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.meta.Close(ctx)
	if cerr := e.cache.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Compiled is a validated module with its import and export metadata.
type Compiled struct {
	bytes  []byte
	info   *wasmbin.Info
	module wazero.CompiledModule
}

// Bytes returns the module binary.
func (c *Compiled) Bytes() []byte { return c.bytes }

// Requirements lists every import the module declares.
func (c *Compiled) Requirements() []imports.Requirement {
	return Requirements(c.info)
}

// Requirements converts parsed imports to import requirements.
func Requirements(info *wasmbin.Info) []imports.Requirement {
	out := make([]imports.Requirement, 0, len(info.Imports))
	for _, imp := range info.Imports {
		r := imports.Requirement{
			Namespace: imp.Module,
			Name:      imp.Name,
			Kind:      imports.ImportKind(imp.Kind),
		}
		if imp.Type != nil {
			r.Params = imp.Type.Params
			r.Results = imp.Type.Results
		}
		out = append(out, r)
	}
	return out
}

// ImportsNamespace reports whether any import comes from namespace.
func (c *Compiled) ImportsNamespace(namespace string) bool {
	for _, imp := range c.info.Imports {
		if imp.Module == namespace {
			return true
		}
	}
	return false
}

// ExportNames lists the exported names in declaration order.
func (c *Compiled) ExportNames() []string {
	out := make([]string, 0, len(c.info.Exports))
	for _, e := range c.info.Exports {
		out = append(out, e.Name)
	}
	return out
}

// Signature returns the core signature of an exported function.
func (c *Compiled) Signature(export string) (params, results []api.ValueType, ok bool) {
	def, ok := c.module.ExportedFunctions()[export]
	if !ok {
		return nil, nil, false
	}
	return def.ParamTypes(), def.ResultTypes(), true
}

// SharedMemory reports whether the module defines or imports a shared memory.
func (c *Compiled) SharedMemory() bool { return c.info.SharedMemory }

// HasMemory reports whether the module defines or imports a memory.
func (c *Compiled) HasMemory() bool {
	return len(c.module.ExportedMemories()) > 0 || len(c.module.ImportedMemories()) > 0
}

// Close releases the compiled metadata.
func (c *Compiled) Close(ctx context.Context) error {
	return c.module.Close(ctx)
}
