package runtime

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/imports"
)

// Runtime compiles modules and instantiates apps. It holds the shared
// compilation cache; apps own everything else.
type Runtime struct {
	engine  *engine.Engine
	metrics *metrics

	cfg         Config
	features    imports.Features
	featuresSet bool
	logger      *zap.Logger
	registerer  prometheus.Registerer
	clock       eventloop.Clock
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		features: imports.AllFeatures,
		logger:   engine.Logger(),
		clock:    eventloop.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(r.registerer)
	if err != nil {
		return nil, errors.Load("register metrics", err)
	}
	r.metrics = m

	eng, err := engine.New(ctx, &r.cfg.Engine)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}
	r.engine = eng
	return r, nil
}

// Close releases the compilation cache. Apps must be closed first.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Config returns the runtime configuration.
func (r *Runtime) Config() Config { return r.cfg }

// Features returns the host capabilities offered to modules.
func (r *Runtime) Features() imports.Features { return r.features }

// Logger returns the runtime logger.
func (r *Runtime) Logger() *zap.Logger { return r.logger }

// Compile validates wasm and returns a module that can be instantiated any
// number of times.
func (r *Runtime) Compile(ctx context.Context, wasm []byte, opts ...CompileOption) (*CompiledModule, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}
	builtins := make(map[string]bool, len(o.builtins))
	for _, b := range o.builtins {
		if b != BuiltinJSString {
			err := errors.Unsupported(errors.PhaseCompile, "builtin "+b)
			r.metrics.compiled(err)
			return nil, err
		}
		builtins[b] = true
	}

	compiled, err := r.engine.Compile(ctx, wasm)
	r.metrics.compiled(err)
	if err != nil {
		r.logger.Debug("compile failed", zap.Error(err))
		return nil, err
	}
	return &CompiledModule{rt: r, compiled: compiled, builtins: builtins}, nil
}

// CompileStreaming reads src to the end and compiles the result. It yields
// the same module as Compile on the same bytes.
func (r *Runtime) CompileStreaming(ctx context.Context, src Source, opts ...CompileOption) (*CompiledModule, error) {
	if src == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil source")
	}
	wasm, err := src.Read(ctx)
	if err != nil {
		r.metrics.compiled(err)
		return nil, err
	}
	return r.Compile(ctx, wasm, opts...)
}
