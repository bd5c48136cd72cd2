package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/imports"
)

// Config holds the tunables of a Runtime. The zero value is usable.
type Config struct {
	Engine engine.Config `yaml:"engine"`

	// StringChunkSize bounds how many code units are read per batch when
	// a module string is copied to the host. 0 means 500.
	StringChunkSize int `yaml:"string_chunk_size" validate:"gte=0,lte=65536"`

	DisableWeakRefs      bool `yaml:"disable_weak_refs"`
	DisableFinalizers    bool `yaml:"disable_finalizers"`
	DisableSharedBuffers bool `yaml:"disable_shared_buffers"`
}

// Features derives the host capabilities from the disable switches.
func (c Config) Features() imports.Features {
	return imports.Features{
		WeakRefs:      !c.DisableWeakRefs,
		Finalizers:    !c.DisableFinalizers,
		SharedBuffers: !c.DisableSharedBuffers,
	}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConfig replaces the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(r *Runtime) {
		r.cfg = cfg
		if !r.featuresSet {
			r.features = cfg.Features()
		}
	}
}

// WithLogger sets the logger. Each app logs through a child carrying its id.
func WithLogger(lg *zap.Logger) Option {
	return func(r *Runtime) {
		if lg != nil {
			r.logger = lg
		}
	}
}

// WithMetrics registers the runtime collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Runtime) { r.registerer = reg }
}

// WithClock sets the time source of every app event loop.
func WithClock(c eventloop.Clock) Option {
	return func(r *Runtime) { r.clock = c }
}

// WithFeatures overrides the capabilities derived from the config.
func WithFeatures(f imports.Features) Option {
	return func(r *Runtime) {
		r.features = f
		r.featuresSet = true
	}
}

// CompileOption configures a single compilation.
type CompileOption func(*compileOptions)

type compileOptions struct {
	builtins []string
}

// BuiltinJSString enables the wasm:js-string import namespace.
const BuiltinJSString = "js-string"

// WithBuiltins declares the builtin import sets the module was compiled
// against. Only "js-string" is known.
func WithBuiltins(names ...string) CompileOption {
	return func(o *compileOptions) {
		o.builtins = append(o.builtins, names...)
	}
}
