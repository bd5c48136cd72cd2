package engine

import (
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/internal/wasmbin"
	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

// nopEnv satisfies imports.Env for slots that only use their arguments.
type nopEnv struct{}

func (nopEnv) Handles() *resource.Table            { return resource.NewTable() }
func (nopEnv) Loop() *eventloop.Loop               { return eventloop.New() }
func (nopEnv) Classifier() value.Classifier        { return value.DefaultClassifier }
func (nopEnv) Features() imports.Features          { return imports.Features{} }
func (nopEnv) Global() *value.Object               { return value.NewObject() }
func (nopEnv) Loader() imports.Loader              { return nil }
func (nopEnv) Logger() *zap.Logger                 { return zap.NewNop() }
func (nopEnv) Stdout() io.Writer                   { return io.Discard }
func (nopEnv) Stderr() io.Writer                   { return io.Discard }
func (nopEnv) Scope(api.Module) *imports.Scope     { return &imports.Scope{} }

func doubleTable(t *testing.T) *imports.Table {
	t.Helper()
	tbl := imports.NewTable()
	err := tbl.Define(imports.Slot{
		Namespace: "env",
		Name:      "double",
		Params:    imports.Params(imports.I32),
		Results:   imports.Results(imports.I32),
		Fn:        func(c *imports.Call) { c.ReturnI32(c.I32(0) * 2) },
	})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	return tbl
}

// quadModule exports quad(x) = double(double(x)).
func quadModule() []byte {
	b := wasmbin.NewBuilder()
	double := b.ImportFunc("env", "double", wasmbin.I32s(1), wasmbin.I32s(1))
	b.Memory(1, "memory")
	quad := b.Func(wasmbin.I32s(1), wasmbin.I32s(1), nil,
		wasmbin.LocalGet(0), wasmbin.Call(double), wasmbin.Call(double))
	b.ExportFunc("quad", quad)
	return b.Bytes()
}

func TestNew_Configs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
		{&Config{EnableThreads: true}, "threads"},
		{&Config{CloseOnContextDone: true}, "close on done"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng, err := New(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer eng.Close(ctx)

			if _, err := eng.Compile(ctx, quadModule()); err != nil {
				t.Errorf("Compile: %v", err)
			}
		})
	}
}

func TestCompile_Metadata(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	defer eng.Close(ctx)

	c, err := eng.Compile(ctx, quadModule())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	reqs := c.Requirements()
	if len(reqs) != 1 || reqs[0].Namespace != "env" || reqs[0].Name != "double" || reqs[0].Kind != imports.ImportFunc {
		t.Errorf("unexpected requirements %+v", reqs)
	}
	if !c.ImportsNamespace("env") || c.ImportsNamespace("wasm:js-string") {
		t.Error("ImportsNamespace mismatch")
	}
	params, results, ok := c.Signature("quad")
	if !ok || len(params) != 1 || len(results) != 1 {
		t.Errorf("Signature(quad) = %v %v %v", params, results, ok)
	}
	if _, _, ok := c.Signature("memory"); ok {
		t.Error("memory is not a function export")
	}
	if !c.HasMemory() {
		t.Error("expected memory")
	}
}

func TestCompile_Invalid(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	defer eng.Close(ctx)

	for name, in := range map[string][]byte{
		"garbage":   []byte("not wasm"),
		"truncated": quadModule()[:20],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := eng.Compile(ctx, in)
			var be *errors.Error
			if !stderrors.As(err, &be) || be.Phase != errors.PhaseCompile {
				t.Errorf("expected compile error, got %v", err)
			}
		})
	}
}

func TestStore_BindAndInstantiate(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	defer eng.Close(ctx)

	store, err := eng.NewStore(ctx)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close(ctx)

	if err := store.Bind(ctx, doubleTable(t), nopEnv{}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !store.Bound("env") {
		t.Error("env should be bound")
	}

	mod, err := store.Instantiate(ctx, quadModule(), "main")
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if store.Module("main") != mod {
		t.Error("module not registered under its name")
	}

	x := NewExports(mod)
	res, err := x.Call(ctx, "quad", api.EncodeI32(3))
	if err != nil || api.DecodeI32(res[0]) != 12 {
		t.Errorf("quad(3) = %v, %v", res, err)
	}
	if _, err := x.Call(ctx, "nope"); err == nil {
		t.Error("expected error for missing export")
	}
	if _, _, ok := x.Signature("quad"); !ok {
		t.Error("expected quad signature")
	}

	err = store.Bind(ctx, doubleTable(t), nopEnv{})
	var be *errors.Error
	if !stderrors.As(err, &be) || be.Kind != errors.KindConflict {
		t.Errorf("expected conflict on second bind, got %v", err)
	}
}

func TestStore_MissingImport(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	defer eng.Close(ctx)
	store, _ := eng.NewStore(ctx)
	defer store.Close(ctx)

	_, err := store.Instantiate(ctx, quadModule(), "main")
	var be *errors.Error
	if !stderrors.As(err, &be) || be.Kind != errors.KindInstantiation {
		t.Errorf("expected instantiation error, got %v", err)
	}
}

func TestStore_HostPanicBecomesError(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	defer eng.Close(ctx)
	store, _ := eng.NewStore(ctx)
	defer store.Close(ctx)

	boom := stderrors.New("boom")
	tbl := imports.NewTable()
	tbl.MustDefine(imports.Slot{
		Namespace: "env", Name: "double",
		Params: imports.Params(imports.I32), Results: imports.Results(imports.I32),
		Fn: func(c *imports.Call) { c.Fail(boom) },
	})
	if err := store.Bind(ctx, tbl, nopEnv{}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	mod, err := store.Instantiate(ctx, quadModule(), "main")
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	_, err = NewExports(mod).Call(ctx, "quad", 1)
	if !stderrors.Is(err, boom) {
		t.Errorf("expected trap wrapping boom, got %v", err)
	}
}

func TestClosedEngine(t *testing.T) {
	ctx := context.Background()
	eng, _ := New(ctx, nil)
	if err := eng.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := eng.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := eng.NewStore(ctx); err == nil {
		t.Error("expected error from closed engine")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)
	l := zap.NewExample()
	SetLogger(l)
	if Logger() != l {
		t.Error("SetLogger not applied")
	}
	SetLogger(nil)
	if Logger() == nil {
		t.Error("nil logger must fall back to no-op")
	}
}
