package runtime

import (
	"context"
	"fmt"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/value"
)

// Instantiate accepts a *CompiledModule or raw module bytes and returns the
// instantiated app. Bytes are compiled without builtins by a private
// runtime that is closed together with the app.
//
// Deprecated: use Runtime.Compile and CompiledModule.Instantiate, then
// InstantiatedApp.InvokeMain.
func Instantiate(ctx context.Context, moduleOrCompiled any, additional imports.Imports) (*InstantiatedApp, error) {
	switch m := moduleOrCompiled.(type) {
	case *CompiledModule:
		return m.Instantiate(ctx, additional, InstantiateOptions{})
	case []byte:
		return instantiateBytes(ctx, m, additional)
	case Bytes:
		return instantiateBytes(ctx, m, additional)
	}
	return nil, errors.InvalidInput(errors.PhaseInstantiate,
		fmt.Sprintf("cannot instantiate %T", moduleOrCompiled))
}

func instantiateBytes(ctx context.Context, wasm []byte, additional imports.Imports) (*InstantiatedApp, error) {
	rt, err := New(ctx)
	if err != nil {
		return nil, err
	}
	compiled, err := rt.Compile(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	app, err := compiled.Instantiate(ctx, additional, InstantiateOptions{})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	app.owned = rt
	return app, nil
}

// Invoke calls the app's main entry point with args.
//
// Deprecated: use InstantiatedApp.InvokeMain.
func Invoke(ctx context.Context, app *InstantiatedApp, args ...value.Value) error {
	return app.InvokeMain(ctx, args...)
}
