package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/internal/wasmbin"
	"github.com/wippyai/wasm-bridge/runtime"
)

func echoModule(t *testing.T) string {
	t.Helper()
	i32 := api.ValueTypeI32
	b := wasmbin.NewBuilder()
	get := b.ImportFunc(imports.NSCollection, "get", []api.ValueType{i32, i32}, []api.ValueType{i32})
	printFn := b.ImportFunc(imports.NSPlatform, "print", []api.ValueType{i32}, nil)
	b.ImportFunc("env", "extra", nil, nil)
	entry := b.Func([]api.ValueType{i32}, nil, nil,
		wasmbin.LocalGet(0), wasmbin.I32Const(1), wasmbin.Call(get), wasmbin.Call(printFn))
	b.ExportFunc(runtime.InvokeMainExport, entry)

	path := filepath.Join(t.TempDir(), "echo.wasm")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o600))
	return path
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	err := run(options{wasmFile: echoModule(t), list: true, timeout: time.Second}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Imports: 3")
	assert.Contains(t, s, imports.NSPlatform)
	assert.Contains(t, s, "missing")
	assert.Contains(t, s, runtime.InvokeMainExport+"(i32) -> ()")
}

func TestRun_ReportsMissingImports(t *testing.T) {
	var out bytes.Buffer
	err := run(options{wasmFile: echoModule(t), args: argList{"a", "b"}, timeout: time.Second}, &out)
	require.Error(t, err)
	assert.ErrorContains(t, err, "extra (missing")
}

func TestRun_Config(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("bogus: 1\n"), 0o600))

	err := run(options{wasmFile: echoModule(t), configFile: cfg, timeout: time.Second}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestConvertArg(t *testing.T) {
	assert.Equal(t, 2.5, convertArg("2.5").Raw())
	assert.Equal(t, "x", convertArg("x").Raw())
	assert.Equal(t, true, convertArg("true").Raw())
	assert.True(t, convertArg("").IsUndefined())

	args := convertArgs([]string{"7", "false", "name"})
	require.Len(t, args, 3)
	assert.Equal(t, 7.0, args[0].Raw())
	assert.Equal(t, false, args[1].Raw())
	assert.Equal(t, "name", args[2].Raw())
}
