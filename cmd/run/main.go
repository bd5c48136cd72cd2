package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/imports"
	"github.com/wippyai/wasm-bridge/runtime"
)

type argList []string

func (a *argList) String() string     { return strings.Join(*a, " ") }
func (a *argList) Set(s string) error { *a = append(*a, s); return nil }

type options struct {
	wasmFile    string
	configFile  string
	logFile     string
	deferredDir string
	args        argList
	timeout     time.Duration
	jsString    bool
	list        bool
	interactive bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to the module wasm file")
	flag.StringVar(&o.configFile, "config", "", "YAML runtime config")
	flag.StringVar(&o.logFile, "log-file", "", "Write logs to a rotating file")
	flag.StringVar(&o.deferredDir, "deferred-dir", "", "Directory holding deferred parts (<name>.wasm)")
	flag.Var(&o.args, "arg", "Argument passed to main; numbers and true/false are converted (repeatable)")
	flag.DurationVar(&o.timeout, "timeout", 30*time.Second, "Stop the event loop after this long")
	flag.BoolVar(&o.jsString, "js-string", true, "Provide the wasm:js-string builtins")
	flag.BoolVar(&o.list, "list", false, "List imports and exports and exit")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging")
	flag.Parse()

	if o.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-arg a -arg b] [-config bridge.yaml] [-timeout 30s]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	logger, closeLog := newLogger(o)
	defer closeLog()
	engine.SetLogger(logger)

	var err error
	if o.interactive {
		err = runInteractive(o)
	} else {
		err = run(o, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to stderr, colored on a terminal, and optionally to a
// rotating file. The interactive mode owns the terminal, so it logs to the
// file only.
func newLogger(o options) (*zap.Logger, func()) {
	level := zap.InfoLevel
	if o.verbose {
		level = zap.DebugLevel
	}

	var cores []zapcore.Core
	if !o.interactive {
		encCfg := zap.NewDevelopmentEncoderConfig()
		if term.IsTerminal(int(os.Stderr.Fd())) {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level))
	}

	var rotator *lumberjack.Logger
	if o.logFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}

func loadConfig(o options) (runtime.Config, error) {
	if o.configFile == "" {
		return runtime.Config{}, nil
	}
	return runtime.LoadConfig(o.configFile)
}

// deferredLoader reads <dir>/<name>.wasm.
func deferredLoader(dir string) runtime.DeferredLoader {
	if dir == "" {
		return nil
	}
	return func(_ context.Context, name string) (runtime.Source, error) {
		if name != filepath.Base(name) {
			return nil, errors.InvalidInput(errors.PhaseLoad, "part name "+name+" is not a file name")
		}
		f, err := os.Open(filepath.Join(dir, name+".wasm"))
		if err != nil {
			return nil, err
		}
		return runtime.Stream(f), nil
	}
}

// setup compiles the module with a runtime built from the options.
func setup(ctx context.Context, o options) (*runtime.Runtime, *runtime.CompiledModule, error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return nil, nil, err
	}
	rt, err := runtime.New(ctx, runtime.WithConfig(cfg), runtime.WithLogger(engine.Logger()))
	if err != nil {
		return nil, nil, fmt.Errorf("create runtime: %w", err)
	}

	f, err := os.Open(o.wasmFile)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	var copts []runtime.CompileOption
	if o.jsString {
		copts = append(copts, runtime.WithBuiltins(runtime.BuiltinJSString))
	}
	compiled, err := rt.CompileStreaming(ctx, runtime.Stream(f), copts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, nil, fmt.Errorf("compile: %w", err)
	}
	return rt, compiled, nil
}

func run(o options, stdout io.Writer) error {
	ctx := context.Background()
	rt, compiled, err := setup(ctx, o)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if o.list {
		return list(compiled, stdout)
	}

	app, err := compiled.Instantiate(ctx, nil, runtime.InstantiateOptions{
		DeferredModuleLoader: deferredLoader(o.deferredDir),
		Stdout:               stdout,
	})
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer app.Close(ctx)

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := app.InvokeMain(runCtx, convertArgs(o.args)...); err != nil {
		return fmt.Errorf("main: %w", err)
	}
	if err := app.Run(runCtx); err != nil && !stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("event loop: %w", err)
	}
	return nil
}

// importStatus resolves each import of the module against the bridge
// table: "ok", "missing" or the reason it cannot be bound.
func importStatus(compiled *runtime.CompiledModule) (map[string]string, error) {
	table, err := compiled.Table(nil)
	if err != nil {
		return nil, err
	}
	status := make(map[string]string)
	for _, r := range compiled.Imports() {
		status[r.Namespace+"#"+r.Name] = "ok"
	}
	verr := compiled.Check(table)
	var ie *errors.ImportErrors
	if stderrors.As(verr, &ie) {
		for _, p := range ie.Problems {
			status[p.Namespace+"#"+p.Name] = string(p.Reason)
		}
	} else if verr != nil {
		return nil, verr
	}
	return status, nil
}

func list(compiled *runtime.CompiledModule, w io.Writer) error {
	status, err := importStatus(compiled)
	if err != nil {
		return err
	}

	byNS := make(map[string][]imports.Requirement)
	var namespaces []string
	for _, r := range compiled.Imports() {
		if _, ok := byNS[r.Namespace]; !ok {
			namespaces = append(namespaces, r.Namespace)
		}
		byNS[r.Namespace] = append(byNS[r.Namespace], r)
	}

	fmt.Fprintf(w, "Imports: %d\n", len(compiled.Imports()))
	for _, ns := range namespaces {
		fmt.Fprintf(w, "  %s\n", ns)
		for _, r := range byNS[ns] {
			fmt.Fprintf(w, "    %-24s %-28s %s\n", r.Name, r.Signature(), status[r.Namespace+"#"+r.Name])
		}
	}

	fmt.Fprintf(w, "\nExports: %d\n", len(compiled.Exports()))
	for _, name := range compiled.Exports() {
		params, results, _ := compiled.Signature(name)
		fmt.Fprintf(w, "  %s%s\n", name, imports.FormatSignature(params, results))
	}
	return nil
}
