package imports

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/value"
)

// PlatformGroup reports facts about the host and writes console output.
func PlatformGroup() Group {
	return Group{
		Namespace: NSPlatform,
		Slots: []Slot{
			Func("isWindows", nil, Results(Bool), func(c *Call) {
				c.ReturnBool(runtime.GOOS == "windows")
			}),
			Func("os", nil, Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(runtime.GOOS))
			}),
			Func("arch", nil, Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(runtime.GOARCH))
			}),
			Func("cpuCount", nil, Results(I32), func(c *Call) {
				c.ReturnI32(int32(runtime.NumCPU()))
			}),
			Func("env", Params(Handle), Results(Handle), func(c *Call) {
				v, ok := os.LookupEnv(c.Str(0))
				if !ok {
					c.ReturnValue(value.Undefined)
					return
				}
				c.ReturnValue(value.String(v))
			}),
			Func("print", Params(Handle), nil, func(c *Call) {
				fmt.Fprintln(c.Env().Stdout(), c.Str(0))
			}),
			Func("warn", Params(Handle), nil, func(c *Call) {
				msg := c.Str(0)
				fmt.Fprintln(c.Env().Stderr(), msg)
				c.Env().Logger().Debug("module warning", zap.String("message", msg))
			}),
			Func("stackTrace", nil, Results(Handle), func(c *Call) {
				c.ReturnValue(value.String(string(debug.Stack())))
			}),
		},
	}
}
