package imports

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/callback"
	"github.com/wippyai/wasm-bridge/eventloop"
)

// InvokeCallbackExport is the module export that runs a scheduled callback
// identified by its token.
const InvokeCallbackExport = "$invokeCallback"

func callbackTask(inv callback.Invoker, token uint32) eventloop.Task {
	return func(ctx context.Context) error {
		_, err := inv.Call(ctx, InvokeCallbackExport, api.EncodeU32(token))
		return err
	}
}

func millis(ms float64) time.Duration {
	if math.IsNaN(ms) || ms <= 0 {
		return 0
	}
	if ms > float64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// TimerGroup schedules module callbacks on the event loop and reads clocks.
// Timer ids are loop timer ids; clearing an unknown id does nothing.
func TimerGroup() Group {
	var (
		startOnce sync.Once
		start     time.Time
	)
	return Group{
		Namespace: NSTimer,
		Slots: []Slot{
			Func("setTimeout", Params(I32, F64), Results(I32), func(c *Call) {
				task := callbackTask(c.Scope().Invoker, c.U32(0))
				c.ReturnU32(uint32(c.Env().Loop().SetTimeout(millis(c.F64(1)), task)))
			}),
			Func("setInterval", Params(I32, F64), Results(I32), func(c *Call) {
				task := callbackTask(c.Scope().Invoker, c.U32(0))
				c.ReturnU32(uint32(c.Env().Loop().SetInterval(millis(c.F64(1)), task)))
			}),
			Func("clearTimeout", Params(I32), nil, func(c *Call) {
				c.Env().Loop().Cancel(eventloop.TimerID(c.U32(0)))
			}),
			Func("clearInterval", Params(I32), nil, func(c *Call) {
				c.Env().Loop().Cancel(eventloop.TimerID(c.U32(0)))
			}),
			Func("queueMicrotask", Params(I32), nil, func(c *Call) {
				c.Env().Loop().QueueMicrotask(callbackTask(c.Scope().Invoker, c.U32(0)))
			}),
			Func("now", nil, Results(F64), func(c *Call) {
				c.ReturnF64(float64(c.Env().Loop().Clock().Now().UnixMilli()))
			}),
			Func("ticks", nil, Results(F64), func(c *Call) {
				clock := c.Env().Loop().Clock()
				startOnce.Do(func() { start = clock.Now() })
				c.ReturnF64(float64(clock.Now().Sub(start).Microseconds()))
			}),
			Func("timezoneOffset", Params(F64), Results(I32), func(c *Call) {
				_, offset := time.UnixMilli(int64(c.F64(0))).Local().Zone()
				c.ReturnI32(int32(-offset / 60))
			}),
		},
	}
}
