package imports

import (
	"context"

	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/value"
)

func promiseArg(c *Call, i int) *eventloop.Promise {
	p, ok := c.Value(i).Raw().(*eventloop.Promise)
	if !ok {
		c.typeError(i, "Promise")
	}
	return p
}

// Resolvers returns the resolve and reject functions handed to a promise
// executor.
func Resolvers(p *eventloop.Promise) (resolve, reject value.Func) {
	resolve = func(_ context.Context, args ...value.Value) (value.Value, error) {
		p.Resolve(value.Arg(args, 0))
		return value.Undefined, nil
	}
	reject = func(_ context.Context, args ...value.Value) (value.Value, error) {
		p.Reject(value.Arg(args, 0))
		return value.Undefined, nil
	}
	return resolve, reject
}

// PromiseGroup creates and chains promises. The rejection continuation
// receives the reason and whether the reason is undefined, so the module
// can tell a rejection with undefined from one with a real value.
func PromiseGroup() Group {
	return Group{
		Namespace: NSPromise,
		Slots: []Slot{
			Func("new", Params(Handle), Results(Handle), func(c *Call) {
				executor := c.Callable(0)
				p := eventloop.NewPromise(c.Env().Loop())
				resolve, reject := Resolvers(p)
				if _, err := executor.Call(c.Ctx(), value.Of(resolve), value.Of(reject)); err != nil {
					p.Fail(err)
				}
				c.ReturnAny(p)
			}),
			Func("deferred", nil, Results(Handle), func(c *Call) {
				c.ReturnAny(eventloop.NewPromise(c.Env().Loop()))
			}),
			Func("resolve", Params(Handle, Handle), nil, func(c *Call) {
				promiseArg(c, 0).Resolve(c.Value(1))
			}),
			Func("reject", Params(Handle, Handle), nil, func(c *Call) {
				promiseArg(c, 0).Reject(c.Value(1))
			}),
			Func("resolved", Params(Handle), Results(Handle), func(c *Call) {
				p := eventloop.NewPromise(c.Env().Loop())
				p.Resolve(c.Value(0))
				c.ReturnAny(p)
			}),
			Func("rejected", Params(Handle), Results(Handle), func(c *Call) {
				c.ReturnAny(eventloop.RejectedWith(c.Env().Loop(), c.Value(0)))
			}),
			Func("then", Params(Handle, Handle, Handle), Results(Handle), func(c *Call) {
				p := promiseArg(c, 0)
				var (
					onOk  eventloop.OnFulfilled
					onErr eventloop.OnRejected
				)
				if v := c.Value(1); !v.IsNullish() {
					fn := c.Callable(1)
					onOk = func(ctx context.Context, v value.Value) (value.Value, error) {
						return fn.Call(ctx, v)
					}
				}
				if v := c.Value(2); !v.IsNullish() {
					fn := c.Callable(2)
					onErr = func(ctx context.Context, reason value.Value, isUndefined bool) (value.Value, error) {
						return fn.Call(ctx, reason, value.Bool(isUndefined))
					}
				}
				c.ReturnAny(p.Then(onOk, onErr))
			}),
			Func("state", Params(Handle), Results(I32), func(c *Call) {
				c.ReturnI32(int32(promiseArg(c, 0).State()))
			}),
			Func("isPromise", Params(Handle), Results(Bool), func(c *Call) {
				_, ok := c.Value(0).Raw().(*eventloop.Promise)
				c.ReturnBool(ok)
			}),
		},
	}
}
