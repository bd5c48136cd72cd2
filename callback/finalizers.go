package callback

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/value"
)

type registration struct {
	f         *Finalizers
	held      value.Value
	token     any
	cleanup   runtime.Cleanup
	cancelled atomic.Bool
}

// Finalizers is a finalization registry: after a registered target becomes
// unreachable, the callback is posted to the loop with the held value.
type Finalizers struct {
	loop     *eventloop.Loop
	callback value.Callable

	mu     sync.Mutex
	tokens map[any][]*registration
}

// NewFinalizers creates a registry whose callback runs on loop.
func NewFinalizers(loop *eventloop.Loop, callback value.Callable) *Finalizers {
	return &Finalizers{
		loop:     loop,
		callback: callback,
		tokens:   make(map[any][]*registration),
	}
}

// Register arranges for the callback to receive held once target is
// collected. A non-undefined token allows Unregister to cancel it.
func (f *Finalizers) Register(target, held, token value.Value) error {
	r, ok := refOf(target.Raw())
	if !ok {
		return invalidTarget("finalization", target)
	}
	if value.Equal(target, held) {
		return errors.InvalidInput(errors.PhaseRuntime, "finalization target and held value must differ")
	}

	var tokenKey any
	if !token.IsUndefined() {
		tr, ok := refOf(token.Raw())
		if !ok {
			return invalidTarget("unregister token", token)
		}
		tokenKey = tr.key
	}

	reg := &registration{f: f, held: held, token: tokenKey}
	reg.cleanup = r.addCleanup(finalize, reg)

	if tokenKey != nil {
		f.mu.Lock()
		f.tokens[tokenKey] = append(f.tokens[tokenKey], reg)
		f.mu.Unlock()
	}
	return nil
}

// Unregister cancels every registration made with token and reports
// whether there was any.
func (f *Finalizers) Unregister(token value.Value) bool {
	r, ok := refOf(token.Raw())
	if !ok {
		return false
	}
	f.mu.Lock()
	regs := f.tokens[r.key]
	delete(f.tokens, r.key)
	f.mu.Unlock()

	for _, reg := range regs {
		reg.cancelled.Store(true)
		reg.cleanup.Stop()
	}
	return len(regs) > 0
}

// finalize runs on a runtime goroutine.
func finalize(reg *registration) {
	if reg.cancelled.Load() {
		return
	}
	f := reg.f
	f.loop.Post(func(ctx context.Context) error {
		if reg.cancelled.Load() {
			return nil
		}
		f.forget(reg)
		_, err := f.callback.Call(ctx, reg.held)
		return err
	})
}

func (f *Finalizers) forget(reg *registration) {
	if reg.token == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	regs := f.tokens[reg.token]
	for i, r := range regs {
		if r == reg {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(f.tokens, reg.token)
	} else {
		f.tokens[reg.token] = regs
	}
}
