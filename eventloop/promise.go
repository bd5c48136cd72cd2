package eventloop

import (
	"context"

	"github.com/wippyai/wasm-bridge/value"
)

// State is the settlement state of a Promise.
type State uint8

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// OnFulfilled receives the fulfilment value.
type OnFulfilled func(ctx context.Context, v value.Value) (value.Value, error)

// OnRejected receives the rejection reason. isUndefined is true when the
// promise was rejected with the absent value, which the module cannot tell
// apart from "no reason" through a handle alone.
type OnRejected func(ctx context.Context, reason value.Value, isUndefined bool) (value.Value, error)

type reaction struct {
	onOk  OnFulfilled
	onErr OnRejected
	next  *Promise
}

// Promise is a single-assignment result settled on the loop. Reactions
// always run as microtasks, never synchronously inside Resolve or Then.
type Promise struct {
	loop      *Loop
	state     State
	result    value.Value
	reactions []reaction
}

// NewPromise creates a pending promise bound to loop.
func NewPromise(loop *Loop) *Promise {
	return &Promise{loop: loop}
}

// Resolved returns a promise fulfilled with v.
func Resolved(loop *Loop, v value.Value) *Promise {
	p := NewPromise(loop)
	p.Resolve(v)
	return p
}

// RejectedWith returns a promise rejected with reason.
func RejectedWith(loop *Loop, reason value.Value) *Promise {
	p := NewPromise(loop)
	p.Reject(reason)
	return p
}

// State returns the current state.
func (p *Promise) State() State { return p.state }

// Result returns the fulfilment value or rejection reason.
func (p *Promise) Result() value.Value { return p.result }

// Resolve fulfils p with v. When v holds another promise, p adopts its
// eventual state. Settling an already settled promise is a no-op.
func (p *Promise) Resolve(v value.Value) {
	if p.state != Pending {
		return
	}
	if other, ok := v.Raw().(*Promise); ok && other != nil {
		if other == p {
			p.settle(Rejected, value.String("TypeError: promise resolved with itself"))
			return
		}
		other.Then(
			func(_ context.Context, v value.Value) (value.Value, error) {
				p.settle(Fulfilled, v)
				return value.Undefined, nil
			},
			func(_ context.Context, reason value.Value, _ bool) (value.Value, error) {
				p.settle(Rejected, reason)
				return value.Undefined, nil
			},
		)
		return
	}
	p.settle(Fulfilled, v)
}

// Reject rejects p with reason.
func (p *Promise) Reject(reason value.Value) {
	p.settle(Rejected, reason)
}

// Fail rejects p with a Go error.
func (p *Promise) Fail(err error) {
	p.settle(Rejected, value.Of(err))
}

func (p *Promise) settle(state State, v value.Value) {
	if p.state != Pending {
		return
	}
	p.state = state
	p.result = v
	reactions := p.reactions
	p.reactions = nil
	for _, r := range reactions {
		p.schedule(r)
	}
}

// Then registers continuations and returns the derived promise, which
// settles with the continuation's result. A nil continuation passes the
// outcome through unchanged. A failing continuation rejects the derived
// promise and is also reported as a task failure of the loop.
func (p *Promise) Then(onOk OnFulfilled, onErr OnRejected) *Promise {
	r := reaction{onOk: onOk, onErr: onErr, next: NewPromise(p.loop)}
	if p.state == Pending {
		p.reactions = append(p.reactions, r)
	} else {
		p.schedule(r)
	}
	return r.next
}

func (p *Promise) schedule(r reaction) {
	state, result := p.state, p.result
	p.loop.QueueMicrotask(func(ctx context.Context) error {
		var (
			out value.Value
			err error
		)
		switch {
		case state == Fulfilled && r.onOk != nil:
			out, err = r.onOk(ctx, result)
		case state == Rejected && r.onErr != nil:
			out, err = r.onErr(ctx, result, result.IsUndefined())
		case state == Fulfilled:
			r.next.Resolve(result)
			return nil
		default:
			r.next.Reject(result)
			return nil
		}
		if err != nil {
			r.next.Fail(err)
			return err
		}
		r.next.Resolve(out)
		return nil
	})
}

// Wait drives the loop until p settles, the loop goes idle or ctx is done.
func (p *Promise) Wait(ctx context.Context) (value.Value, error) {
	err := p.loop.RunUntil(ctx, func() bool { return p.state != Pending })
	switch p.state {
	case Fulfilled:
		return p.result, err
	case Rejected:
		return value.Undefined, &RejectionError{Reason: p.result}
	}
	if err == nil {
		err = ErrNeverSettled
	}
	return value.Undefined, err
}
