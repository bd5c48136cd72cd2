package eventloop

import (
	"errors"

	"github.com/wippyai/wasm-bridge/value"
)

// ErrNeverSettled is returned by Wait when the loop went idle with the
// promise still pending.
var ErrNeverSettled = errors.New("eventloop: promise never settled")

// RejectionError carries the reason of a rejected promise.
type RejectionError struct {
	Reason value.Value
}

func (e *RejectionError) Error() string {
	if err, ok := e.Reason.Error(); ok {
		return "promise rejected: " + err.Error()
	}
	return "promise rejected: " + value.ToString(e.Reason)
}

func (e *RejectionError) Unwrap() error {
	err, _ := e.Reason.Error()
	return err
}
