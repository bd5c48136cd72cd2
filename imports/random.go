package imports

import (
	crand "crypto/rand"
	"math/rand/v2"

	"github.com/wippyai/wasm-bridge/errors"
)

// maxRandomFill matches the per-call quota of the platform API the module
// was written against.
const maxRandomFill = 65536

// RandomGroup provides insecure uniform numbers and secure byte fills.
func RandomGroup() Group {
	return Group{
		Namespace: NSRandom,
		Slots: []Slot{
			Func("random", nil, Results(F64), func(c *Call) {
				c.ReturnF64(rand.Float64())
			}),
			Func("seed", nil, Results(F64), func(c *Call) {
				c.ReturnF64(float64(rand.Uint64() >> 11))
			}),
			Func("fillRandom", Params(Handle), nil, func(c *Call) {
				b := viewArg(c, 0).Bytes()
				if len(b) > maxRandomFill {
					c.Fail(errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).
						Detail("random fill of %d bytes exceeds %d", len(b), maxRandomFill).
						Build())
				}
				if _, err := crand.Read(b); err != nil {
					c.Fail(err)
				}
			}),
		},
	}
}
