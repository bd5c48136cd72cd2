// Package imports builds the table of host capabilities a module is
// instantiated against.
//
// A Table maps namespace and name to a Slot: a host function with a fixed
// core signature. Slots are grouped by capability (bridge:buffer,
// bridge:text, bridge:timer and so on); a Builder assembles the groups that
// the host supports into a fresh Table for every instantiation.
//
// Non-numeric values cross the boundary as i32 handles into the app's
// resource.Table. Inside a slot, Call gives typed access to arguments and
// results:
//
//	Func("length", Params(Handle), Results(I32), func(c *Call) {
//		s := c.Str(0)
//		c.ReturnI32(int32(jsstring.Length(s)))
//	})
//
// Handles returned by a slot are owned by the module, which releases them
// through bridge:reflect.release. Handles passed as arguments are borrowed.
//
// Validate checks a module's declared imports against a table and reports
// every missing slot and every signature mismatch in a single
// *errors.ImportErrors, before the engine is asked to instantiate.
package imports
