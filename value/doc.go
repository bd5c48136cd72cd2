// Package value defines the host-side representation of dynamic values that
// cross the module boundary, and the tagger that classifies them.
//
// A Value is a tagged union built once, at the boundary, by a Classifier.
// Numbers of every Go kind are normalised to float64; strings are WTF-8 so
// lone surrogates survive a round trip; lists, objects, typed views and
// buffers are reference values compared by identity.
//
// Classification is total and follows a fixed priority:
//
//	absent, boolean, number, string, list,
//	Int8 .. Float64, DataView, buffer, shared buffer, other
//
// Shared buffers only get their own tag when the Classifier reports shared
// memory support; otherwise they fall through to TagOther.
package value
