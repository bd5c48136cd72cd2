// Package jsstring implements the string interop layer: the primitive string
// operations a module imports, and bulk conversion between host strings and
// module-managed arrays of UTF-16 code units.
//
// Host strings are Go strings in WTF-8, a superset of UTF-8 that can encode
// unpaired surrogates, so any sequence of code units survives a round trip.
// Lengths and indices are in UTF-16 code units.
package jsstring
