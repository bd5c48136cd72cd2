package imports

import (
	"github.com/wippyai/wasm-bridge/errors"
)

// Group is a capability: a namespace and the slots it provides.
type Group struct {
	Namespace string
	// Requires reports whether the host supports the capability. When it
	// returns false the group's slots are registered as stubs.
	Requires func(Features) bool
	Slots    []Slot
}

// Builder assembles groups into a table.
type Builder struct {
	features Features
	table    *Table
	err      error
}

func NewBuilder(f Features) *Builder {
	return &Builder{features: f, table: NewTable()}
}

// Add registers every slot of g. The first failure is kept and reported by
// Build.
func (b *Builder) Add(groups ...Group) *Builder {
	for _, g := range groups {
		supported := g.Requires == nil || g.Requires(b.features)
		for _, s := range g.Slots {
			if b.err != nil {
				return b
			}
			s.Namespace = g.Namespace
			if !supported {
				s = Stub(s)
			}
			if err := b.table.Define(s); err != nil {
				b.err = errors.Registration(errors.PhaseHost, g.Namespace, s.Name, err)
			}
		}
	}
	return b
}

// Table returns the table built so far without freezing it.
func (b *Builder) Table() (*Table, error) {
	return b.table, b.err
}

// Build freezes and returns the table.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.table.Freeze()
	return b.table, nil
}

// Namespaces of the bridge groups. They are reserved: additional imports
// cannot override their slots.
const (
	NSBuffer     = "bridge:buffer"
	NSText       = "bridge:text"
	NSTimer      = "bridge:timer"
	NSRandom     = "bridge:random"
	NSReflect    = "bridge:reflect"
	NSCollection = "bridge:collection"
	NSWeak       = "bridge:weak"
	NSPromise    = "bridge:promise"
	NSPlatform   = "bridge:platform"
	NSCallback   = "bridge:callback"
	NSIntern     = "bridge:intern"
	NSLoader     = "bridge:loader"
	NSJSString   = "wasm:js-string"
)

// Reserved reports whether namespace belongs to the bridge.
func Reserved(namespace string) bool {
	switch namespace {
	case NSBuffer, NSText, NSTimer, NSRandom, NSReflect, NSCollection, NSWeak,
		NSPromise, NSPlatform, NSCallback, NSIntern, NSLoader, NSJSString:
		return true
	}
	return false
}

// Base returns the standard groups: buffer, text, timer, random, reflect,
// collection, weak, finalizer, promise, platform and loader.
func Base() []Group {
	return []Group{
		BufferGroup(),
		TextGroup(),
		TimerGroup(),
		RandomGroup(),
		ReflectGroup(),
		CollectionGroup(),
		WeakGroup(),
		FinalizerGroup(),
		PromiseGroup(),
		PlatformGroup(),
		LoaderGroup(),
	}
}
