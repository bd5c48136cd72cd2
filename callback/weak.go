package callback

import (
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/value"
)

// WeakRef holds a target without keeping it reachable.
type WeakRef struct {
	deref func() any
}

// NewWeakRef fails for primitives and values the bridge cannot track.
func NewWeakRef(target value.Value) (*WeakRef, error) {
	r, ok := refOf(target.Raw())
	if !ok {
		return nil, invalidTarget("WeakRef", target)
	}
	return &WeakRef{deref: r.deref}, nil
}

// Deref returns the target, or Undefined once it has been collected.
func (w *WeakRef) Deref() value.Value {
	raw := w.deref()
	if raw == nil {
		return value.Undefined
	}
	return value.Of(raw)
}

type weakEntry struct {
	alive func() bool
	val   value.Value
}

// WeakMap maps reference keys to values without keeping the keys reachable.
// Values are held strongly while their key is alive; a value that refers
// back to its own key keeps the entry alive.
type WeakMap struct {
	entries   map[any]weakEntry
	lastPurge int
}

func NewWeakMap() *WeakMap {
	return &WeakMap{entries: make(map[any]weakEntry)}
}

// Get returns the value for key or Undefined.
func (m *WeakMap) Get(key value.Value) value.Value {
	r, ok := refOf(key.Raw())
	if !ok {
		return value.Undefined
	}
	e, ok := m.entries[r.key]
	if !ok || !e.alive() {
		return value.Undefined
	}
	return e.val
}

func (m *WeakMap) Has(key value.Value) bool {
	r, ok := refOf(key.Raw())
	if !ok {
		return false
	}
	_, ok = m.entries[r.key]
	return ok
}

// Set fails for keys that are not references.
func (m *WeakMap) Set(key, v value.Value) error {
	r, ok := refOf(key.Raw())
	if !ok {
		return invalidTarget("WeakMap key", key)
	}
	m.entries[r.key] = weakEntry{alive: r.alive, val: v}
	if len(m.entries) > 2*m.lastPurge+8 {
		m.purge()
	}
	return nil
}

func (m *WeakMap) Delete(key value.Value) bool {
	r, ok := refOf(key.Raw())
	if !ok {
		return false
	}
	_, ok = m.entries[r.key]
	delete(m.entries, r.key)
	return ok
}

// Len counts entries including ones whose keys died since the last purge.
func (m *WeakMap) Len() int { return len(m.entries) }

func (m *WeakMap) purge() {
	for k, e := range m.entries {
		if !e.alive() {
			delete(m.entries, k)
		}
	}
	m.lastPurge = len(m.entries)
}

func invalidTarget(what string, v value.Value) error {
	return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		HostType(value.TypeOf(v)).
		Detail("invalid %s target: %s is not a reference", what, v.Tag()).
		Build()
}
