package resource

import (
	"sync"

	"github.com/wippyai/wasm-bridge/value"
)

// Table maps handles to host values for one app.
type Table struct {
	backend   *LocalBackend
	observers []subscription
	nextSub   int
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

func (t *Table) isClosed() bool {
	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	return t.closed
}

// Insert stores v and returns a module-owned handle. The absent value is
// never stored and maps to handle 0.
func (t *Table) Insert(v value.Value) Handle {
	return t.insert(v, false)
}

// Pin stores v so that Release never drops it.
func (t *Table) Pin(v value.Value) Handle {
	return t.insert(v, true)
}

func (t *Table) insert(v value.Value, pinned bool) Handle {
	if v.IsUndefined() || t.isClosed() {
		return 0
	}

	h, refs, created, err := t.backend.Create(v, pinned)
	if err != nil {
		return 0
	}

	typ := EventRetained
	if created {
		typ = EventCreated
	}
	t.notify(Event{Type: typ, Handle: h, Refs: refs, Value: v})
	return h
}

// Get retrieves the value behind h. Handle 0 yields (Undefined, true).
func (t *Table) Get(h Handle) (value.Value, bool) {
	if h == 0 {
		return value.Undefined, true
	}
	return t.backend.Get(h)
}

// Value is Get without the ok flag; unknown handles read as Undefined.
func (t *Table) Value(h Handle) value.Value {
	v, _ := t.Get(h)
	return v
}

// Retain adds a reference to h.
func (t *Table) Retain(h Handle) bool {
	refs, ok := t.backend.Retain(h)
	if ok {
		t.notify(Event{Type: EventRetained, Handle: h, Refs: refs})
	}
	return ok
}

// Release drops one reference to h. Releasing handle 0 or an unknown handle
// is a no-op that reports false.
func (t *Table) Release(h Handle) bool {
	v, _, dropped, ok := t.backend.Release(h)
	if !ok {
		return false
	}
	if dropped {
		if d, ok := v.Raw().(Dropper); ok {
			d.Drop()
		}
		t.notify(Event{Type: EventDropped, Handle: h, Value: v})
	}
	return true
}

// Take reads h and releases the caller's reference, the idiom for handles
// the module hands back to the host.
func (t *Table) Take(h Handle) value.Value {
	v := t.Value(h)
	t.Release(h)
	return v
}

// Refs returns the reference count of h.
func (t *Table) Refs(h Handle) (uint32, bool) {
	return t.backend.Refs(h)
}

type subscription struct {
	id int
	o  Observer
}

// Subscribe adds an observer for lifecycle events and returns a function
// that removes it.
func (t *Table) Subscribe(o Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.nextSub++
	id := t.nextSub
	t.observers = append(t.observers, subscription{id: id, o: o})
	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, s := range t.observers {
			if s.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Each iterates over live handles.
func (t *Table) Each(fn func(Handle, value.Value) bool) {
	t.backend.Each(fn)
}

// Close drops everything and stops accepting inserts.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, s := range t.observers {
		s.o.OnHandleEvent(e)
	}
}
