package resource

import (
	"errors"
	"reflect"
	"sync"

	"github.com/wippyai/wasm-bridge/value"
)

var ErrClosed = errors.New("handle table closed")

// LocalBackend is the slice-backed storage behind Table: handles index
// entries directly and freed slots are reused.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	identity map[any]Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value  value.Value
	refs   uint32
	pinned bool
	valid  bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
		identity: make(map[any]Handle),
	}
}

// identityKey returns the raw value when it has pointer identity.
func identityKey(v value.Value) (any, bool) {
	raw := v.Raw()
	if raw == nil {
		return nil, false
	}
	if reflect.TypeOf(raw).Kind() == reflect.Pointer {
		return raw, true
	}
	return nil, false
}

// Create stores v with one reference, or adds a reference to the existing
// entry for the same object. created reports whether a new entry was made.
func (b *LocalBackend) Create(v value.Value, pinned bool) (h Handle, refs uint32, created bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, 0, false, ErrClosed
	}

	key, hasKey := identityKey(v)
	if hasKey {
		if existing, ok := b.identity[key]; ok {
			e := &b.entries[existing-1]
			e.refs++
			e.pinned = e.pinned || pinned
			return existing, e.refs, false, nil
		}
	}

	e := entry{value: v, refs: 1, pinned: pinned, valid: true}

	if len(b.freeList) > 0 {
		h = b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[h-1] = e
	} else {
		b.entries = append(b.entries, e)
		h = Handle(len(b.entries))
	}
	if hasKey {
		b.identity[key] = h
	}
	return h, 1, true, nil
}

func (b *LocalBackend) lookup(h Handle) *entry {
	if h == 0 || int(h-1) >= len(b.entries) {
		return nil
	}
	e := &b.entries[h-1]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(h Handle) (value.Value, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if e := b.lookup(h); e != nil {
		return e.value, true
	}
	return value.Undefined, false
}

// Retain adds a reference.
func (b *LocalBackend) Retain(h Handle) (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(h)
	if e == nil {
		return 0, false
	}
	e.refs++
	return e.refs, true
}

// Release drops a reference. dropped is true when the entry was removed.
func (b *LocalBackend) Release(h Handle) (v value.Value, refs uint32, dropped, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(h)
	if e == nil {
		return value.Undefined, 0, false, false
	}
	if e.pinned {
		return e.value, e.refs, false, true
	}
	e.refs--
	if e.refs > 0 {
		return e.value, e.refs, false, true
	}

	v = e.value
	if key, hasKey := identityKey(v); hasKey {
		delete(b.identity, key)
	}
	*e = entry{}
	b.freeList = append(b.freeList, h)
	return v, 0, true, true
}

// Refs returns the reference count of a live handle.
func (b *LocalBackend) Refs(h Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if e := b.lookup(h); e != nil {
		return e.refs, true
	}
	return 0, false
}

// Close drops every entry.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.Raw().(Dropper); ok {
				d.Drop()
			}
		}
	}

	b.entries = nil
	b.freeList = nil
	b.identity = nil
	return nil
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries) - len(b.freeList)
}

// Each iterates over live entries.
func (b *LocalBackend) Each(fn func(Handle, value.Value) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.value) {
				break
			}
		}
	}
}
