package imports

import (
	"slices"
	"sort"

	"github.com/wippyai/wasm-bridge/errors"
)

// Table is a namespaced set of slots. It is built fresh for every
// instantiation and frozen before the engine sees it.
type Table struct {
	slots  map[string]map[string]*Slot
	frozen bool
}

// Imports is the table form used for caller-supplied additional imports.
type Imports = *Table

func NewTable() *Table {
	return &Table{slots: make(map[string]map[string]*Slot)}
}

// Define adds s. Defining the same namespace and name twice is an error.
func (t *Table) Define(s Slot) error {
	if t.frozen {
		return errors.New(errors.PhaseHost, errors.KindRegistration).
			Path(s.Namespace, s.Name).
			Detail("import table is frozen").
			Build()
	}
	if s.Namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if s.Name == "" {
		return errors.InvalidInput(errors.PhaseHost, "slot name cannot be empty")
	}
	if s.Fn == nil {
		return errors.InvalidInput(errors.PhaseHost, "slot "+s.Key()+" has no function")
	}
	ns := t.slots[s.Namespace]
	if ns == nil {
		ns = make(map[string]*Slot)
		t.slots[s.Namespace] = ns
	}
	if _, dup := ns[s.Name]; dup {
		return errors.New(errors.PhaseHost, errors.KindConflict).
			Path(s.Namespace, s.Name).
			Detail("slot %s registered twice", s.Key()).
			Build()
	}
	ns[s.Name] = &s
	return nil
}

// MustDefine is Define for statically known slots.
func (t *Table) MustDefine(s Slot) {
	if err := t.Define(s); err != nil {
		panic(err)
	}
}

// Lookup finds a slot.
func (t *Table) Lookup(namespace, name string) (*Slot, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.slots[namespace][name]
	return s, ok
}

// HasNamespace reports whether any slot lives in namespace.
func (t *Table) HasNamespace(namespace string) bool {
	return t != nil && len(t.slots[namespace]) > 0
}

// Namespaces returns namespace names in sorted order.
func (t *Table) Namespaces() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.slots))
	for ns := range t.slots {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Slots returns the slots of namespace sorted by name.
func (t *Table) Slots(namespace string) []*Slot {
	if t == nil {
		return nil
	}
	out := make([]*Slot, 0, len(t.slots[namespace]))
	for _, s := range t.slots[namespace] {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Slot) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Len counts slots.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, ns := range t.slots {
		n += len(ns)
	}
	return n
}

// Freeze rejects further definitions.
func (t *Table) Freeze()      { t.frozen = true }
func (t *Table) Frozen() bool { return t.frozen }

// Merge returns a table holding base plus additional. A slot of additional
// that collides with a base slot in a reserved namespace is a conflict;
// new names, new namespaces and collisions elsewhere are accepted, with
// additional winning.
func Merge(base, additional *Table, reserved func(namespace string) bool) (*Table, error) {
	out := NewTable()
	for ns, slots := range base.slots {
		out.slots[ns] = make(map[string]*Slot, len(slots))
		for name, s := range slots {
			out.slots[ns][name] = s
		}
	}
	if additional == nil {
		return out, nil
	}
	for _, ns := range additional.Namespaces() {
		for _, s := range additional.Slots(ns) {
			if _, exists := out.slots[ns][s.Name]; exists {
				if reserved != nil && reserved(ns) {
					return nil, errors.Conflict(ns, s.Name)
				}
			}
			if out.slots[ns] == nil {
				out.slots[ns] = make(map[string]*Slot)
			}
			out.slots[ns][s.Name] = s
		}
	}
	return out, nil
}
