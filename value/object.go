package value

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a host object with insertion-ordered string keys. Class names
// the constructor for String() rendering and instanceof-style checks.
type Object struct {
	Class string
	props *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty plain object.
func NewObject() *Object {
	return &Object{props: orderedmap.New[string, Value]()}
}

// NewObjectOf returns an object with the given class name.
func NewObjectOf(class string) *Object {
	o := NewObject()
	o.Class = class
	return o
}

func (o *Object) m() *orderedmap.OrderedMap[string, Value] {
	if o.props == nil {
		o.props = orderedmap.New[string, Value]()
	}
	return o.props
}

// IsPlain reports whether the object has no class.
func (o *Object) IsPlain() bool { return o.Class == "" }

// Get returns the property or Undefined.
func (o *Object) Get(key string) Value {
	v, _ := o.m().Get(key)
	return v
}

func (o *Object) Has(key string) bool {
	_, ok := o.m().Get(key)
	return ok
}

func (o *Object) Set(key string, v Value) {
	o.m().Set(key, v)
}

// Delete removes the property and reports whether it existed.
func (o *Object) Delete(key string) bool {
	_, ok := o.m().Delete(key)
	return ok
}

func (o *Object) Len() int { return o.m().Len() }

// Keys returns property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m().Len())
	for pair := o.m().Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits properties in insertion order until fn returns false.
func (o *Object) Each(fn func(key string, v Value) bool) {
	for pair := o.m().Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}
