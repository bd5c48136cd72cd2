package value

import (
	"github.com/wippyai/wasm-bridge/memory"
)

// Tag is the small integer the module switches on to decide how to handle a
// dynamic value. The numbering is part of the module ABI.
type Tag int32

const (
	TagAbsent       Tag = 1
	TagBool         Tag = 2
	TagNumber       Tag = 3
	TagString       Tag = 4
	TagList         Tag = 5
	TagInt8         Tag = 6
	TagUint8        Tag = 7
	TagUint8Clamped Tag = 8
	TagInt16        Tag = 9
	TagUint16       Tag = 10
	TagInt32        Tag = 11
	TagUint32       Tag = 12
	TagFloat32      Tag = 13
	TagFloat64      Tag = 14
	TagDataView     Tag = 15
	TagBuffer       Tag = 16
	TagSharedBuffer Tag = 17
	TagOther        Tag = 18
)

var tagNames = map[Tag]string{
	TagAbsent:       "absent",
	TagBool:         "boolean",
	TagNumber:       "number",
	TagString:       "string",
	TagList:         "list",
	TagInt8:         "Int8Array",
	TagUint8:        "Uint8Array",
	TagUint8Clamped: "Uint8ClampedArray",
	TagInt16:        "Int16Array",
	TagUint16:       "Uint16Array",
	TagInt32:        "Int32Array",
	TagUint32:       "Uint32Array",
	TagFloat32:      "Float32Array",
	TagFloat64:      "Float64Array",
	TagDataView:     "DataView",
	TagBuffer:       "ArrayBuffer",
	TagSharedBuffer: "SharedArrayBuffer",
	TagOther:        "other",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "unknown"
}

// viewTags maps view kinds to tags. 64-bit integer views have no tag of
// their own and classify as other.
var viewTags = map[memory.Kind]Tag{
	memory.Int8:         TagInt8,
	memory.Uint8:        TagUint8,
	memory.Uint8Clamped: TagUint8Clamped,
	memory.Int16:        TagInt16,
	memory.Uint16:       TagUint16,
	memory.Int32:        TagInt32,
	memory.Uint32:       TagUint32,
	memory.Float32:      TagFloat32,
	memory.Float64:      TagFloat64,
	memory.DataView:     TagDataView,
}

// Classifier assigns tags. It is pure: the same raw value always yields the
// same tag for a given configuration.
type Classifier struct {
	// SharedBuffers reports whether the host supports shared memory. When
	// false, shared buffers classify as TagOther.
	SharedBuffers bool
}

// DefaultClassifier supports shared buffers.
var DefaultClassifier = Classifier{SharedBuffers: true}

// Classify returns the tag of an already normalised raw value.
func (c Classifier) Classify(raw any) Tag {
	switch x := raw.(type) {
	case nil:
		return TagAbsent
	case bool:
		return TagBool
	case float64:
		return TagNumber
	case string:
		return TagString
	case *Array:
		if x == nil {
			return TagOther
		}
		return TagList
	case *memory.View:
		if x == nil {
			return TagOther
		}
		if t, ok := viewTags[x.Kind()]; ok {
			return t
		}
		return TagOther
	case *memory.Buffer:
		if x == nil {
			return TagOther
		}
		switch x.Ownership() {
		case memory.Exclusive:
			return TagBuffer
		case memory.Shared:
			if c.SharedBuffers {
				return TagSharedBuffer
			}
		}
		return TagOther
	}
	return TagOther
}

// New normalises raw and builds a Value tagged by c.
func (c Classifier) New(raw any) Value {
	if v, ok := raw.(Value); ok {
		return v
	}
	raw = normalize(raw)
	return Value{tag: c.Classify(raw), raw: raw}
}

// Of is DefaultClassifier.New.
func Of(raw any) Value {
	return DefaultClassifier.New(raw)
}
