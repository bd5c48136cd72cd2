package value

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/memory"
)

func mustView(t *testing.T, kind memory.Kind) *memory.View {
	t.Helper()
	v, err := memory.NewArray(kind, 2)
	require.NoError(t, err)
	return v
}

type wrapped struct{ target uint32 }

func (w wrapped) Call(context.Context, ...Value) (Value, error) { return Undefined, nil }
func (w wrapped) ModuleTarget() uint32                         { return w.target }

func TestClassify(t *testing.T) {
	c := Classifier{SharedBuffers: true}

	tests := []struct {
		name string
		raw  any
		want Tag
	}{
		{"undefined", nil, TagAbsent},
		{"bool", true, TagBool},
		{"int normalised", 7, TagNumber},
		{"uint64 normalised", uint64(1 << 40), TagNumber},
		{"float32", float32(1.5), TagNumber},
		{"string", "hi", TagString},
		{"list", NewArray(), TagList},
		{"value slice", []Value{Number(1)}, TagList},
		{"Int8", mustView(t, memory.Int8), TagInt8},
		{"Uint8", mustView(t, memory.Uint8), TagUint8},
		{"Uint8Clamped", mustView(t, memory.Uint8Clamped), TagUint8Clamped},
		{"Int16", mustView(t, memory.Int16), TagInt16},
		{"Uint16", mustView(t, memory.Uint16), TagUint16},
		{"Int32", mustView(t, memory.Int32), TagInt32},
		{"Uint32", mustView(t, memory.Uint32), TagUint32},
		{"Float32", mustView(t, memory.Float32), TagFloat32},
		{"Float64", mustView(t, memory.Float64), TagFloat64},
		{"DataView", mustView(t, memory.DataView), TagDataView},
		{"BigInt64 view", mustView(t, memory.BigInt64), TagOther},
		{"buffer", memory.NewBuffer(4), TagBuffer},
		{"shared buffer", memory.NewSharedBuffer(4), TagSharedBuffer},
		{"foreign buffer", memory.WrapBuffer(nil, memory.Other), TagOther},
		{"object", NewObject(), TagOther},
		{"null", NullType{}, TagOther},
		{"func", Func(func(context.Context, ...Value) (Value, error) { return Undefined, nil }), TagOther},
		{"wrapped", wrapped{target: 3}, TagOther},
		{"struct", struct{ A int }{1}, TagOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.New(tt.raw)
			assert.Equal(t, tt.want, v.Tag())
			// stable across repeated classification
			assert.Equal(t, v.Tag(), c.Classify(v.Raw()))
		})
	}
}

func TestClassify_SharedBuffersUnsupported(t *testing.T) {
	c := Classifier{SharedBuffers: false}
	assert.Equal(t, TagOther, c.New(memory.NewSharedBuffer(8)).Tag())
	assert.Equal(t, TagBuffer, c.New(memory.NewBuffer(8)).Tag())
}

func TestValue_ZeroIsUndefined(t *testing.T) {
	var v Value
	assert.True(t, v.IsUndefined())
	assert.Equal(t, TagAbsent, v.Tag())
	assert.True(t, v.IsNullish())
	assert.True(t, Null.IsNullish())
	assert.False(t, Null.IsUndefined())
}

func TestIsModuleWrapped(t *testing.T) {
	target, ok := IsModuleWrapped(Of(wrapped{target: 9}))
	assert.True(t, ok)
	assert.Equal(t, uint32(9), target)

	_, ok = IsModuleWrapped(Of(Func(nil)))
	assert.False(t, ok)
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "Float64Array", TagFloat64.String())
	assert.Equal(t, "unknown", Tag(99).String())
}
