package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Number(1))
	obj.Set("a", String("x\"y"))
	obj.Set("skip", Undefined)
	obj.Set("list", Of(NewArray(Undefined, Number(math.NaN()), True, Null)))

	got, ok := Stringify(Of(obj))
	require.True(t, ok)
	assert.Equal(t, `{"z":1,"a":"x\"y","list":[null,null,true,null]}`, got)

	_, ok = Stringify(Undefined)
	assert.False(t, ok)
}

func TestParseJSON_KeepsOrder(t *testing.T) {
	v, err := ParseJSON(`{"b": [1, "two", null, {"c": false}], "a": 2.5}`)
	require.NoError(t, err)

	obj, ok := v.Object()
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, obj.Keys())
	assert.Equal(t, Number(2.5), obj.Get("a"))

	list, ok := obj.Get("b").Array()
	require.True(t, ok)
	require.Equal(t, 4, list.Len())
	assert.Equal(t, String("two"), list.At(1))
	assert.True(t, list.At(2).IsNull())

	inner, ok := list.At(3).Object()
	require.True(t, ok)
	assert.Equal(t, False, inner.Get("c"))

	round, ok := Stringify(v)
	require.True(t, ok)
	assert.Equal(t, `{"b":[1,"two",null,{"c":false}],"a":2.5}`, round)
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON(`{"a":`)
	assert.Error(t, err)
}

func TestArrayOps(t *testing.T) {
	a := NewArray(Number(1), Number(2), Number(3))
	a.Push(Number(4))
	assert.Equal(t, Number(4), a.Pop())
	assert.Equal(t, Number(2), a.RemoveAt(1))
	assert.Equal(t, "1,3", a.Join(","))

	a.Set(4, String("x"))
	assert.Equal(t, 5, a.Len())
	assert.True(t, a.At(3).IsUndefined())
	assert.True(t, a.At(99).IsUndefined())

	assert.Equal(t, "3,,", a.Slice(1, -1).Join(","))

	a.Truncate(1)
	assert.Equal(t, 1, a.Len())
	a.Truncate(3)
	assert.Equal(t, 3, a.Len())

	assert.True(t, NewArray().Pop().IsUndefined())
}

func TestObjectOps(t *testing.T) {
	var o Object
	o.Set("k", True)
	assert.True(t, o.Has("k"))
	assert.True(t, o.Delete("k"))
	assert.False(t, o.Delete("k"))
	assert.True(t, o.Get("k").IsUndefined())
	assert.True(t, o.IsPlain())
}
