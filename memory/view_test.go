package memory

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/errors"
)

func TestNewView_Bounds(t *testing.T) {
	buf := NewBuffer(64)

	for _, kind := range Kinds() {
		size := kind.ElementSize()
		t.Run(kind.String(), func(t *testing.T) {
			// exactly fills the buffer
			v, err := NewView(kind, buf, 0, 64/size)
			require.NoError(t, err)
			assert.Equal(t, 64, v.ByteLength())

			// one element past the end
			_, err = NewView(kind, buf, size, 64/size)
			require.Error(t, err)
			assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOutOfBounds})

			// offset at the end with zero length is fine
			v, err = NewView(kind, buf, 64, 0)
			require.NoError(t, err)
			assert.Equal(t, 0, v.Len())

			_, err = NewView(kind, buf, -size, 1)
			assert.Error(t, err)
		})
	}
}

func TestNewView_Misaligned(t *testing.T) {
	_, err := NewView(Int32, NewBuffer(16), 2, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindInvalidInput})
}

func TestNewView_ZeroCopy(t *testing.T) {
	data := make([]byte, 16)
	buf := WrapBuffer(data, Exclusive)

	v, err := NewView(Int32, buf, 4, 2)
	require.NoError(t, err)
	require.NoError(t, v.SetAt(1, -2))

	assert.Equal(t, uint32(0xfffffffe), binary.LittleEndian.Uint32(data[8:]))

	// a second view over the same bytes sees the write
	u8, err := NewView(Uint8, buf, 8, 4)
	require.NoError(t, err)
	got, err := u8.At(0)
	require.NoError(t, err)
	assert.Equal(t, 254.0, got)
}

func TestView_ElementConversion(t *testing.T) {
	tests := []struct {
		kind Kind
		in   float64
		want float64
	}{
		{Int8, 200, -56},
		{Int8, -129, 127},
		{Uint8, -1, 255},
		{Uint8, 256.7, 0},
		{Uint8Clamped, 300, 255},
		{Uint8Clamped, -5, 0},
		{Uint8Clamped, 2.5, 2},
		{Uint8Clamped, 3.5, 4},
		{Uint8Clamped, math.NaN(), 0},
		{Int16, 40000, -25536},
		{Uint16, -1, 65535},
		{Int32, 4294967295, -1},
		{Uint32, -1, 4294967295},
		{Int32, math.Inf(1), 0},
		{BigInt64, -3, -3},
		{Float32, 0.1, float64(float32(0.1))},
		{Float64, 0.1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v, err := NewArray(tt.kind, 1)
			require.NoError(t, err)
			require.NoError(t, v.SetAt(0, tt.in))
			got, err := v.At(0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestView_IndexOutOfRange(t *testing.T) {
	v, err := NewArray(Float64, 2)
	require.NoError(t, err)

	_, err = v.At(2)
	assert.Error(t, err)
	assert.Error(t, v.SetAt(-1, 0))
}

func TestView_DataViewAccess(t *testing.T) {
	v, err := Copy(NewBuffer(16), 0, 16)
	require.NoError(t, err)
	require.True(t, v.IsDataView())

	require.NoError(t, v.SetAs(Uint32, 0, 0x01020304, false))
	assert.Equal(t, []byte{1, 2, 3, 4}, v.Bytes()[:4])

	got, err := v.GetAs(Uint32, 0, true)
	require.NoError(t, err)
	assert.Equal(t, float64(0x04030201), got)

	require.NoError(t, v.SetAs(Float64, 8, math.Pi, true))
	got, err = v.GetAs(Float64, 8, true)
	require.NoError(t, err)
	assert.Equal(t, math.Pi, got)

	_, err = v.GetAs(Float64, 9, true)
	assert.Error(t, err)
	_, err = v.GetAs(DataView, 0, true)
	assert.Error(t, err)
}

func TestView_SliceAndSubview(t *testing.T) {
	v, err := NewArray(Int16, 6)
	require.NoError(t, err)
	require.NoError(t, v.SetValues([]float64{0, 1, 2, 3, 4, 5}, 0))

	s := v.Slice(1, -1)
	assert.Equal(t, []float64{1, 2, 3, 4}, s.Values())
	assert.NotSame(t, v.Buffer(), s.Buffer())

	require.NoError(t, s.SetAt(0, 99))
	first, _ := v.At(1)
	assert.Equal(t, 1.0, first, "slice must copy")

	sub, err := v.Subview(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, sub.Values())
	require.NoError(t, sub.SetAt(0, 42))
	aliased, _ := v.At(2)
	assert.Equal(t, 42.0, aliased, "subview must alias")

	_, err = v.Subview(4, 3)
	assert.Error(t, err)

	assert.Equal(t, 0, v.Slice(5, 2).Len())
}

func TestView_Set(t *testing.T) {
	t.Run("same kind", func(t *testing.T) {
		dst, _ := NewArray(Uint8, 4)
		src, _ := NewArray(Uint8, 2)
		require.NoError(t, src.SetValues([]float64{7, 8}, 0))
		require.NoError(t, dst.Set(src, 2))
		assert.Equal(t, []float64{0, 0, 7, 8}, dst.Values())
	})

	t.Run("converting", func(t *testing.T) {
		dst, _ := NewArray(Int8, 3)
		src, _ := NewArray(Float64, 3)
		require.NoError(t, src.SetValues([]float64{1.9, -1.9, 300}, 0))
		require.NoError(t, dst.Set(src, 0))
		assert.Equal(t, []float64{1, -1, 44}, dst.Values())
	})

	t.Run("overlapping", func(t *testing.T) {
		all, _ := NewArray(Uint8, 6)
		require.NoError(t, all.SetValues([]float64{1, 2, 3, 4, 5, 6}, 0))
		head, _ := all.Subview(0, 4)
		require.NoError(t, all.Set(head, 2))
		assert.Equal(t, []float64{1, 2, 1, 2, 3, 4}, all.Values())
	})

	t.Run("too long", func(t *testing.T) {
		dst, _ := NewArray(Uint8, 2)
		src, _ := NewArray(Uint8, 3)
		assert.Error(t, dst.Set(src, 0))
	})
}

func TestCopy(t *testing.T) {
	buf := WrapBuffer([]byte{1, 2, 3, 4, 5}, Shared)

	v, err := Copy(buf, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, v.Bytes())
	assert.Equal(t, Exclusive, v.Buffer().Ownership())

	v.Bytes()[0] = 9
	assert.Equal(t, byte(2), buf.Bytes()[1])

	_, err = Copy(buf, 3, 3)
	assert.Error(t, err)
}

func TestClassifyBuffer(t *testing.T) {
	assert.Equal(t, int32(0), ClassifyBuffer(NewBuffer(1)))
	assert.Equal(t, int32(1), ClassifyBuffer(NewSharedBuffer(1)))
	assert.Equal(t, int32(2), ClassifyBuffer(WrapBuffer(nil, Other)))
	assert.Equal(t, int32(2), ClassifyBuffer(nil))
}

func TestView_Int64(t *testing.T) {
	v, _ := NewArray(BigInt64, 1)
	require.NoError(t, v.SetInt64At(0, math.MinInt64))
	got, err := v.Int64At(0)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)

	f, _ := NewArray(Float32, 1)
	_, err = f.Int64At(0)
	assert.Error(t, err)
}

func TestLinearBuffer_Ownership(t *testing.T) {
	assert.Equal(t, Exclusive, LinearBuffer(nil, false).Ownership())
	assert.Equal(t, Shared, LinearBuffer(nil, true).Ownership())
	assert.Equal(t, Shared, (&Linear{Shared: true}).Buffer().Ownership())
	assert.Nil(t, NewLinear(nil, true))
}
