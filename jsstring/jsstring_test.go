package jsstring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/memory"
)

// unitArrays is a fake module heap of code-unit arrays.
type unitArrays struct {
	arrays map[uint32][]uint16
	gets   int
	sets   int
}

func newUnitArrays() *unitArrays {
	return &unitArrays{arrays: make(map[uint32][]uint16)}
}

func (a *unitArrays) Get(_ context.Context, w memory.Width, array, index uint32) (uint64, error) {
	if w != memory.WidthI16 {
		return 0, errors.New("unexpected width")
	}
	a.gets++
	arr := a.arrays[array]
	if int(index) >= len(arr) {
		return 0, errors.New("index out of range")
	}
	return uint64(arr[index]), nil
}

func (a *unitArrays) Set(_ context.Context, w memory.Width, array, index uint32, bits uint64) error {
	if w != memory.WidthI16 {
		return errors.New("unexpected width")
	}
	a.sets++
	arr := a.arrays[array]
	if int(index) >= len(arr) {
		return errors.New("index out of range")
	}
	arr[index] = uint16(bits)
	return nil
}

func TestUnits_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
	}{
		{"ascii", []uint16{'h', 'i'}},
		{"bmp", []uint16{0x00e9, 0x4e2d}},
		{"pair", []uint16{0xd83d, 0xde00}},
		{"lone high", []uint16{'a', 0xd800, 'b'}},
		{"lone low", []uint16{0xdc00}},
		{"reversed pair", []uint16{0xde00, 0xd83d}},
		{"high at end", []uint16{'x', 0xdbff}},
		{"empty", []uint16{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromUnits(tt.units)
			assert.Equal(t, tt.units, Units(s))
			assert.Equal(t, len(tt.units), Length(s))
		})
	}
}

func TestUnits_UTF8(t *testing.T) {
	s := "a😀é"
	assert.Equal(t, []uint16{'a', 0xd83d, 0xde00, 0xe9}, Units(s))
	assert.Equal(t, 4, Length(s))
	assert.Equal(t, s, FromUnits(Units(s)))
}

func TestCharCodeAt(t *testing.T) {
	s := "a😀"
	assert.Equal(t, uint16('a'), CharCodeAt(s, 0))
	assert.Equal(t, uint16(0xd83d), CharCodeAt(s, 1))
	assert.Equal(t, uint16(0xde00), CharCodeAt(s, 2))
	assert.Equal(t, uint16(0), CharCodeAt(s, 3))
	assert.Equal(t, uint16(0), CharCodeAt(s, -1))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("a", "b"))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, 0, Compare("same", "same"))
	assert.Equal(t, -1, Compare("ab", "abc"))
	// code unit order: U+FF5E (0xff5e) sorts after the surrogate 0xd83d
	assert.Equal(t, 1, Compare("～", "😀"))
	// byte order would say the opposite
	assert.Equal(t, -1, strings.Compare("～", "😀"))
}

func TestConcat_JoinsSurrogates(t *testing.T) {
	hi := FromCharCode(0xd83d)
	lo := FromCharCode(0xde00)
	joined := Concat(hi, lo)
	assert.Equal(t, "😀", joined)
	assert.True(t, Equals(joined, "😀"))
	assert.Equal(t, "ab", Concat("a", "b"))
	assert.Equal(t, 3, Length(Concat("x"+hi, lo)))
}

func TestSubstring(t *testing.T) {
	assert.Equal(t, "ell", Substring("hello", 1, 4))
	assert.Equal(t, "ell", Substring("hello", 4, 1))
	assert.Equal(t, "hello", Substring("hello", -5, 99))
	assert.Equal(t, "", Substring("hello", 2, 2))

	// splitting a pair leaves a lone surrogate
	half := Substring("😀", 0, 1)
	assert.Equal(t, []uint16{0xd83d}, Units(half))
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 2, IndexOf("abcabc", "c", 0))
	assert.Equal(t, 5, IndexOf("abcabc", "c", 3))
	assert.Equal(t, -1, IndexOf("abc", "z", 0))
	assert.Equal(t, 1, IndexOf("😀x", FromCharCode(0xde00), 0))
	assert.Equal(t, 5, LastIndexOf("abcabc", "c", 99))
	assert.Equal(t, 2, LastIndexOf("abcabc", "c", 4))
	assert.Equal(t, -1, LastIndexOf("ab", "abc", 5))
}

func TestCodec_ChunkedRoundTrip(t *testing.T) {
	ctx := context.Background()
	arrays := newUnitArrays()

	units := make([]uint16, 1500)
	for i := range units {
		units[i] = uint16('a' + i%26)
	}
	// a surrogate pair straddling the first chunk boundary
	units[499], units[500] = 0xd83d, 0xde00
	arrays.arrays[1] = units

	codec := &Codec{ChunkSize: 500, Arrays: arrays}
	s, err := codec.ToHostString(ctx, 1, 0, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500, Length(s))
	assert.Equal(t, 1500, arrays.gets)

	arrays.arrays[2] = make([]uint16, 1500)
	n, err := codec.FromHostString(ctx, s, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 1500, n)
	assert.Equal(t, units, arrays.arrays[2])
}

func TestCodec_Range(t *testing.T) {
	ctx := context.Background()
	arrays := newUnitArrays()
	arrays.arrays[7] = Units("xxhelloxx")

	codec := NewCodec(arrays)
	s, err := codec.ToHostString(ctx, 7, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	arrays.arrays[8] = make([]uint16, 4)
	n, err := codec.FromHostString(ctx, "hi", 8, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint16{0, 'h', 'i', 0}, arrays.arrays[8])
}

func TestCodec_EmptyTouchesNothing(t *testing.T) {
	ctx := context.Background()
	arrays := newUnitArrays()
	codec := NewCodec(arrays)

	s, err := codec.ToHostString(ctx, 99, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	n, err := codec.FromHostString(ctx, "", 99, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, arrays.gets)
	assert.Zero(t, arrays.sets)

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = codec.ToHostString(ctx, 99, 0, 0)
	})
	assert.Zero(t, allocs)
}

func TestCodec_PropagatesErrors(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec(newUnitArrays())

	_, err := codec.ToHostString(ctx, 1, 0, 3)
	assert.Error(t, err)
	_, err = codec.FromHostString(ctx, "abc", 1, 0)
	assert.Error(t, err)
}
