package jsstring

import (
	"context"

	"github.com/wippyai/wasm-bridge/memory"
)

// DefaultChunkSize bounds how many code units are read per batch when
// decoding a module array.
const DefaultChunkSize = 500

// Codec converts between host strings and module arrays of code units.
type Codec struct {
	ChunkSize int
	Arrays    memory.ArrayAccess
}

// NewCodec returns a codec with the default chunk size.
func NewCodec(arrays memory.ArrayAccess) *Codec {
	return &Codec{ChunkSize: DefaultChunkSize, Arrays: arrays}
}

func (c *Codec) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// ToHostString decodes units [start, end) of array. Empty ranges return
// immediately without touching the array.
func (c *Codec) ToHostString(ctx context.Context, array uint32, start, end int) (string, error) {
	n := end - start
	if n <= 0 {
		return "", nil
	}
	size := min(n, c.chunkSize())
	chunk := make([]uint16, size)

	var w Writer
	w.Grow(n)
	for pos := start; pos < end; pos += size {
		batch := chunk[:min(size, end-pos)]
		for i := range batch {
			bits, err := c.Arrays.Get(ctx, memory.WidthI16, array, uint32(pos+i))
			if err != nil {
				return "", err
			}
			batch[i] = uint16(bits)
		}
		w.WriteUnits(batch)
	}
	return w.String(), nil
}

// FromHostString writes the code units of s into array starting at start and
// returns how many were written. The empty string writes nothing.
func (c *Codec) FromHostString(ctx context.Context, s string, array uint32, start int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n := 0
	var err error
	each(s, func(u uint16) bool {
		err = c.Arrays.Set(ctx, memory.WidthI16, array, uint32(start+n), uint64(u))
		if err != nil {
			return false
		}
		n++
		return true
	})
	return n, err
}
