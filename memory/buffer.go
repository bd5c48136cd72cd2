package memory

import (
	"github.com/tetratelabs/wazero/api"
)

// Ownership classifies a buffer the way the module distinguishes array buffers.
type Ownership uint8

const (
	// Exclusive is an ordinary buffer owned by one agent.
	Exclusive Ownership = iota
	// Shared is a buffer that may be mutated concurrently by other agents.
	Shared
	// Other is any buffer-like storage from a foreign origin.
	Other
)

func (o Ownership) String() string {
	switch o {
	case Exclusive:
		return "exclusive"
	case Shared:
		return "shared"
	default:
		return "other"
	}
}

// Buffer is raw byte storage. Buffers are reference values: two views over
// the same *Buffer alias the same bytes.
type Buffer struct {
	data []byte
	mem  api.Memory
	own  Ownership
}

// NewBuffer allocates a zeroed exclusive buffer.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n), own: Exclusive}
}

// NewSharedBuffer allocates a zeroed shared buffer.
func NewSharedBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n), own: Shared}
}

// WrapBuffer adopts data without copying.
func WrapBuffer(data []byte, own Ownership) *Buffer {
	return &Buffer{data: data, own: own}
}

// LinearBuffer exposes module linear memory as a buffer. The byte slice is
// re-read on each access, so growth is observed and never leaves a stale view.
// A shared memory reports Shared ownership.
func LinearBuffer(mem api.Memory, shared bool) *Buffer {
	own := Exclusive
	if shared {
		own = Shared
	}
	return &Buffer{mem: mem, own: own}
}

// Bytes returns the current backing bytes. Callers must not retain the slice
// across anything that can grow linear memory.
func (b *Buffer) Bytes() []byte {
	if b.mem != nil {
		data, _ := b.mem.Read(0, b.mem.Size())
		return data
	}
	return b.data
}

// ByteLength returns the current size in bytes.
func (b *Buffer) ByteLength() int {
	if b.mem != nil {
		return int(b.mem.Size())
	}
	return len(b.data)
}

// Ownership returns the ownership class.
func (b *Buffer) Ownership() Ownership {
	return b.own
}

// IsLinear reports whether the buffer is backed by module linear memory.
func (b *Buffer) IsLinear() bool {
	return b.mem != nil
}

// ClassifyBuffer returns 0 for exclusive, 1 for shared and 2 for any other
// buffer-like storage, the encoding the module expects.
func ClassifyBuffer(b *Buffer) int32 {
	if b == nil {
		return int32(Other)
	}
	return int32(b.own)
}
