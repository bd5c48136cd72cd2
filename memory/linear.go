package memory

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
)

// Linear is a bounds-checked accessor over module linear memory.
type Linear struct {
	Mem    api.Memory
	Shared bool
}

// NewLinear wraps mem; it returns nil for a module without memory.
func NewLinear(mem api.Memory, shared bool) *Linear {
	if mem == nil {
		return nil
	}
	return &Linear{Mem: mem, Shared: shared}
}

func (m *Linear) oob(offset, length uint32) error {
	return errors.RangeOutOfBounds(errors.PhaseMarshal, []string{"memory"}, uint64(offset), uint64(length), uint64(m.Mem.Size()))
}

// Size returns the current size in bytes.
func (m *Linear) Size() uint32 {
	return m.Mem.Size()
}

// Buffer exposes the memory as a Buffer that tracks growth.
func (m *Linear) Buffer() *Buffer {
	return LinearBuffer(m.Mem, m.Shared)
}

// Read returns a view of memory. The slice is only valid until memory grows.
func (m *Linear) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, m.oob(offset, length)
	}
	return data, nil
}

// ReadCopy returns a copy of the bytes at [offset, offset+length).
func (m *Linear) ReadCopy(offset, length uint32) ([]byte, error) {
	data, err := m.Read(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes bytes to memory.
func (m *Linear) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return m.oob(offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Linear) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, m.oob(offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Linear) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.oob(offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Linear) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.oob(offset, 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Linear) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.oob(offset, 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Linear) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return m.oob(offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Linear) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return m.oob(offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Linear) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return m.oob(offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Linear) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return m.oob(offset, 8)
	}
	return nil
}
