package memory

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/wasm-bridge/errors"
)

// View is a typed window onto a Buffer.
// Invariant: ByteOffset + Length*Kind.ElementSize() <= Buffer.ByteLength()
// at construction time.
type View struct {
	kind   Kind
	buf    *Buffer
	offset int
	length int
}

// NewView creates a view of length elements of kind starting at byteOffset.
// Out-of-range requests fail; they are never clamped.
func NewView(kind Kind, buf *Buffer, byteOffset, length int) (*View, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			Detail("unknown element kind %d", kind).
			Value(kind).
			Build()
	}
	if buf == nil {
		return nil, errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			HostType(kind.String()).
			Detail("nil buffer").
			Build()
	}
	size := kind.ElementSize()
	if byteOffset < 0 || length < 0 {
		return nil, errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
			HostType(kind.String()).
			Detail("negative offset %d or length %d", byteOffset, length).
			Build()
	}
	if byteOffset%size != 0 {
		return nil, errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
			HostType(kind.String()).
			Detail("offset %d is not a multiple of element size %d", byteOffset, size).
			Build()
	}
	limit := buf.ByteLength()
	if uint64(byteOffset)+uint64(length)*uint64(size) > uint64(limit) {
		err := errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(byteOffset), uint64(length)*uint64(size), uint64(limit))
		err.HostType = kind.String()
		return nil, err
	}
	return &View{kind: kind, buf: buf, offset: byteOffset, length: length}, nil
}

// NewArray allocates a view of length elements over a fresh exclusive buffer.
func NewArray(kind Kind, length int) (*View, error) {
	if !kind.Valid() || length < 0 {
		return nil, errors.InvalidInput(errors.PhaseMarshal, "invalid kind or length for new array")
	}
	return NewView(kind, NewBuffer(length*kind.ElementSize()), 0, length)
}

// ViewAll views the whole buffer, truncating any trailing partial element.
func ViewAll(kind Kind, buf *Buffer) (*View, error) {
	size := kind.ElementSize()
	if size == 0 {
		return nil, errors.InvalidInput(errors.PhaseMarshal, "invalid element kind")
	}
	return NewView(kind, buf, 0, buf.ByteLength()/size)
}

func (v *View) Kind() Kind       { return v.kind }
func (v *View) Buffer() *Buffer  { return v.buf }
func (v *View) ByteOffset() int  { return v.offset }
func (v *View) Len() int         { return v.length }
func (v *View) ByteLength() int  { return v.length * v.kind.ElementSize() }
func (v *View) IsDataView() bool { return v.kind == DataView }

// Bytes returns the viewed bytes without copying.
func (v *View) Bytes() []byte {
	data := v.buf.Bytes()
	return data[v.offset : v.offset+v.ByteLength()]
}

func (v *View) checkIndex(i int) error {
	if i < 0 || i >= v.length {
		err := errors.OutOfBounds(errors.PhaseMarshal, nil, i, v.length)
		err.HostType = v.kind.String()
		return err
	}
	return nil
}

// At returns element i as a number.
func (v *View) At(i int) (float64, error) {
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}
	return v.at(i), nil
}

// SetAt stores x at element i with the kind's numeric conversion.
func (v *View) SetAt(i int, x float64) error {
	if err := v.checkIndex(i); err != nil {
		return err
	}
	v.setAt(i, x)
	return nil
}

// at and setAt skip the index check; used by the bulk loops after a single
// range check.
func (v *View) at(i int) float64 {
	kind := v.kind
	if kind == DataView {
		kind = Uint8
	}
	return decode(kind, v.buf.Bytes()[v.offset+i*kind.ElementSize():], true)
}

func (v *View) setAt(i int, x float64) {
	kind := v.kind
	if kind == DataView {
		kind = Uint8
	}
	encode(kind, v.buf.Bytes()[v.offset+i*kind.ElementSize():], x, true)
}

// Int64At reads a 64-bit integer element without float rounding.
func (v *View) Int64At(i int) (int64, error) {
	if v.kind != BigInt64 && v.kind != BigUint64 {
		return 0, errors.TypeMismatch(errors.PhaseMarshal, nil, v.kind.String(), "i64")
	}
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(v.buf.Bytes()[v.offset+i*8:])), nil
}

// SetInt64At stores a 64-bit integer element.
func (v *View) SetInt64At(i int, x int64) error {
	if v.kind != BigInt64 && v.kind != BigUint64 {
		return errors.TypeMismatch(errors.PhaseMarshal, nil, v.kind.String(), "i64")
	}
	if err := v.checkIndex(i); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(v.buf.Bytes()[v.offset+i*8:], uint64(x))
	return nil
}

// GetAs reads a value of kind at a byte offset within the view, DataView style.
func (v *View) GetAs(kind Kind, byteOffset int, littleEndian bool) (float64, error) {
	if err := v.checkRange(kind, byteOffset); err != nil {
		return 0, err
	}
	return decode(kind, v.buf.Bytes()[v.offset+byteOffset:], littleEndian), nil
}

// SetAs writes a value of kind at a byte offset within the view, DataView style.
func (v *View) SetAs(kind Kind, byteOffset int, x float64, littleEndian bool) error {
	if err := v.checkRange(kind, byteOffset); err != nil {
		return err
	}
	encode(kind, v.buf.Bytes()[v.offset+byteOffset:], x, littleEndian)
	return nil
}

func (v *View) checkRange(kind Kind, byteOffset int) error {
	size := kind.ElementSize()
	if kind == DataView || size == 0 {
		return errors.InvalidInput(errors.PhaseMarshal, "DataView access needs a concrete element kind")
	}
	if byteOffset < 0 || byteOffset+size > v.ByteLength() {
		return errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(max(byteOffset, 0)), uint64(size), uint64(v.ByteLength()))
	}
	return nil
}

// Subview returns a view of length elements starting at element start that
// aliases the same buffer.
func (v *View) Subview(start, length int) (*View, error) {
	if start < 0 || length < 0 || start+length > v.length {
		return nil, errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(max(start, 0)), uint64(max(length, 0)), uint64(v.length))
	}
	return NewView(v.kind, v.buf, v.offset+start*v.kind.ElementSize(), length)
}

// Slice copies elements [start, end) into a new view over a fresh exclusive
// buffer. Negative indices count from the end; out-of-range indices clamp,
// matching typed-array slice.
func (v *View) Slice(start, end int) *View {
	start = relativeIndex(start, v.length)
	end = relativeIndex(end, v.length)
	if end < start {
		end = start
	}
	size := v.kind.ElementSize()
	data := make([]byte, (end-start)*size)
	copy(data, v.Bytes()[start*size:end*size])
	return &View{kind: v.kind, buf: WrapBuffer(data, Exclusive), length: end - start}
}

func relativeIndex(i, n int) int {
	if i < 0 {
		return max(n+i, 0)
	}
	return min(i, n)
}

// Set copies src into v starting at element offset, converting between
// kinds. Overlapping views over one buffer are handled as if src were
// copied first.
func (v *View) Set(src *View, offset int) error {
	if offset < 0 || offset+src.length > v.length {
		return errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(max(offset, 0)), uint64(src.length), uint64(v.length))
	}
	if src.kind == v.kind || (v.kind.ElementSize() == 1 && src.kind.ElementSize() == 1 && v.kind != Uint8Clamped) {
		size := v.kind.ElementSize()
		copy(v.Bytes()[offset*size:], src.Bytes())
		return nil
	}
	vals := make([]float64, src.length)
	for i := range vals {
		vals[i] = src.at(i)
	}
	for i, x := range vals {
		v.setAt(offset+i, x)
	}
	return nil
}

// SetValues stores numbers starting at element offset.
func (v *View) SetValues(vals []float64, offset int) error {
	if offset < 0 || offset+len(vals) > v.length {
		return errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(max(offset, 0)), uint64(len(vals)), uint64(v.length))
	}
	for i, x := range vals {
		v.setAt(offset+i, x)
	}
	return nil
}

// Values returns all elements as numbers.
func (v *View) Values() []float64 {
	out := make([]float64, v.length)
	for i := range out {
		out[i] = v.at(i)
	}
	return out
}

// Copy allocates a new exclusive buffer holding byteLength bytes of buf from
// byteOffset and returns a DataView over it. It is how a module duplicates or
// truncates a buffer.
func Copy(buf *Buffer, byteOffset, byteLength int) (*View, error) {
	src, err := NewView(DataView, buf, byteOffset, byteLength)
	if err != nil {
		return nil, err
	}
	data := make([]byte, byteLength)
	copy(data, src.Bytes())
	return &View{kind: DataView, buf: WrapBuffer(data, Exclusive), length: byteLength}, nil
}

func order(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func decode(kind Kind, b []byte, littleEndian bool) float64 {
	bo := order(littleEndian)
	switch kind {
	case Int8:
		return float64(int8(b[0]))
	case Uint8, Uint8Clamped, DataView:
		return float64(b[0])
	case Int16:
		return float64(int16(bo.Uint16(b)))
	case Uint16:
		return float64(bo.Uint16(b))
	case Int32:
		return float64(int32(bo.Uint32(b)))
	case Uint32:
		return float64(bo.Uint32(b))
	case BigInt64:
		return float64(int64(bo.Uint64(b)))
	case BigUint64:
		return float64(bo.Uint64(b))
	case Float32:
		return float64(math.Float32frombits(bo.Uint32(b)))
	case Float64:
		return math.Float64frombits(bo.Uint64(b))
	}
	return math.NaN()
}

func encode(kind Kind, b []byte, x float64, littleEndian bool) {
	bo := order(littleEndian)
	switch kind {
	case Int8, Uint8, DataView:
		b[0] = byte(toUint32(x))
	case Uint8Clamped:
		b[0] = clampUint8(x)
	case Int16, Uint16:
		bo.PutUint16(b, uint16(toUint32(x)))
	case Int32, Uint32:
		bo.PutUint32(b, toUint32(x))
	case BigInt64, BigUint64:
		bo.PutUint64(b, uint64(toInt64(x)))
	case Float32:
		bo.PutUint32(b, math.Float32bits(float32(x)))
	case Float64:
		bo.PutUint64(b, math.Float64bits(x))
	}
}
