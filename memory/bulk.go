package memory

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
)

// Width is the element width of a module-managed array.
type Width uint8

const (
	WidthI8  Width = iota // sign-extended 8-bit
	WidthI16              // 16-bit code unit, zero-extended
	WidthI32
	WidthF32
	WidthF64
)

var widthNames = [...]string{"I8", "I16", "I32", "F32", "F64"}

func (w Width) String() string {
	if int(w) < len(widthNames) {
		return widthNames[w]
	}
	return "Unknown"
}

// Size returns the element width in bytes.
func (w Width) Size() uint32 {
	switch w {
	case WidthI8:
		return 1
	case WidthI16:
		return 2
	case WidthI32, WidthF32:
		return 4
	}
	return 8
}

// GetExport returns the accessor export name, e.g. "$wasmI8ArrayGet".
func (w Width) GetExport() string { return "$wasm" + w.String() + "ArrayGet" }

// SetExport returns the mutator export name, e.g. "$wasmI8ArraySet".
func (w Width) SetExport() string { return "$wasm" + w.String() + "ArraySet" }

// ArrayAccess reads and writes elements of module-managed arrays. Values are
// raw wasm stack encodings: i32 for the integer widths, float bits for F32
// and F64.
type ArrayAccess interface {
	Get(ctx context.Context, w Width, array, index uint32) (uint64, error)
	Set(ctx context.Context, w Width, array, index uint32, bits uint64) error
}

// ExportArrays reaches module arrays through the module's accessor exports.
type ExportArrays struct {
	get [5]api.Function
	set [5]api.Function
}

// NewExportArrays resolves accessor exports of mod. Missing exports are
// reported by Supports.
func NewExportArrays(mod api.Module) *ExportArrays {
	a := &ExportArrays{}
	for w := WidthI8; w <= WidthF64; w++ {
		a.get[w] = mod.ExportedFunction(w.GetExport())
		a.set[w] = mod.ExportedFunction(w.SetExport())
	}
	return a
}

// Supports reports whether both accessors for w are exported.
func (a *ExportArrays) Supports(w Width) bool {
	return w <= WidthF64 && a.get[w] != nil && a.set[w] != nil
}

func (a *ExportArrays) Get(ctx context.Context, w Width, array, index uint32) (uint64, error) {
	if !a.Supports(w) {
		return 0, errors.NotFound(errors.PhaseMarshal, "export", w.GetExport())
	}
	res, err := a.get[w].Call(ctx, api.EncodeU32(array), api.EncodeU32(index))
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%s returned no result", w.GetExport())
	}
	return res[0], nil
}

func (a *ExportArrays) Set(ctx context.Context, w Width, array, index uint32, bits uint64) error {
	if !a.Supports(w) {
		return errors.NotFound(errors.PhaseMarshal, "export", w.SetExport())
	}
	_, err := a.set[w].Call(ctx, api.EncodeU32(array), api.EncodeU32(index), bits)
	return err
}

// MemoryArrays treats an array token as the address of packed little-endian
// elements in linear memory.
type MemoryArrays struct {
	Mem *Linear
}

func (a MemoryArrays) Get(_ context.Context, w Width, array, index uint32) (uint64, error) {
	addr := array + index*w.Size()
	switch w {
	case WidthI8:
		b, err := a.Mem.ReadU8(addr)
		return api.EncodeI32(int32(int8(b))), err
	case WidthI16:
		u, err := a.Mem.ReadU16(addr)
		return api.EncodeU32(uint32(u)), err
	case WidthI32, WidthF32:
		u, err := a.Mem.ReadU32(addr)
		return api.EncodeU32(u), err
	default:
		return a.Mem.ReadU64(addr)
	}
}

func (a MemoryArrays) Set(_ context.Context, w Width, array, index uint32, bits uint64) error {
	addr := array + index*w.Size()
	switch w {
	case WidthI8:
		return a.Mem.WriteU8(addr, uint8(bits))
	case WidthI16:
		return a.Mem.WriteU16(addr, uint16(bits))
	case WidthI32, WidthF32:
		return a.Mem.WriteU32(addr, uint32(bits))
	default:
		return a.Mem.WriteU64(addr, bits)
	}
}

// ModuleArrays prefers accessor exports and falls back to linear memory for
// widths the module does not export.
type ModuleArrays struct {
	Exports  *ExportArrays
	Fallback ArrayAccess
}

func (a ModuleArrays) pick(w Width) (ArrayAccess, error) {
	if a.Exports != nil && a.Exports.Supports(w) {
		return a.Exports, nil
	}
	if a.Fallback != nil {
		return a.Fallback, nil
	}
	return nil, errors.Unsupported(errors.PhaseMarshal, "module exports no "+w.String()+" array accessors and has no linear memory")
}

func (a ModuleArrays) Get(ctx context.Context, w Width, array, index uint32) (uint64, error) {
	acc, err := a.pick(w)
	if err != nil {
		return 0, err
	}
	return acc.Get(ctx, w, array, index)
}

func (a ModuleArrays) Set(ctx context.Context, w Width, array, index uint32, bits uint64) error {
	acc, err := a.pick(w)
	if err != nil {
		return err
	}
	return acc.Set(ctx, w, array, index, bits)
}

// CopyFromModule copies length elements from module array[srcStart:] into
// dst[dstStart:]. The host range is checked once; the loop itself does no
// per-element validation.
func CopyFromModule(ctx context.Context, acc ArrayAccess, w Width, dst *View, dstStart int, array, srcStart uint32, length int) error {
	if err := checkSpan(dst, dstStart, length); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		bits, err := acc.Get(ctx, w, array, srcStart+uint32(i))
		if err != nil {
			return err
		}
		dst.setAt(dstStart+i, fromBits(w, bits))
	}
	return nil
}

// CopyToModule copies length elements from src[srcStart:] into module
// array[dstStart:].
func CopyToModule(ctx context.Context, acc ArrayAccess, w Width, src *View, srcStart int, array, dstStart uint32, length int) error {
	if err := checkSpan(src, srcStart, length); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		if err := acc.Set(ctx, w, array, dstStart+uint32(i), toBits(w, src.at(srcStart+i))); err != nil {
			return err
		}
	}
	return nil
}

func checkSpan(v *View, start, length int) error {
	if start < 0 || length < 0 || start+length > v.length {
		return errors.RangeOutOfBounds(errors.PhaseMarshal, nil, uint64(max(start, 0)), uint64(max(length, 0)), uint64(v.length))
	}
	return nil
}

func fromBits(w Width, bits uint64) float64 {
	switch w {
	case WidthI16:
		return float64(uint16(bits))
	case WidthF32:
		return float64(math.Float32frombits(uint32(bits)))
	case WidthF64:
		return math.Float64frombits(bits)
	default:
		return float64(api.DecodeI32(bits))
	}
}

func toBits(w Width, x float64) uint64 {
	switch w {
	case WidthF32:
		return api.EncodeF32(float32(x))
	case WidthF64:
		return api.EncodeF64(x)
	default:
		return api.EncodeU32(toUint32(x))
	}
}
