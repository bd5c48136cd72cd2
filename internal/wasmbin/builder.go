package wasmbin

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/tetratelabs/wazero/api"
)

type builderImport struct {
	module, name string
	kind         ExternKind
	desc         []byte
}

type builderFunc struct {
	typeIdx uint32
	locals  []api.ValueType
	code    []byte
}

type segment struct {
	offset uint32
	data   []byte
}

// Builder assembles small core modules. Function imports must be declared
// before the first function so indices stay stable.
type Builder struct {
	types     []FuncType
	imports   []builderImport
	funcImps  uint32
	funcs     []builderFunc
	memMin    uint32
	memMax    uint32
	hasMemory bool
	memShared bool
	exports   []Export
	data      []segment
	start     *uint32
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) typeIndex(params, results []api.ValueType) uint32 {
	for i, t := range b.types {
		if slices.Equal(t.Params, params) && slices.Equal(t.Results, results) {
			return uint32(i)
		}
	}
	b.types = append(b.types, FuncType{Params: params, Results: results})
	return uint32(len(b.types) - 1)
}

// ImportFunc declares a function import and returns its function index.
func (b *Builder) ImportFunc(module, name string, params, results []api.ValueType) uint32 {
	if len(b.funcs) > 0 {
		panic("wasmbin: function imports must precede functions")
	}
	idx := b.typeIndex(params, results)
	b.imports = append(b.imports, builderImport{module: module, name: name, kind: ExternFunc, desc: EncodeULEB128(idx)})
	b.funcImps++
	return b.funcImps - 1
}

// ImportMemory declares a memory import with min pages.
func (b *Builder) ImportMemory(module, name string, minPages uint32) {
	desc := append([]byte{0x00}, EncodeULEB128(minPages)...)
	b.imports = append(b.imports, builderImport{module: module, name: name, kind: ExternMemory, desc: desc})
}

// ImportGlobal declares a global import.
func (b *Builder) ImportGlobal(module, name string, t api.ValueType, mutable bool) {
	mut := byte(0)
	if mutable {
		mut = 1
	}
	b.imports = append(b.imports, builderImport{module: module, name: name, kind: ExternGlobal, desc: []byte{ValTypeToWasm(t), mut}})
}

// Memory defines the module's memory, exported under export when it is
// not empty.
func (b *Builder) Memory(minPages uint32, export string) {
	b.hasMemory = true
	b.memMin = minPages
	if export != "" {
		b.exports = append(b.exports, Export{Name: export, Kind: ExternMemory})
	}
}

// SharedMemory defines a shared memory. Shared memories need a maximum.
func (b *Builder) SharedMemory(minPages, maxPages uint32, export string) {
	b.Memory(minPages, export)
	b.memMax = maxPages
	b.memShared = true
}

// Func defines a function and returns its index. The end opcode is added.
func (b *Builder) Func(params, results, locals []api.ValueType, code ...[]byte) uint32 {
	f := builderFunc{typeIdx: b.typeIndex(params, results), locals: locals}
	for _, c := range code {
		f.code = append(f.code, c...)
	}
	b.funcs = append(b.funcs, f)
	return b.funcImps + uint32(len(b.funcs)-1)
}

// ExportFunc exports function idx as name.
func (b *Builder) ExportFunc(name string, idx uint32) {
	b.exports = append(b.exports, Export{Name: name, Kind: ExternFunc, Index: idx})
}

// Data places bytes in memory at offset.
func (b *Builder) Data(offset uint32, data []byte) {
	b.data = append(b.data, segment{offset: offset, data: data})
}

// Start marks idx as the start function.
func (b *Builder) Start(idx uint32) {
	b.start = &idx
}

func appendSection(wasm []byte, id byte, body []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, EncodeULEB128(uint32(len(body)))...)
	return append(wasm, body...)
}

func appendTypes(b []byte, ts []api.ValueType) []byte {
	b = append(b, EncodeULEB128(uint32(len(ts)))...)
	for _, t := range ts {
		b = append(b, ValTypeToWasm(t))
	}
	return b
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	wasm := slices.Clone(header)

	if len(b.types) > 0 {
		sec := EncodeULEB128(uint32(len(b.types)))
		for _, t := range b.types {
			sec = append(sec, 0x60)
			sec = appendTypes(sec, t.Params)
			sec = appendTypes(sec, t.Results)
		}
		wasm = appendSection(wasm, SectionType, sec)
	}

	if len(b.imports) > 0 {
		sec := EncodeULEB128(uint32(len(b.imports)))
		for _, imp := range b.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, byte(imp.kind))
			sec = append(sec, imp.desc...)
		}
		wasm = appendSection(wasm, SectionImport, sec)
	}

	if len(b.funcs) > 0 {
		sec := EncodeULEB128(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			sec = append(sec, EncodeULEB128(f.typeIdx)...)
		}
		wasm = appendSection(wasm, SectionFunction, sec)
	}

	if b.hasMemory {
		flag := byte(0x00)
		if b.memShared {
			flag = 0x03
		}
		sec := []byte{0x01, flag}
		sec = append(sec, EncodeULEB128(b.memMin)...)
		if b.memShared {
			sec = append(sec, EncodeULEB128(b.memMax)...)
		}
		wasm = appendSection(wasm, SectionMemory, sec)
	}

	if len(b.exports) > 0 {
		sec := EncodeULEB128(uint32(len(b.exports)))
		for _, e := range b.exports {
			sec = appendName(sec, e.Name)
			sec = append(sec, byte(e.Kind))
			sec = append(sec, EncodeULEB128(e.Index)...)
		}
		wasm = appendSection(wasm, SectionExport, sec)
	}

	if b.start != nil {
		wasm = appendSection(wasm, SectionStart, EncodeULEB128(*b.start))
	}

	if len(b.funcs) > 0 {
		sec := EncodeULEB128(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			body := EncodeULEB128(uint32(len(f.locals)))
			for _, l := range f.locals {
				body = append(body, 0x01, ValTypeToWasm(l))
			}
			body = append(body, f.code...)
			body = append(body, 0x0b)
			sec = append(sec, EncodeULEB128(uint32(len(body)))...)
			sec = append(sec, body...)
		}
		wasm = appendSection(wasm, SectionCode, sec)
	}

	if len(b.data) > 0 {
		sec := EncodeULEB128(uint32(len(b.data)))
		for _, d := range b.data {
			sec = append(sec, 0x00, 0x41)
			sec = append(sec, EncodeSLEB128(int32(d.offset))...)
			sec = append(sec, 0x0b)
			sec = append(sec, EncodeULEB128(uint32(len(d.data)))...)
			sec = append(sec, d.data...)
		}
		wasm = appendSection(wasm, SectionData, sec)
	}

	return wasm
}

// Instructions.

func LocalGet(i uint32) []byte { return append([]byte{0x20}, EncodeULEB128(i)...) }
func LocalSet(i uint32) []byte { return append([]byte{0x21}, EncodeULEB128(i)...) }
func LocalTee(i uint32) []byte { return append([]byte{0x22}, EncodeULEB128(i)...) }
func Call(f uint32) []byte     { return append([]byte{0x10}, EncodeULEB128(f)...) }
func I32Const(v int32) []byte  { return append([]byte{0x41}, EncodeSLEB128(v)...) }
func I64Const(v int64) []byte  { return append([]byte{0x42}, EncodeSLEB128(v)...) }

func F64Const(f float64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{0x44}, math.Float64bits(f))
}

func Drop() []byte   { return []byte{0x1a} }
func I32Add() []byte { return []byte{0x6a} }
func I32Mul() []byte { return []byte{0x6c} }
func F64Add() []byte { return []byte{0xa0} }

// I32Load and I32Store use natural alignment.
func I32Load(offset uint32) []byte  { return append([]byte{0x28, 0x02}, EncodeULEB128(offset)...) }
func I32Store(offset uint32) []byte { return append([]byte{0x36, 0x02}, EncodeULEB128(offset)...) }

// Unreachable traps.
func Unreachable() []byte { return []byte{0x00} }
