package wasmbin

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
)

// Section ids.
const (
	SectionCustom   byte = 0x00
	SectionType     byte = 0x01
	SectionImport   byte = 0x02
	SectionFunction byte = 0x03
	SectionTable    byte = 0x04
	SectionMemory   byte = 0x05
	SectionGlobal   byte = 0x06
	SectionExport   byte = 0x07
	SectionStart    byte = 0x08
	SectionElement  byte = 0x09
	SectionCode     byte = 0x0a
	SectionData     byte = 0x0b
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// ExternKind is the kind of an import or export.
type ExternKind byte

const (
	ExternFunc   ExternKind = 0x00
	ExternTable  ExternKind = 0x01
	ExternMemory ExternKind = 0x02
	ExternGlobal ExternKind = 0x03
	ExternTag    ExternKind = 0x04
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	case ExternTag:
		return "tag"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// FuncType is a function signature.
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind
	// Type is the signature of a function import. It is nil for other
	// kinds and for functions whose type index does not name a function
	// type.
	Type *FuncType
	// Shared marks a memory import declared shared.
	Shared bool
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Info is what Parse extracts from a module.
type Info struct {
	// Types holds one entry per type index; non-function types are nil.
	Types   []*FuncType
	Imports []Import
	Exports []Export
	// SharedMemory is set when the module defines or imports a shared memory.
	SharedMemory bool
}

// IsModule reports whether b starts with the core module header.
func IsModule(b []byte) bool {
	return len(b) >= len(header) && bytes.Equal(b[:len(header)], header)
}

// Parse reads the type, import and export sections of a core module.
func Parse(wasm []byte) (*Info, error) {
	if !IsModule(wasm) {
		return nil, errors.InvalidData(errors.PhaseCompile, nil, "not a core WebAssembly module")
	}

	info := &Info{}
	r := &reader{b: wasm, pos: len(header)}
	for r.err == nil && r.pos < len(r.b) {
		id := r.byte()
		size := int(r.u32())
		if r.err != nil {
			break
		}
		end := r.pos + size
		if end > len(r.b) {
			r.fail(fmt.Sprintf("section %d overruns the module", id))
			break
		}
		sec := &reader{b: r.b[:end], pos: r.pos, section: id}
		switch id {
		case SectionType:
			info.Types = sec.types()
		case SectionImport:
			info.Imports = sec.imports(info.Types)
			for _, imp := range info.Imports {
				if imp.Shared {
					info.SharedMemory = true
				}
			}
		case SectionExport:
			info.Exports = sec.exports()
		case SectionMemory:
			if sec.memories() {
				info.SharedMemory = true
			}
		}
		if sec.err != nil {
			return nil, sec.err
		}
		r.pos = end
	}
	if r.err != nil {
		return nil, r.err
	}
	return info, nil
}

type reader struct {
	b       []byte
	pos     int
	section byte
	err     error
}

func (r *reader) fail(detail string) {
	if r.err == nil {
		r.err = errors.InvalidData(errors.PhaseCompile, []string{"section", strconv.Itoa(int(r.section))},
			fmt.Sprintf("offset %d: %s", r.pos, detail))
	}
}

func (r *reader) byte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.b) {
		r.fail("unexpected end")
		return 0
	}
	b := r.b[r.pos]
	r.pos++
	return b
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, n := DecodeULEB128(r.b[r.pos:])
	if n == 0 {
		r.fail("truncated integer")
		return 0
	}
	r.pos += n
	return v
}

// skipLEB skips a signed or unsigned LEB128 value.
func (r *reader) skipLEB() {
	for r.err == nil {
		if r.byte()&0x80 == 0 {
			return
		}
	}
}

func (r *reader) name() string {
	n := int(r.u32())
	if r.err != nil {
		return ""
	}
	if r.pos+n > len(r.b) {
		r.fail("name overruns the section")
		return ""
	}
	s := string(r.b[r.pos : r.pos+n])
	r.pos += n
	return s
}

// count reads a vector length, bounded by the bytes left.
func (r *reader) count() int {
	n := int(r.u32())
	if n > len(r.b)-r.pos {
		r.fail("vector length overruns the section")
		return 0
	}
	return n
}

// valType reads a value type. Reference types collapse to funcref or
// externref since only their presence matters to the bridge.
func (r *reader) valType() api.ValueType {
	b := r.byte()
	switch {
	case b >= 0x7b && b <= 0x7f:
		return b
	case b == ValTypeFuncref:
		return ValTypeFuncref
	case b == 0x63 || b == 0x64:
		r.skipLEB()
		return api.ValueTypeExternref
	case b >= 0x69 && b <= 0x74:
		return api.ValueTypeExternref
	}
	r.fail(fmt.Sprintf("unknown value type 0x%02x", b))
	return 0
}

func (r *reader) valTypes() []api.ValueType {
	n := r.count()
	out := make([]api.ValueType, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.valType())
	}
	return out
}

func (r *reader) fieldType() {
	if r.pos < len(r.b) && (r.b[r.pos] == 0x78 || r.b[r.pos] == 0x77) {
		r.byte() // packed i8, i16
	} else {
		r.valType()
	}
	r.byte() // mutability
}

func (r *reader) compType() *FuncType {
	switch form := r.byte(); form {
	case 0x60:
		ft := &FuncType{Params: r.valTypes()}
		ft.Results = r.valTypes()
		return ft
	case 0x5f:
		n := r.count()
		for i := 0; i < n && r.err == nil; i++ {
			r.fieldType()
		}
	case 0x5e:
		r.fieldType()
	default:
		r.fail(fmt.Sprintf("unknown type form 0x%02x", form))
	}
	return nil
}

func (r *reader) subType() *FuncType {
	if r.pos < len(r.b) && (r.b[r.pos] == 0x50 || r.b[r.pos] == 0x4f) {
		r.byte()
		n := r.count()
		for i := 0; i < n && r.err == nil; i++ {
			r.u32()
		}
	}
	return r.compType()
}

func (r *reader) types() []*FuncType {
	n := r.count()
	var out []*FuncType
	for i := 0; i < n && r.err == nil; i++ {
		if r.pos < len(r.b) && r.b[r.pos] == 0x4e {
			r.byte()
			m := r.count()
			for j := 0; j < m && r.err == nil; j++ {
				out = append(out, r.subType())
			}
			continue
		}
		out = append(out, r.subType())
	}
	return out
}

// limits reads a limits pair and reports whether the shared bit is set.
func (r *reader) limits() bool {
	flag := r.byte()
	r.u32()
	if flag&0x01 != 0 {
		r.u32()
	}
	return flag&0x02 != 0
}

// memories reads the memory section and reports whether any memory is shared.
func (r *reader) memories() bool {
	n := r.count()
	shared := false
	for i := 0; i < n && r.err == nil; i++ {
		if r.limits() {
			shared = true
		}
	}
	return shared
}

func (r *reader) imports(types []*FuncType) []Import {
	n := r.count()
	out := make([]Import, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		imp := Import{Module: r.name(), Name: r.name(), Kind: ExternKind(r.byte())}
		switch imp.Kind {
		case ExternFunc:
			if idx := int(r.u32()); idx < len(types) {
				imp.Type = types[idx]
			}
		case ExternTable:
			r.valType()
			r.limits()
		case ExternMemory:
			imp.Shared = r.limits()
		case ExternGlobal:
			r.valType()
			r.byte()
		case ExternTag:
			r.byte()
			r.u32()
		default:
			r.fail("unknown import kind " + imp.Kind.String())
		}
		out = append(out, imp)
	}
	return out
}

func (r *reader) exports() []Export {
	n := r.count()
	out := make([]Export, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, Export{Name: r.name(), Kind: ExternKind(r.byte()), Index: r.u32()})
	}
	return out
}
