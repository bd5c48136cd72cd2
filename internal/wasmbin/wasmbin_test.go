package wasmbin

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestULEB128_RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 1 << 20, 0xffffffff} {
		enc := EncodeULEB128(v)
		got, n := DecodeULEB128(enc)
		if got != v || n != len(enc) {
			t.Errorf("%d: decoded %d using %d of %d bytes", v, got, n, len(enc))
		}
	}
	if _, n := DecodeULEB128([]byte{0x80, 0x80}); n != 0 {
		t.Errorf("truncated value read %d bytes", n)
	}
}

func TestEncodeSLEB128(t *testing.T) {
	tests := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
	}
	for _, tt := range tests {
		if got := EncodeSLEB128(tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeSLEB128(%d) = %x, want %x", tt.v, got, tt.want)
		}
	}
}

func fixture() []byte {
	b := NewBuilder()
	get := b.ImportFunc("bridge:reflect", "get", I32s(2), I32s(1))
	b.ImportFunc("bridge:callback", "$wrap1", I32s(1), I32s(1))
	b.ImportMemory("env", "shared", 1)
	b.ImportGlobal("env", "base", api.ValueTypeI32, false)
	b.Memory(1, "memory")
	f := b.Func(I32s(2), I32s(1), nil, LocalGet(0), LocalGet(1), Call(get))
	b.ExportFunc("get", f)
	b.Data(16, []byte("hi"))
	return b.Bytes()
}

func TestParse(t *testing.T) {
	info, err := Parse(fixture())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(info.Imports) != 4 {
		t.Fatalf("expected 4 imports, got %d", len(info.Imports))
	}
	get := info.Imports[0]
	if get.Module != "bridge:reflect" || get.Name != "get" || get.Kind != ExternFunc {
		t.Errorf("unexpected first import %+v", get)
	}
	if get.Type == nil || len(get.Type.Params) != 2 || len(get.Type.Results) != 1 {
		t.Errorf("unexpected signature %+v", get.Type)
	}
	if k := info.Imports[2].Kind; k != ExternMemory {
		t.Errorf("expected memory import, got %s", k)
	}
	if k := info.Imports[3].Kind; k != ExternGlobal {
		t.Errorf("expected global import, got %s", k)
	}

	names := map[string]ExternKind{}
	for _, e := range info.Exports {
		names[e.Name] = e.Kind
	}
	if names["memory"] != ExternMemory || names["get"] != ExternFunc {
		t.Errorf("unexpected exports %v", names)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"component": {0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00},
		"overrun":   append(bytes.Clone(header), SectionImport, 0x10, 0x01),
		"truncated": append(bytes.Clone(header), SectionImport, 0x03, 0x01, 0x05, 'a'),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(in); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParse_GCTypes(t *testing.T) {
	// rec group of a struct and an array, then a func type taking a typed ref
	types := []byte{
		0x02,
		0x4e, 0x02,
		0x5f, 0x02, 0x7f, 0x01, 0x78, 0x00, // struct {mut i32, i8}
		0x50, 0x00, 0x5e, 0x77, 0x01, // sub array mut i16
		0x60, 0x01, 0x64, 0x00, 0x01, 0x7f, // func (ref 0) -> i32
	}
	imports := []byte{0x01}
	imports = appendName(imports, "wasm:js-string")
	imports = appendName(imports, "length")
	imports = append(imports, 0x00, 0x02)

	wasm := bytes.Clone(header)
	wasm = appendSection(wasm, SectionType, types)
	wasm = appendSection(wasm, SectionImport, imports)

	info, err := Parse(wasm)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(info.Types) != 3 || info.Types[0] != nil || info.Types[1] != nil {
		t.Fatalf("unexpected types %v", info.Types)
	}
	sig := info.Imports[0].Type
	if sig == nil || sig.Params[0] != api.ValueTypeExternref || sig.Results[0] != api.ValueTypeI32 {
		t.Errorf("unexpected signature %+v", sig)
	}
}

func TestParse_Funcref(t *testing.T) {
	types := []byte{0x01, 0x60, 0x01, 0x70, 0x01, 0x6f} // func (funcref) -> externref
	imports := []byte{0x01}
	imports = appendName(imports, "env")
	imports = appendName(imports, "take")
	imports = append(imports, 0x00, 0x00)

	wasm := bytes.Clone(header)
	wasm = appendSection(wasm, SectionType, types)
	wasm = appendSection(wasm, SectionImport, imports)

	info, err := Parse(wasm)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sig := info.Imports[0].Type
	if sig == nil || sig.Params[0] != ValTypeFuncref || sig.Results[0] != api.ValueTypeExternref {
		t.Fatalf("unexpected signature %+v", sig)
	}
	if got := ValTypeToWasm(sig.Params[0]); got != 0x70 {
		t.Errorf("funcref encodes as 0x%02x", got)
	}
	if got := ValTypeToWasm(0x42); got != api.ValueTypeI32 {
		t.Errorf("unknown type encodes as 0x%02x", got)
	}
}

func TestParse_SharedMemory(t *testing.T) {
	plain := NewBuilder()
	plain.Memory(1, "memory")
	info, err := Parse(plain.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.SharedMemory {
		t.Error("plain memory reported shared")
	}

	shared := NewBuilder()
	shared.SharedMemory(1, 2, "memory")
	info, err = Parse(shared.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !info.SharedMemory {
		t.Error("shared memory not detected")
	}

	imported := []byte{0x01}
	imported = appendName(imported, "env")
	imported = appendName(imported, "memory")
	imported = append(imported, byte(ExternMemory), 0x03, 0x01, 0x02)
	info, err = Parse(appendSection(bytes.Clone(header), SectionImport, imported))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !info.SharedMemory || !info.Imports[0].Shared {
		t.Error("shared memory import not detected")
	}
}

func TestRenameImportModules(t *testing.T) {
	wasm := fixture()

	if got := RenameImportModules(wasm, map[string]string{"absent": "x"}); !bytes.Equal(got, wasm) {
		t.Error("expected unchanged module when nothing matches")
	}

	renamed := RenameImportModules(wasm, map[string]string{"bridge:callback": "bridge:callback@part1"})
	info, err := Parse(renamed)
	if err != nil {
		t.Fatalf("Parse renamed: %v", err)
	}
	if got := info.Imports[1].Module; got != "bridge:callback@part1" {
		t.Errorf("expected renamed module, got %q", got)
	}
	if got := info.Imports[0].Module; got != "bridge:reflect" {
		t.Errorf("unrelated import changed to %q", got)
	}
	if len(info.Exports) != 2 {
		t.Errorf("sections after the import section were lost: %v", info.Exports)
	}
}

func TestBuilder_Compiles(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	b := NewBuilder()
	b.Memory(1, "memory")
	add := b.Func(I32s(2), I32s(1), []api.ValueType{api.ValueTypeI32},
		LocalGet(0), LocalGet(1), I32Add(), LocalTee(2), I32Const(4), I32Mul())
	b.ExportFunc("add4", add)
	load := b.Func(nil, I32s(1), nil, I32Const(16), I32Load(0))
	b.ExportFunc("load", load)
	b.Data(16, []byte{42, 0, 0, 0})

	mod, err := r.Instantiate(ctx, b.Bytes())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	res, err := mod.ExportedFunction("add4").Call(ctx, 2, 3)
	if err != nil || res[0] != 20 {
		t.Errorf("add4(2, 3) = %v, %v", res, err)
	}
	res, err = mod.ExportedFunction("load").Call(ctx)
	if err != nil || res[0] != 42 {
		t.Errorf("load() = %v, %v", res, err)
	}
}
