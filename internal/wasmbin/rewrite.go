package wasmbin

// RenameImportModules returns wasm with the module name of every import
// found in renames replaced. The input is returned unchanged when nothing
// matches or the module cannot be walked.
func RenameImportModules(wasm []byte, renames map[string]string) []byte {
	if len(renames) == 0 || !IsModule(wasm) {
		return wasm
	}

	r := &reader{b: wasm, pos: len(header)}
	for r.err == nil && r.pos < len(r.b) {
		sectionStart := r.pos
		id := r.byte()
		size := int(r.u32())
		if r.err != nil || r.pos+size > len(r.b) {
			return wasm
		}
		start, end := r.pos, r.pos+size
		if id != SectionImport {
			r.pos = end
			continue
		}

		section, changed := renameImports(wasm[start:end], renames)
		if !changed {
			return wasm
		}
		out := make([]byte, 0, len(wasm)+len(section)-size)
		out = append(out, wasm[:sectionStart]...)
		out = append(out, SectionImport)
		out = append(out, EncodeULEB128(uint32(len(section)))...)
		out = append(out, section...)
		out = append(out, wasm[end:]...)
		return out
	}
	return wasm
}

func renameImports(section []byte, renames map[string]string) ([]byte, bool) {
	r := &reader{b: section, section: SectionImport}
	n := r.count()
	out := make([]byte, 0, len(section)+64)
	out = append(out, EncodeULEB128(uint32(n))...)
	changed := false

	for i := 0; i < n && r.err == nil; i++ {
		mod := r.name()
		if to, ok := renames[mod]; ok {
			mod = to
			changed = true
		}
		out = appendName(out, mod)

		// name and descriptor are copied verbatim
		rest := r.pos
		r.name()
		switch ExternKind(r.byte()) {
		case ExternFunc:
			r.u32()
		case ExternTable:
			r.valType()
			r.limits()
		case ExternMemory:
			r.limits()
		case ExternGlobal:
			r.valType()
			r.byte()
		case ExternTag:
			r.byte()
			r.u32()
		default:
			r.fail("unknown import kind")
		}
		if r.err != nil {
			break
		}
		out = append(out, section[rest:r.pos]...)
	}
	if r.err != nil {
		return nil, false
	}
	return out, changed
}

func appendName(b []byte, s string) []byte {
	b = append(b, EncodeULEB128(uint32(len(s)))...)
	return append(b, s...)
}
