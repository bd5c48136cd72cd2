// Package wasmbin reads and writes the parts of the WebAssembly binary
// format the bridge needs: the import section of a module, import module
// renaming, and a small module builder used to produce test fixtures.
//
// # Parsing
//
//	info, err := wasmbin.Parse(wasmBytes)
//	for _, imp := range info.Imports {
//	    fmt.Println(imp.Module, imp.Name, imp.Kind)
//	}
//
// # Rewriting
//
//	renamed := wasmbin.RenameImportModules(wasmBytes, map[string]string{
//	    "bridge:callback": "bridge:callback@part1",
//	})
//
// # Building
//
//	b := wasmbin.NewBuilder()
//	get := b.ImportFunc("bridge:reflect", "get", wasmbin.I32s(2), wasmbin.I32s(1))
//	f := b.Func(wasmbin.I32s(2), wasmbin.I32s(1), nil,
//	    wasmbin.LocalGet(0), wasmbin.LocalGet(1), wasmbin.Call(get))
//	b.ExportFunc("get", f)
//	mod := b.Bytes()
package wasmbin
