// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package programtest provides small hand-assembled programs for tests.
package programtest

import (
	"encoding/hex"
)

var (
	// Arithmetic exposes the labels double, pow and default. Its entrypoint
	// calls the bound callback, and each label reads the "input" parameter
	// and writes one output cell: input*2, input*input and input.
	Arithmetic = assemble("memory", "main", "double", "pow", "default")

	// NoDefault is Arithmetic without the pow and default labels.
	NoDefault = assemble("memory", "main", "double")

	// NoEntrypoint is Arithmetic without main.
	NoEntrypoint = assemble("memory", "double", "pow", "default")
)

// Hex returns [code] as hex text, the form programs travel in on the wire.
func Hex(code []byte) string {
	return hex.EncodeToString(code)
}

const (
	exportFunc   = 0x00
	exportMemory = 0x02
)

var exportIndex = map[string][2]byte{
	"memory":  {exportMemory, 0},
	"main":    {exportFunc, 3},
	"double":  {exportFunc, 4},
	"pow":     {exportFunc, 5},
	"default": {exportFunc, 6},
}

func assemble(exported ...string) []byte {
	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}

	// type section
	out = append(out, section(0x01,
		0x03,                               // 3 types
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e, // 0: (i32, i32) -> i64
		0x60, 0x01, 0x7e, 0x00, // 1: (i64) -> ()
		0x60, 0x00, 0x00, // 2: () -> ()
	)...)

	// import section
	imports := []byte{0x03} // 3 imports
	imports = append(imports, importFunc("input", 0)...)
	imports = append(imports, importFunc("output", 1)...)
	imports = append(imports, importFunc("callback", 2)...)
	out = append(out, section(0x02, imports...)...)

	// function section: main, double, pow, default
	out = append(out, section(0x03, 0x04, 0x02, 0x02, 0x02, 0x02)...)

	// memory section: one memory of one page
	out = append(out, section(0x05, 0x01, 0x00, 0x01)...)

	// export section
	exports := []byte{byte(len(exported))}
	for _, name := range exported {
		idx := exportIndex[name]
		exports = append(exports, str(name)...)
		exports = append(exports, idx[0], idx[1])
	}
	out = append(out, section(0x07, exports...)...)

	loadInput := []byte{
		0x41, 0x00, // i32.const 0 (key offset)
		0x41, 0x05, // i32.const 5 (key length)
		0x10, 0x00, // call input
	}

	// code section
	code := []byte{0x04} // 4 bodies
	code = append(code, body(
		0x10, 0x02, // call callback
	)...)
	code = append(code, body(concat(
		loadInput,
		[]byte{
			0x42, 0x02, // i64.const 2
			0x7e,       // i64.mul
			0x10, 0x01, // call output
		},
	)...)...)
	code = append(code, body(concat(
		loadInput,
		loadInput,
		[]byte{
			0x7e,       // i64.mul
			0x10, 0x01, // call output
		},
	)...)...)
	code = append(code, body(concat(
		loadInput,
		[]byte{
			0x10, 0x01, // call output
		},
	)...)...)
	out = append(out, section(0x0a, code...)...)

	// data section: "input" at offset 0
	data := []byte{
		0x01,             // 1 segment
		0x00,             // active, memory 0
		0x41, 0x00, 0x0b, // i32.const 0; end
	}
	data = append(data, str("input")...)
	out = append(out, section(0x0b, data...)...)
	return out
}

func section(id byte, content ...byte) []byte {
	return concat([]byte{id}, uleb(uint32(len(content))), content)
}

// body wraps [instrs] as a function body without locals.
func body(instrs ...byte) []byte {
	fn := concat([]byte{0x00}, instrs, []byte{0x0b})
	return concat(uleb(uint32(len(fn))), fn)
}

func importFunc(name string, typeIdx byte) []byte {
	return concat(str("env"), str(name), []byte{0x00, typeIdx})
}

func str(s string) []byte {
	return concat(uleb(uint32(len(s))), []byte(s))
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
