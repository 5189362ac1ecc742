package sandbox

// buildMinimalModule assembles, byte-by-byte, the smallest valid WebAssembly
// binary that satisfies this package's guest ABI contract: an exported
// linear memory named "memory" and a no-op exported "tick" function, with
// an optional "_start" export aliasing the same no-op function. It exists
// so tests can exercise Compile/New/Start/Tick without depending on an
// external wasm toolchain to produce fixtures.
func buildMinimalModule(withStart bool) []byte {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d) // magic "\0asm"
	b = append(b, 0x01, 0x00, 0x00, 0x00) // version 1

	// Type section: one func type () -> ().
	typeSec := []byte{0x01, 0x60, 0x00, 0x00}
	b = appendSection(b, 1, typeSec)

	// Function section: one function using type 0.
	funcSec := []byte{0x01, 0x00}
	b = appendSection(b, 3, funcSec)

	// Memory section: one memory, min 1 page, no max.
	memSec := []byte{0x01, 0x00, 0x01}
	b = appendSection(b, 5, memSec)

	// Export section.
	var exports []byte
	n := byte(2)
	exports = append(exports, n)
	exports = append(exports, exportEntry("memory", 0x02, 0)...)
	exports = append(exports, exportEntry("tick", 0x00, 0)...)
	if withStart {
		exports[0] = 3
		exports = append(exports, exportEntry("_start", 0x00, 0)...)
	}
	b = appendSection(b, 7, exports)

	// Code section: one empty body for function 0.
	body := []byte{0x00, 0x0b} // 0 locals, `end`
	codeSec := []byte{0x01, byte(len(body))}
	codeSec = append(codeSec, body...)
	b = appendSection(b, 10, codeSec)

	return b
}

func appendSection(b []byte, id byte, content []byte) []byte {
	b = append(b, id, byte(len(content)))
	return append(b, content...)
}

func exportEntry(name string, kind byte, index byte) []byte {
	e := []byte{byte(len(name))}
	e = append(e, name...)
	e = append(e, kind, index)
	return e
}
