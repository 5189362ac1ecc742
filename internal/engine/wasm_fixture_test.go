package engine

// buildMotorModule assembles a minimal WASM binary exporting "memory" and
// a "tick" function that imports motor.forward/motor.left/motor.right (in
// that fixed order) and, if action is non-empty, calls the matching one
// once per tick. action must be one of "", "forward", "left", "right".
func buildMotorModule(action string) []byte {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d)
	b = append(b, 0x01, 0x00, 0x00, 0x00)

	b = appendSection(b, 1, []byte{0x01, 0x60, 0x00, 0x00})

	var imports []byte
	imports = append(imports, 3)
	imports = append(imports, importEntry("motor", "forward")...)
	imports = append(imports, importEntry("motor", "left")...)
	imports = append(imports, importEntry("motor", "right")...)
	b = appendSection(b, 2, imports)

	b = appendSection(b, 3, []byte{0x01, 0x00}) // one local func (tick), type 0
	b = appendSection(b, 5, []byte{0x01, 0x00, 0x01})

	const tickFuncIndex = 3 // after the 3 imported funcs
	var exports []byte
	exports = append(exports, 2)
	exports = append(exports, exportEntry("memory", 0x02, 0)...)
	exports = append(exports, exportEntry("tick", 0x00, tickFuncIndex)...)
	b = appendSection(b, 7, exports)

	var instrs []byte
	switch action {
	case "forward":
		instrs = []byte{0x10, 0x00} // call func 0
	case "left":
		instrs = []byte{0x10, 0x01}
	case "right":
		instrs = []byte{0x10, 0x02}
	}
	body := append([]byte{0x00}, instrs...) // 0 locals
	body = append(body, 0x0b)               // end
	codeSec := []byte{0x01, byte(len(body))}
	codeSec = append(codeSec, body...)
	b = appendSection(b, 10, codeSec)

	return b
}

func appendSection(b []byte, id byte, content []byte) []byte {
	b = append(b, id, byte(len(content)))
	return append(b, content...)
}

func importEntry(module, field string) []byte {
	e := []byte{byte(len(module))}
	e = append(e, module...)
	e = append(e, byte(len(field)))
	e = append(e, field...)
	e = append(e, 0x00, 0x00) // func import, type index 0
	return e
}

func exportEntry(name string, kind byte, index int) []byte {
	e := []byte{byte(len(name))}
	e = append(e, name...)
	e = append(e, kind, byte(index))
	return e
}
