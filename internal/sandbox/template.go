package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
)

// Template is a validated, pre-compiled guest module, reusable across many
// Instances. It is created once per Program and cached for the lifetime of
// the Program.
type Template struct {
	engine   *Engine
	compiled wazero.CompiledModule
	hasStart bool
}

// Compile validates and compiles code into a reusable Template. It fails
// with a *Error{Kind: KindCompile} if the module does not compile, does not
// export a linear memory, or does not export a required tick function.
func (e *Engine) Compile(ctx context.Context, code []byte) (*Template, error) {
	compiled, err := e.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, newError(KindCompile, "failed to compile", err)
	}

	hasMemory := false
	hasTick := false
	hasStart := false
	for name, fn := range compiled.ExportedFunctions() {
		switch name {
		case "tick":
			if len(fn.ParamTypes()) == 0 && len(fn.ResultTypes()) == 0 {
				hasTick = true
			}
		case "_start":
			if len(fn.ParamTypes()) == 0 && len(fn.ResultTypes()) == 0 {
				hasStart = true
			}
		}
	}
	for name := range compiled.ExportedMemories() {
		if name == "memory" {
			hasMemory = true
		}
	}
	if !hasTick {
		compiled.Close(ctx)
		return nil, newError(KindCompile, "failed to compile", fmt.Errorf("missing required export tick : () -> ()"))
	}
	if !hasMemory {
		compiled.Close(ctx)
		return nil, newError(KindCompile, "failed to compile", fmt.Errorf("missing exported linear memory \"memory\""))
	}

	return &Template{engine: e, compiled: compiled, hasStart: hasStart}, nil
}

// Close releases the compiled module.
func (t *Template) Close(ctx context.Context) error {
	return t.compiled.Close(ctx)
}
