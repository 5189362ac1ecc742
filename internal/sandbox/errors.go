package sandbox

import "errors"

// Sentinel errors surfaced by host imports as traps. wazero recovers a
// panic raised inside a host function and reports it through the error
// returned by the failing Function.Call, which Instance.Start/Tick then
// translate into the typed Error below.
var (
	ErrOutOfFuel        = errors.New("out of fuel")
	ErrOutOfBoundMemory = errors.New("out of bound memory")
)

// Kind disambiguates the error dispositions listed in spec.md §7.
type Kind uint8

const (
	// KindCompile covers module compilation and link/validation failures.
	KindCompile Kind = iota
	// KindStart covers a trap raised while running _start.
	KindStart
	// KindTick covers a trap raised while running tick.
	KindTick
)

// Error is the typed sandbox failure surfaced to callers: a short,
// human-readable context plus the underlying trap/compile message, mirroring
// the original implementation's Error{ctx, err} (see dto.rs) translated to
// an idiomatic Go error.
type Error struct {
	Kind    Kind
	Context string
	Message string
}

func (e *Error) Error() string {
	return e.Context + ": " + e.Message
}

func newError(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Message: err.Error()}
}
