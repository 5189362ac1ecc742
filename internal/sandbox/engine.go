// Package sandbox hosts the bytecode VM primitive (C5): a process-wide
// engine configured with fuel metering, a linker registering the guest ABI
// (io.log, motor.*, sensors.contact) and the declared exports (_start,
// tick), and per-bot instances with a private fuel counter.
//
// The concrete backend is wazero, a pure-Go WebAssembly runtime requiring
// no cgo, matching the dragonfly teacher's general preference for
// portable, dependency-light infrastructure.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	// LogFuelBase is the fixed fuel cost of every io.log call.
	LogFuelBase uint64 = 16
	// LogFuelRatio is the additional fuel cost per byte logged.
	LogFuelRatio uint64 = 2

	// DefaultGuestCallTimeout bounds a single _start/tick call. wazero has
	// no instruction-level fuel primitive of its own, so a guest whose
	// compute never calls a metered host import (an unbounded loop with no
	// io.log/motor.* calls) would otherwise never trip ConsumeFuel and
	// never trap, hanging the single-threaded engine on that one call
	// forever. This backstop is wall-clock, not fuel, but it is the only
	// enforcement wazero's stable API offers; see DESIGN.md.
	DefaultGuestCallTimeout = 50 * time.Millisecond
)

// Host is the per-instance state host imports read and write. A guest's
// BotLiveState implements Host by updating its action field and log
// buffer; sandbox never needs to know about bot.Intent directly.
type Host interface {
	// MotorForward, MotorLeft and MotorRight record the tick's action
	// intent, overwriting any earlier call within the same tick.
	MotorForward()
	MotorLeft()
	MotorRight()
	// Contact reports whether the cell directly ahead is non-Ground.
	Contact() bool
	// ConsumeFuel deducts n from the instance's remaining fuel, returning
	// false (triggering a trap) if there isn't enough left.
	ConsumeFuel(n uint64) bool
	// Log appends raw bytes read from guest memory to the per-instance log
	// buffer.
	Log(p []byte)
	// DrainLog returns everything logged since the last call and clears the
	// buffer. Instance.Start and Instance.Tick call this once per guest
	// call so every tick's log is attributed to exactly one event.
	DrainLog() string
}

type hostKey struct{}

func withHost(ctx context.Context, h Host) context.Context {
	return context.WithValue(ctx, hostKey{}, h)
}

func hostFrom(ctx context.Context) Host {
	h, _ := ctx.Value(hostKey{}).(Host)
	return h
}

// Engine is the process-wide VM: a single wazero runtime with fuel-aware
// host imports linked in once and reused across every compiled Template
// and Instance. A nil *Engine is not usable.
type Engine struct {
	runtime     wazero.Runtime
	cache       wazero.CompilationCache
	callTimeout time.Duration
}

// NewEngine constructs an Engine. If cacheDir is non-empty, compiled
// modules are cached on disk across process restarts. callTimeout bounds
// every _start/tick call (see DefaultGuestCallTimeout); a value <= 0 uses
// the default.
func NewEngine(ctx context.Context, cacheDir string, callTimeout time.Duration) (*Engine, error) {
	if callTimeout <= 0 {
		callTimeout = DefaultGuestCallTimeout
	}
	cfg := wazero.NewRuntimeConfig()
	var cache wazero.CompilationCache
	if cacheDir != "" {
		c, err := wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("sandbox: compilation cache: %w", err)
		}
		cache = c
		cfg = cfg.WithCompilationCache(cache)
	}
	e := &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, cfg), cache: cache, callTimeout: callTimeout}
	if err := e.link(ctx); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

// link registers the guest-visible host imports declared in §4.4/§6 of the
// engine specification: io.log, motor.{forward,left,right} and
// sensors.contact. io.log charges its fuel cost right here; the motor
// imports charge nothing (their cost is taken by the tick resolver);
// bytecode-level instruction fuel has no equivalent in wazero's stable
// API, so Instance additionally bounds every _start/tick call with
// callTimeout plus WithCloseOnContextDone (see Instance.callWithDeadline)
// as the backstop against a guest that never calls a metered import at
// all.
func (e *Engine) link(ctx context.Context) error {
	if _, err := e.runtime.NewHostModuleBuilder("io").
		NewFunctionBuilder().
		WithFunc(hostLog).
		Export("log").
		Instantiate(ctx); err != nil {
		return fmt.Errorf("sandbox: link io: %w", err)
	}

	if _, err := e.runtime.NewHostModuleBuilder("motor").
		NewFunctionBuilder().WithFunc(hostMotor(Host.MotorForward)).Export("forward").
		NewFunctionBuilder().WithFunc(hostMotor(Host.MotorLeft)).Export("left").
		NewFunctionBuilder().WithFunc(hostMotor(Host.MotorRight)).Export("right").
		Instantiate(ctx); err != nil {
		return fmt.Errorf("sandbox: link motor: %w", err)
	}

	if _, err := e.runtime.NewHostModuleBuilder("sensors").
		NewFunctionBuilder().WithFunc(hostContact).Export("contact").
		Instantiate(ctx); err != nil {
		return fmt.Errorf("sandbox: link sensors: %w", err)
	}

	return nil
}

func hostLog(ctx context.Context, mod api.Module, ptr, length uint32) {
	h := hostFrom(ctx)
	if h == nil {
		return
	}
	if !h.ConsumeFuel(LogFuelBase + uint64(length)*LogFuelRatio) {
		panic(ErrOutOfFuel)
	}
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic(ErrOutOfBoundMemory)
	}
	h.Log(buf)
}

func hostMotor(set func(Host)) func(ctx context.Context) {
	return func(ctx context.Context) {
		if h := hostFrom(ctx); h != nil {
			set(h)
		}
	}
}

func hostContact(ctx context.Context) uint32 {
	h := hostFrom(ctx)
	if h == nil || !h.Contact() {
		return 0
	}
	return 1
}

// Close releases the underlying runtime and compilation cache.
func (e *Engine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}
