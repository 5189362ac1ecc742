package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Instance is a live store bound to a Template: an instantiated module with
// a private fuel counter and a BotLiveState (the Host) in its store
// user-data slot.
type Instance struct {
	tpl  *Template
	mod  api.Module
	tick api.Function
	host Host
	fuel uint64
}

// New instantiates tpl with the given starting fuel and host state. It does
// not run _start; call Start for that.
func (t *Template) New(ctx context.Context, host Host, fuel uint64) (*Instance, error) {
	cfg := wazero.NewModuleConfig().
		WithStartFunctions(). // disable wazero's automatic _start invocation; Start controls timing explicitly.
		WithCloseOnContextDone(true) // let callWithDeadline's timeout abort a hung _start/tick call.

	mod, err := t.engine.runtime.InstantiateModule(ctx, t.compiled, cfg)
	if err != nil {
		return nil, newError(KindStart, "during start", err)
	}
	tick := mod.ExportedFunction("tick")
	if tick == nil {
		mod.Close(ctx)
		return nil, newError(KindStart, "during start", fmt.Errorf("missing tick export"))
	}
	return &Instance{tpl: t, mod: mod, tick: tick, host: host, fuel: fuel}, nil
}

// Start runs the guest's optional _start export, if the template declares
// one. It returns any log captured before a trap, and an *Error{KindStart}
// on failure.
func (in *Instance) Start(ctx context.Context) (log string, err error) {
	if !in.tpl.hasStart {
		return "", nil
	}
	start := in.mod.ExportedFunction("_start")
	if start == nil {
		return "", nil
	}
	callErr := in.callWithDeadline(ctx, start)
	log = in.host.DrainLog()
	if callErr != nil {
		return log, newError(KindStart, "during start", callErr)
	}
	return log, nil
}

// Tick calls the guest's tick export once. It returns any log captured
// during the call, and an *Error{KindTick} on trap.
func (in *Instance) Tick(ctx context.Context) (log string, err error) {
	callErr := in.callWithDeadline(ctx, in.tick)
	log = in.host.DrainLog()
	if callErr != nil {
		return log, newError(KindTick, "during tick", callErr)
	}
	return log, nil
}

// callWithDeadline invokes fn bounded by the engine's callTimeout. A guest
// that never calls a fuel-metered host import (an unbounded loop with no
// io.log/motor.* calls) would otherwise never exhaust fuel and never trap;
// WithCloseOnContextDone lets wazero unwind the call once ctx is done, and
// the deadline is then charged as if the guest had run itself out of fuel,
// so it is reaped the same way any other out-of-fuel bot is (§4.5).
func (in *Instance) callWithDeadline(ctx context.Context, fn api.Function) error {
	ctx, cancel := context.WithTimeout(ctx, in.tpl.engine.callTimeout)
	defer cancel()
	_, err := fn.Call(withHost(ctx, in.host))
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		in.fuel = 0
		return fmt.Errorf("guest exceeded %s call deadline: %w", in.tpl.engine.callTimeout, err)
	}
	return err
}

// AddFuel increases the instance's remaining fuel.
func (in *Instance) AddFuel(n uint64) {
	in.fuel += n
}

// ConsumeFuel deducts n from the instance's remaining fuel, returning false
// without modifying it if there isn't enough left. It is exposed both to
// host imports (via Host.ConsumeFuel, which bot.LiveState forwards here)
// and to the tick scheduler for the MotorLeft/MotorRight/MotorForward fuel
// costs charged during intent resolution.
func (in *Instance) ConsumeFuel(n uint64) bool {
	if in.fuel < n {
		return false
	}
	in.fuel -= n
	return true
}

// Fuel returns the instance's remaining fuel.
func (in *Instance) Fuel() uint64 {
	return in.fuel
}

// Close tears down the live module.
func (in *Instance) Close(ctx context.Context) error {
	return in.mod.Close(ctx)
}
