// Package bot implements bot lifecycle (C6): spawn, boot, per-tick guest
// execution and death, plus the BotLiveState host state that the sandbox
// and tick resolver both read and write.
package bot

import (
	"context"

	"github.com/google/uuid"
	"github.com/scalliony/hexsim/internal/genstore"
	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/hex"
	"github.com/scalliony/hexsim/internal/sandbox"
)

// Per-bot fuel constants (spec.md §4.5).
const (
	// TurnFuel is the cost of a successful MotorLeft/MotorRight.
	TurnFuel uint64 = 32
	// MoveFuel is the cost of a successful MotorForward.
	MoveFuel uint64 = 256
	// MinBootFuel is the dormant fuel required before booting is attempted.
	MinBootFuel uint64 = 64
	// DefaultFuel is the fuel a freshly spawned bot starts with.
	DefaultFuel uint64 = 10_000
)

// ID identifies a bot in the engine's generational bot store.
type ID = genstore.ID

// ProgramID identifies a compiled Program; dense and never reused.
type ProgramID uint32

// Intent is a bot's proposal for the current tick, reset to Wait at the
// start of every bot-tick.
type Intent uint8

const (
	Wait Intent = iota
	MotorForward
	MotorLeft
	MotorRight
)

func (i Intent) String() string {
	switch i {
	case Wait:
		return "Wait"
	case MotorForward:
		return "MotorForward"
	case MotorLeft:
		return "MotorLeft"
	case MotorRight:
		return "MotorRight"
	default:
		return "Intent(?)"
	}
}

// Src is the (id, position) snapshot attached to bot-scoped events, plus
// the owning user — passthrough data the engine carries but never
// interprets (see SPEC_FULL.md's supplemented-features section).
type Src struct {
	ID    ID
	At    hex.Hex
	Owner uuid.UUID
}

// LiveState is the mutable state of a booted (Active) bot: its position,
// facing, cached front cell and pending action. It implements
// sandbox.Host, translating motor/sensor host calls into field updates
// without the sandbox package needing to know about Intent.
type LiveState struct {
	ID     ID
	Owner  uuid.UUID
	At     hex.Hex
	Facing hex.Direction
	Front  grid.Cell
	Action Intent

	instance *sandbox.Instance
	logBuf   []byte
}

// Src returns the BotSrc snapshot for this bot.
func (s *LiveState) Src() Src {
	return Src{ID: s.ID, At: s.At, Owner: s.Owner}
}

// AtFront returns the hex directly in front of the bot.
func (s *LiveState) AtFront() hex.Hex {
	return s.At.Neighbor(s.Facing)
}

// Turn rotates the bot's facing by a and returns the new facing.
func (s *LiveState) Turn(a hex.Angle) hex.Direction {
	s.Facing = s.Facing.Add(a)
	return s.Facing
}

// RefreshSensors resets the pending action to Wait and recomputes the
// cached front cell, as done once at the start of every Active bot-tick.
func (s *LiveState) RefreshSensors(g *grid.Grid) {
	s.Action = Wait
	s.Front = g.Get(s.AtFront())
}

// sandbox.Host implementation.

func (s *LiveState) MotorForward() { s.Action = MotorForward }
func (s *LiveState) MotorLeft()    { s.Action = MotorLeft }
func (s *LiveState) MotorRight()   { s.Action = MotorRight }
func (s *LiveState) Contact() bool { return !s.Front.IsGround() }
func (s *LiveState) Log(p []byte)  { s.logBuf = append(s.logBuf, p...) }
func (s *LiveState) DrainLog() string {
	if len(s.logBuf) == 0 {
		return ""
	}
	out := string(s.logBuf)
	s.logBuf = s.logBuf[:0]
	return out
}
func (s *LiveState) ConsumeFuel(n uint64) bool {
	return s.instance.ConsumeFuel(n)
}

// Cpu bundles a live sandbox Instance with its BotLiveState.
type Cpu struct {
	Instance *sandbox.Instance
	Live     *LiveState
}

// OffState is the state of a bot whose sandbox has been torn down: just
// spawned, crashed, or ran out of fuel while dormant.
type OffState struct {
	At     hex.Hex
	Facing hex.Direction
	Fuel   uint64
	Owner  uuid.UUID
}

// Bot is a single bot's full lifecycle state: a compiled Program reference
// plus either a live Cpu (Active) or an OffState (Dormant). Exactly one of
// Cpu/Off is meaningful at a time, selected by Active — a tagged-variant
// shape preferred over an interface so the tick resolver can introspect
// facing/action directly, without virtual dispatch.
type Bot struct {
	Program ProgramID
	Active  bool
	Cpu     Cpu
	Off     OffState
}

// NewDormant creates a freshly spawned, Dormant bot at an empty cell,
// facing Up, with DefaultFuel.
func NewDormant(program ProgramID, at hex.Hex, owner uuid.UUID) *Bot {
	return &Bot{
		Program: program,
		Active:  false,
		Off: OffState{
			At:     at,
			Facing: hex.Up,
			Fuel:   DefaultFuel,
			Owner:  owner,
		},
	}
}

// At returns the bot's current position regardless of lifecycle state.
func (b *Bot) At() hex.Hex {
	if b.Active {
		return b.Cpu.Live.At
	}
	return b.Off.At
}

// BootResult reports the outcome of an attempted boot.
type BootResult struct {
	Booted bool
	Log    string
	Err    error
}

// Boot decrements a Dormant bot's fuel by one and, if it still has at
// least MinBootFuel, instantiates the program template with the
// remaining fuel and runs its optional _start export. On success the bot
// transitions to Active. On trap the bot stays Dormant, and fuel keeps
// bleeding tick over tick until it reaches 0 — at which point phaseB adds
// it to the dead set phaseD reaps, same as an Active bot's fuel hitting 0
// in Phase C. A _start call aborted by the call deadline leaves the
// instance with 0 fuel, and that 0 is carried back to the Dormant fuel so
// the bot is reaped right away. id is the bot's own store handle, stamped
// into the resulting LiveState so bot-scoped events can be attributed without a
// reverse lookup.
func Boot(ctx context.Context, id ID, b *Bot, tpl *sandbox.Template) BootResult {
	if b.Active {
		return BootResult{}
	}
	if b.Off.Fuel > 0 {
		b.Off.Fuel--
	}
	if b.Off.Fuel < MinBootFuel {
		return BootResult{}
	}

	live := &LiveState{
		ID:     id,
		Owner:  b.Off.Owner,
		At:     b.Off.At,
		Facing: b.Off.Facing,
	}
	fuel := b.Off.Fuel
	inst, err := tpl.New(ctx, live, fuel)
	if err != nil {
		return BootResult{Err: err}
	}
	live.instance = inst

	log, startErr := inst.Start(ctx)
	if startErr != nil {
		if inst.Fuel() == 0 {
			b.Off.Fuel = 0
		}
		inst.Close(ctx)
		return BootResult{Log: log, Err: startErr}
	}

	b.Active = true
	b.Cpu = Cpu{Instance: inst, Live: live}
	return BootResult{Booted: true, Log: log}
}

// TickResult reports the outcome of a single Active bot's guest tick.
type TickResult struct {
	Log string
	Err error
}

// Tick refreshes sensors from g, calls the guest tick() export once, and
// returns any captured log plus a trap error, if any.
func Tick(ctx context.Context, b *Bot, g *grid.Grid) TickResult {
	live := b.Cpu.Live
	live.RefreshSensors(g)
	log, err := b.Cpu.Instance.Tick(ctx)
	return TickResult{Log: log, Err: err}
}

// Kill tears down an Active bot's sandbox instance. It is a no-op for
// Dormant bots.
func (b *Bot) Kill(ctx context.Context) {
	if b.Active {
		b.Cpu.Instance.Close(ctx)
		b.Active = false
	}
}
