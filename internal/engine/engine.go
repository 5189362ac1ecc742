// Package engine implements the tick scheduler and command/event bus (C7,
// C8): the per-tick pipeline that runs every live bot's guest program,
// resolves the resulting intents into a single consistent grid mutation,
// and emits an ordered event stream.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scalliony/hexsim/internal/bot"
	"github.com/scalliony/hexsim/internal/genstore"
	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/sandbox"
	"github.com/scalliony/hexsim/internal/terrain"
)

// Config holds the engine's process-wide configuration knobs (spec.md
// §6), in the manner of dragonfly's server.Config: every field documented,
// every field optional with a sane default filled in by New.
type Config struct {
	// TickDuration is the wall-clock interval the external loop sleeps
	// between ticks. Defaults to 1 second.
	TickDuration time.Duration
	// TerrainSeed seeds the deterministic terrain generator. Defaults to
	// 42.
	TerrainSeed uint32
	// TerrainFrequency overrides the terrain generator's noise frequency.
	// Defaults to terrain.DefaultFrequency.
	TerrainFrequency float64
	// InitialPaused starts the engine in the Paused run-state instead of
	// Running.
	InitialPaused bool
	// SandboxCacheDir, if non-empty, enables an on-disk wazero compilation
	// cache at this path, persisting compiled guest modules across
	// process restarts.
	SandboxCacheDir string
	// GuestCallTimeout bounds every guest _start/tick call, guarding
	// against a guest whose compute never touches a fuel-metered host
	// import (see sandbox.DefaultGuestCallTimeout). Defaults to
	// sandbox.DefaultGuestCallTimeout.
	GuestCallTimeout time.Duration
	// Log is the Logger used for warnings about invalid commands and
	// engine lifecycle messages. If nil, Log is set to slog.Default().
	Log *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.TickDuration <= 0 {
		c.TickDuration = time.Second
	}
	if c.TerrainSeed == 0 {
		c.TerrainSeed = 42
	}
	if c.TerrainFrequency == 0 {
		c.TerrainFrequency = terrain.DefaultFrequency
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return c
}

// Engine is the simulation core: the single mutator of Grid and bot
// state, driven by an external tick loop. There is no shared global
// mutable state beyond what Engine owns — determinism across runs
// depends only on Config.TerrainSeed and the sequence of Commands
// received (see spec.md §9).
type Engine struct {
	conf Config
	log  *slog.Logger

	sandbox *sandbox.Engine
	grid    *grid.Grid
	bots    genstore.Store[bot.Bot]
	programs []*Program

	state RunState
	tick  TickID

	cmds <-chan Command
	bus  bus
}

// New constructs an Engine reading commands from cmds and writing events
// to events. Both channels are owned by the caller; New does not close
// them. Call Run to drive the tick loop.
func New(ctx context.Context, conf Config, cmds <-chan Command, events chan<- Event) (*Engine, error) {
	conf = conf.withDefaults()

	sb, err := sandbox.NewEngine(ctx, conf.SandboxCacheDir, conf.GuestCallTimeout)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	gen := terrain.NewWithFrequency(conf.TerrainSeed, conf.TerrainFrequency)
	state := Running
	if conf.InitialPaused {
		state = Paused
	}

	return &Engine{
		conf:    conf,
		log:     conf.Log,
		sandbox: sb,
		grid:    grid.New(gen),
		state:   state,
		cmds:    cmds,
		bus:     bus{out: events},
	}, nil
}

// Close releases the sandbox engine and any per-program compiled
// templates.
func (e *Engine) Close(ctx context.Context) error {
	for _, p := range e.programs {
		if p.Template != nil {
			_ = p.Template.Close(ctx)
		}
	}
	return e.sandbox.Close(ctx)
}

// Run drives the external tick loop until ctx is cancelled or a
// ChangeState(Stopped) command is processed. The loop sleeps
// Config.TickDuration between ticks, draining all buffered commands at
// each boundary before running the next tick's phases (§5).
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.conf.TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			processed := e.drainCommands(ctx)
			if e.state == Stopped {
				return nil
			}
			if e.state == Paused {
				e.runTick(ctx, true)
				continue
			}
			if e.bots.Len() == 0 && !processed {
				continue
			}
			e.runTick(ctx, false)
		}
	}
}

// runTick executes one full tick (§4.6 Phases A–F). When pausedOnly is
// true, only the TickStart/TickEnd bracket is emitted and Phases B–E are
// skipped, per Config.InitialPaused/ChangeState(Paused)'s "suppresses
// Phases B-E but still drains commands" rule.
func (e *Engine) runTick(ctx context.Context, pausedOnly bool) {
	e.tick++
	e.bus.tickStart(e.tick, time.Now())

	if !pausedOnly {
		dead := e.phaseB(ctx)
		plan, moreDead := e.phaseC(ctx)
		for id := range moreDead {
			dead[id] = true
		}
		e.phaseD(ctx, dead)
		e.phaseE(ctx, plan)
	}

	e.bus.tickEnd()
}

func (e *Engine) template(pid ProgramID) *sandbox.Template {
	if int(pid) >= len(e.programs) {
		return nil
	}
	return e.programs[pid].Template
}

// drainCommands processes every command currently buffered on e.cmds
// without blocking, returning whether any were processed.
func (e *Engine) drainCommands(ctx context.Context) bool {
	processed := false
	for {
		select {
		case cmd, ok := <-e.cmds:
			if !ok {
				return processed
			}
			processed = true
			e.handleCommand(ctx, cmd)
			if e.state == Stopped {
				return processed
			}
		default:
			return processed
		}
	}
}

func (e *Engine) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case CmdChangeState:
		e.handleChangeState(cmd)
	case CmdCompile:
		e.handleCompile(ctx, cmd)
	case CmdSpawn:
		e.handleSpawn(cmd)
	case CmdMap:
		e.handleMap(cmd)
	}
}

func (e *Engine) handleChangeState(cmd Command) {
	if cmd.State == e.state {
		return
	}
	e.state = cmd.State
	e.bus.stateChange(cmd.State)
}

func (e *Engine) handleCompile(ctx context.Context, cmd Command) {
	tpl, err := e.sandbox.Compile(ctx, cmd.Code)
	if err != nil {
		e.log.Warn("compile failed", "err", err)
		if cmd.CompileReply != nil {
			cmd.CompileReply <- CompileResult{Err: err}
		}
		e.bus.compileError(cmd.CompileID, err)
		return
	}

	pid := ProgramID(len(e.programs))
	e.programs = append(e.programs, &Program{ID: pid, Code: cmd.Code, Template: tpl})
	if cmd.CompileReply != nil {
		cmd.CompileReply <- CompileResult{ID: pid}
	}
	e.bus.programAdd(pid, cmd.CompileID)
}

func (e *Engine) handleSpawn(cmd Command) {
	if int(cmd.ProgramID) >= len(e.programs) {
		e.log.Warn("spawn: unknown program", "program", cmd.ProgramID)
		return
	}
	if !e.grid.Get(cmd.At).IsGround() {
		e.log.Warn("spawn: cell is not Ground", "at", cmd.At)
		return
	}

	b := bot.NewDormant(bot.ProgramID(cmd.ProgramID), cmd.At, cmd.Owner)
	id := e.bots.Insert(*b)
	e.grid.Set(cmd.At, grid.OccupiedBy(id))
	e.bus.botSpawn(bot.Src{ID: id, At: cmd.At, Owner: cmd.Owner})
}

func (e *Engine) handleMap(cmd Command) {
	r := EncodeCellRange(e.grid, cmd.Center, cmd.Rad)
	if cmd.MapReply != nil {
		cmd.MapReply <- r
	}
	e.bus.cells(r)
}
