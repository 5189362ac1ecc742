package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/scalliony/hexsim/internal/bot"
	"github.com/scalliony/hexsim/internal/hex"
)

// RunState is the engine's run-state, changed via ChangeState commands.
type RunState uint8

const (
	Running RunState = iota
	Paused
	Stopped
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "RunState(?)"
	}
}

// TickID is a monotonically increasing tick counter.
type TickID uint64

// Event is the tagged union emitted on the event bus, in the order
// produced by the tick pipeline (§4.6). Only the fields whose comment names
// the Event's Kind are meaningful on it (BotMove, for one, carries both Src
// and To).
type Event struct {
	Kind EventKind

	State       RunState       // StateChange
	Tick        TickID         // TickStart
	Time        time.Time      // TickStart
	Src         bot.Src        // bot-scoped events
	Facing      hex.Direction  // BotRotate (new facing)
	To          hex.Hex        // BotMove, BotCollide
	Log         string         // BotLog
	Err         error          // BotError, CompileError
	Program     ProgramID      // ProgramAdd
	CompileID   uuid.UUID      // ProgramAdd, CompileError
	Range       CellRange      // Cells
}

// EventKind discriminates Event's payload.
type EventKind uint8

const (
	EvStateChange EventKind = iota
	EvTickStart
	EvTickEnd
	EvBotSpawn
	EvBotDie
	EvBotLog
	EvBotError
	EvBotRotate
	EvBotMove
	EvBotCollide
	EvCells
	EvProgramAdd
	EvCompileError
)

func (k EventKind) String() string {
	switch k {
	case EvStateChange:
		return "StateChange"
	case EvTickStart:
		return "TickStart"
	case EvTickEnd:
		return "TickEnd"
	case EvBotSpawn:
		return "BotSpawn"
	case EvBotDie:
		return "BotDie"
	case EvBotLog:
		return "BotLog"
	case EvBotError:
		return "BotError"
	case EvBotRotate:
		return "BotRotate"
	case EvBotMove:
		return "BotMove"
	case EvBotCollide:
		return "BotCollide"
	case EvCells:
		return "Cells"
	case EvProgramAdd:
		return "ProgramAdd"
	case EvCompileError:
		return "CompileError"
	default:
		return "EventKind(?)"
	}
}

// bus is the engine's outgoing event sink: single-producer (the engine),
// many-consumers. The core only writes to it; fan-out to subscribers is an
// external collaborator's concern (spec.md §1, §5).
type bus struct {
	out chan<- Event
}

func (b bus) emit(e Event) {
	if b.out == nil {
		return
	}
	b.out <- e
}

func (b bus) tickStart(tid TickID, ts time.Time) {
	b.emit(Event{Kind: EvTickStart, Tick: tid, Time: ts})
}

func (b bus) tickEnd() {
	b.emit(Event{Kind: EvTickEnd})
}

func (b bus) stateChange(s RunState) {
	b.emit(Event{Kind: EvStateChange, State: s})
}

func (b bus) botSpawn(src bot.Src) {
	b.emit(Event{Kind: EvBotSpawn, Src: src})
}

func (b bus) botDie(src bot.Src) {
	b.emit(Event{Kind: EvBotDie, Src: src})
}

func (b bus) botLog(src bot.Src, log string) {
	if log == "" {
		return
	}
	b.emit(Event{Kind: EvBotLog, Src: src, Log: log})
}

func (b bus) botError(src bot.Src, err error) {
	b.emit(Event{Kind: EvBotError, Src: src, Err: err})
}

func (b bus) botRotate(src bot.Src, facing hex.Direction) {
	b.emit(Event{Kind: EvBotRotate, Src: src, Facing: facing})
}

func (b bus) botMove(src bot.Src, to hex.Hex) {
	b.emit(Event{Kind: EvBotMove, Src: src, To: to})
}

func (b bus) botCollide(src bot.Src, to hex.Hex) {
	b.emit(Event{Kind: EvBotCollide, Src: src, To: to})
}

func (b bus) cells(r CellRange) {
	b.emit(Event{Kind: EvCells, Range: r})
}

func (b bus) programAdd(pid ProgramID, cid uuid.UUID) {
	b.emit(Event{Kind: EvProgramAdd, Program: pid, CompileID: cid})
}

func (b bus) compileError(cid uuid.UUID, err error) {
	b.emit(Event{Kind: EvCompileError, CompileID: cid, Err: err})
}
