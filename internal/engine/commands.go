package engine

import (
	"github.com/google/uuid"
	"github.com/scalliony/hexsim/internal/hex"
)

// CommandKind discriminates Command's payload.
type CommandKind uint8

const (
	CmdChangeState CommandKind = iota
	CmdCompile
	CmdSpawn
	CmdMap
)

// Command is the engine's inbound, single-consumer command contract
// (§4.7): drained at tick boundaries, before Phase B of the next tick.
// Replies, where present, are single-shot channels: the engine sends
// exactly one value on each and never closes them (nothing is sent if the
// command was dropped while Stopped, per spec.md §5/§7).
type Command struct {
	Kind CommandKind

	State RunState // ChangeState

	Code      []byte              // Compile
	CompileID uuid.UUID           // Compile
	CompileReply chan<- CompileResult // Compile

	ProgramID ProgramID // Spawn
	At        hex.Hex   // Spawn
	Owner     uuid.UUID // Spawn

	Center    hex.Hex          // Map
	Rad       int32            // Map
	MapReply  chan<- CellRange // Map
}

// CompileResult is delivered on a Compile command's reply channel.
type CompileResult struct {
	ID  ProgramID
	Err error
}

// ChangeState builds a ChangeState command.
func ChangeState(s RunState) Command {
	return Command{Kind: CmdChangeState, State: s}
}

// Compile builds a Compile command. reply receives exactly one
// CompileResult once the engine has processed it.
func Compile(code []byte, cid uuid.UUID, reply chan<- CompileResult) Command {
	return Command{Kind: CmdCompile, Code: code, CompileID: cid, CompileReply: reply}
}

// Spawn builds a Spawn command. owner is a passthrough identifier the
// engine never interprets, carried onto the resulting bot's BotSrc.
func Spawn(pid ProgramID, at hex.Hex, owner uuid.UUID) Command {
	return Command{Kind: CmdSpawn, ProgramID: pid, At: at, Owner: owner}
}

// Map builds a Map command. reply receives exactly one CellRange once the
// engine has processed it.
func Map(center hex.Hex, rad int32, reply chan<- CellRange) Command {
	return Command{Kind: CmdMap, Center: center, Rad: rad, MapReply: reply}
}
