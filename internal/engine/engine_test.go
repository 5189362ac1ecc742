package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/scalliony/hexsim/internal/bot"
	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/hex"
)

// wallSet is a grid.Generator that is Wall at a fixed set of hexes and
// Ground everywhere else.
type wallSet map[hex.Hex]bool

func (w wallSet) At(h hex.Hex) grid.Cell {
	if w[h] {
		return grid.Cell{Kind: grid.Wall}
	}
	return grid.Cell{Kind: grid.Ground}
}

func newTestEngine(t *testing.T, gen grid.Generator) (*Engine, chan Event) {
	t.Helper()
	ctx := context.Background()
	events := make(chan Event, 256)
	e, err := New(ctx, Config{}, nil, events)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	e.grid = grid.New(gen)
	return e, events
}

func drain(events chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func compileMotor(t *testing.T, e *Engine, action string) ProgramID {
	t.Helper()
	reply := make(chan CompileResult, 1)
	e.handleCompile(context.Background(), Compile(buildMotorModule(action), uuid.Nil, reply))
	res := <-reply
	if res.Err != nil {
		t.Fatalf("compile(%q): %v", action, res.Err)
	}
	return res.ID
}

func spawnBot(t *testing.T, e *Engine, events chan Event, pid ProgramID, at hex.Hex) bot.ID {
	t.Helper()
	e.handleSpawn(Spawn(pid, at, uuid.Nil))
	for _, ev := range drain(events) {
		if ev.Kind == EvBotSpawn {
			return ev.Src.ID
		}
	}
	t.Fatalf("spawn at %v produced no BotSpawn event", at)
	return bot.ID{}
}

// bootIdle boots every given bot against the no-op ("wait") program via a
// bare Phase B pass, draining and discarding whatever it emits. It exists
// so resolver-focused tests can drive an Active LiveState without needing
// a guest module that produces the exact intent under test.
func bootIdle(t *testing.T, e *Engine, events chan Event, ids ...bot.ID) {
	t.Helper()
	e.phaseB(context.Background())
	drain(events)
	for _, id := range ids {
		b, err := e.bots.GetPtr(id)
		if err != nil || !b.Active {
			t.Fatalf("bootIdle: bot %v not active: %v", id, err)
		}
	}
}

// setIntent directly arranges an already-booted bot's facing and pending
// action, standing in for whatever a guest program's tick() would have
// set, so a test can exercise Phase C/D/E's resolution logic without
// hand-assembling a WASM module for every facing/action combination.
func setIntent(t *testing.T, e *Engine, id bot.ID, facing hex.Direction, action bot.Intent) {
	t.Helper()
	b, err := e.bots.GetPtr(id)
	if err != nil || !b.Active {
		t.Fatalf("setIntent: bot %v not active: %v", id, err)
	}
	b.Cpu.Live.Facing = facing
	b.Cpu.Live.Action = action
}

// resolve runs Phases C, D and E directly — the part of the tick pipeline
// under test — without Phase B's guest execution.
func resolve(e *Engine) {
	ctx := context.Background()
	plan, dead := e.phaseC(ctx)
	e.phaseD(ctx, dead)
	e.phaseE(ctx, plan)
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func countKind(events []Event, k EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func isBot(c grid.Cell) bool { _, ok := c.OccupiedID(); return ok }

// directionTo returns whichever of the six directions points from at
// towards to; to must be one of at's six neighbors.
func directionTo(t *testing.T, at, to hex.Hex) hex.Direction {
	t.Helper()
	want := to.Sub(at)
	for _, d := range hex.Directions() {
		if d.Hex() == want {
			return d
		}
	}
	t.Fatalf("%v is not a neighbor of %v", to, at)
	return hex.Up
}

// Scenario 1 (spec.md §8.1): forward into a wall.
func TestForwardIntoWall(t *testing.T) {
	e, events := newTestEngine(t, wallSet{hex.New(0, 1): true})
	pid := compileMotor(t, e, "forward")
	spawnBot(t, e, events, pid, hex.New(0, 0))
	drain(events) // discard BotSpawn

	e.runTick(context.Background(), false)
	got := drain(events)

	if len(got) == 0 || got[0].Kind != EvTickStart {
		t.Fatalf("events = %v, want leading TickStart", kinds(got))
	}
	if last := got[len(got)-1]; last.Kind != EvTickEnd {
		t.Fatalf("events = %v, want trailing TickEnd", kinds(got))
	}
	if n := countKind(got, EvBotCollide); n != 1 {
		t.Fatalf("BotCollide count = %d, want 1 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotMove); n != 0 {
		t.Fatalf("BotMove count = %d, want 0", n)
	}
	if c := e.grid.Get(hex.New(0, 0)); !isBot(c) {
		t.Fatalf("bot no longer at (0,0): %v", c)
	}
}

// Scenario 2 (spec.md §8.2): three bots chain-move forward on open ground.
func TestChainMove(t *testing.T) {
	e, events := newTestEngine(t, wallSet{})
	pid := compileMotor(t, e, "forward")
	spawnBot(t, e, events, pid, hex.New(0, 0))
	spawnBot(t, e, events, pid, hex.New(0, 1))
	spawnBot(t, e, events, pid, hex.New(0, 2))
	drain(events)

	e.runTick(context.Background(), false)
	got := drain(events)

	if n := countKind(got, EvBotMove); n != 3 {
		t.Fatalf("BotMove count = %d, want 3 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotCollide); n != 0 {
		t.Fatalf("BotCollide count = %d, want 0", n)
	}
	for _, h := range []hex.Hex{hex.New(0, 1), hex.New(0, 2), hex.New(0, 3)} {
		if !isBot(e.grid.Get(h)) {
			t.Fatalf("expected a bot at %v after the chain move", h)
		}
	}
	if c := e.grid.Get(hex.New(0, 0)); !c.IsGround() {
		t.Fatalf("origin (0,0) = %v, want Ground", c)
	}
}

// Scenario 3 (spec.md §8.3): a head-on swap is denied.
func TestHeadOnSwapDenied(t *testing.T) {
	e, events := newTestEngine(t, wallSet{})
	pid := compileMotor(t, e, "")
	a := spawnBot(t, e, events, pid, hex.New(0, 0))
	b := spawnBot(t, e, events, pid, hex.New(0, 1))
	bootIdle(t, e, events, a, b)

	setIntent(t, e, a, hex.Up, bot.MotorForward)   // (0,0) -> (0,1)
	setIntent(t, e, b, hex.Down, bot.MotorForward) // (0,1) -> (0,0)
	resolve(e)
	got := drain(events)

	if n := countKind(got, EvBotCollide); n != 2 {
		t.Fatalf("BotCollide count = %d, want 2 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotMove); n != 0 {
		t.Fatalf("BotMove count = %d, want 0", n)
	}
	if p, err := e.bots.Get(a); err != nil || p.At() != hex.New(0, 0) {
		t.Fatalf("A moved: at=%v err=%v", p.At(), err)
	}
	if p, err := e.bots.Get(b); err != nil || p.At() != hex.New(0, 1) {
		t.Fatalf("B moved: at=%v err=%v", p.At(), err)
	}
}

// Scenario 4 (spec.md §8.4): two bots contend for the same Ground
// destination from different source cells.
func TestConflict(t *testing.T) {
	e, events := newTestEngine(t, wallSet{})
	pid := compileMotor(t, e, "")
	target := hex.New(0, 1)
	a := spawnBot(t, e, events, pid, hex.New(0, 0))
	b := spawnBot(t, e, events, pid, hex.New(1, 0))
	bootIdle(t, e, events, a, b)

	setIntent(t, e, a, directionTo(t, hex.New(0, 0), target), bot.MotorForward)
	setIntent(t, e, b, directionTo(t, hex.New(1, 0), target), bot.MotorForward)
	resolve(e)
	got := drain(events)

	if n := countKind(got, EvBotCollide); n != 2 {
		t.Fatalf("BotCollide count = %d, want 2 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotMove); n != 0 {
		t.Fatalf("BotMove count = %d, want 0", n)
	}
	if c := e.grid.Get(target); isBot(c) {
		t.Fatalf("contended target %v got occupied: %v", target, c)
	}
}

// Scenario 5 (spec.md §8.5): a bot that requests MotorLeft with too
// little fuel dies instead of turning.
func TestOutOfFuelDuringTurn(t *testing.T) {
	e, events := newTestEngine(t, wallSet{})
	pid := compileMotor(t, e, "")
	id := spawnBot(t, e, events, pid, hex.New(0, 0))
	bootIdle(t, e, events, id)

	b, err := e.bots.GetPtr(id)
	if err != nil || !b.Active {
		t.Fatalf("bot not active after boot: %v", err)
	}
	for b.Cpu.Instance.Fuel() > 10 {
		b.Cpu.Instance.ConsumeFuel(1)
	}
	setIntent(t, e, id, hex.Up, bot.MotorLeft) // costs TurnFuel (32) > 10 remaining

	resolve(e)
	got := drain(events)

	if n := countKind(got, EvBotDie); n != 1 {
		t.Fatalf("BotDie count = %d, want 1 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotRotate); n != 0 {
		t.Fatalf("BotRotate count = %d, want 0", n)
	}
	if c := e.grid.Get(hex.New(0, 0)); !c.IsGround() {
		t.Fatalf("origin cell = %v, want Ground after death", c)
	}
	if e.bots.Exists(id) {
		t.Fatal("dead bot still exists in the store")
	}
}

// Scenario 6 (spec.md §8.6): a rotational cycle of three bots never
// resolves to a valid move.
func TestCycleOfThreeCancelled(t *testing.T) {
	e, events := newTestEngine(t, wallSet{})
	pid := compileMotor(t, e, "")
	pa, pb, pc := hex.New(0, 0), hex.New(1, 0), hex.New(1, -1)
	a := spawnBot(t, e, events, pid, pa)
	b := spawnBot(t, e, events, pid, pb)
	c := spawnBot(t, e, events, pid, pc)
	bootIdle(t, e, events, a, b, c)

	setIntent(t, e, a, directionTo(t, pa, pb), bot.MotorForward)
	setIntent(t, e, b, directionTo(t, pb, pc), bot.MotorForward)
	setIntent(t, e, c, directionTo(t, pc, pa), bot.MotorForward)
	resolve(e)
	got := drain(events)

	if n := countKind(got, EvBotCollide); n != 3 {
		t.Fatalf("BotCollide count = %d, want 3 (events: %v)", n, kinds(got))
	}
	if n := countKind(got, EvBotMove); n != 0 {
		t.Fatalf("BotMove count = %d, want 0", n)
	}
	if n := countKind(got, EvBotDie); n != 0 {
		t.Fatalf("BotDie count = %d, want 0", n)
	}
}
