package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/scalliony/hexsim/internal/bot"
	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/hex"
)

// moveState is MovePlan's per-destination classification (§3, §4.6).
type moveState uint8

const (
	planValid moveState = iota
	planAfter
	planCancelled
	// planApplied marks an entry whose move has already been committed by
	// a previous resolveChain call this same Phase E. Entries are kept
	// (never deleted) once classified, so a later chain walk that lands on
	// an already-applied link sees it as a settled, valid continuation
	// instead of an absent key indistinguishable from "nobody ever
	// targeted this cell".
	planApplied
)

// planEntry is one MovePlan slot: the bot proposing to move into this
// destination, its src snapshot at classification time, and (for
// planAfter) the hex its current occupant is itself trying to reach.
type planEntry struct {
	id    bot.ID
	src   bot.Src
	state moveState
	after hex.Hex
}

// movePlan is deliberately a local value per tick, never engine state:
// phaseC constructs a fresh one and it is discarded, settled entries and
// all, once phaseE returns, satisfying invariant I4 ("after tick
// resolution, MovePlan is empty") without a separate reset step.
type movePlan map[hex.Hex]*planEntry

func ownerOf(b *bot.Bot) uuid.UUID {
	if b.Active {
		return b.Cpu.Live.Owner
	}
	return b.Off.Owner
}

// phaseB runs guest execution, in store-iteration order (§4.6 Phase B): a
// Dormant bot first attempts to boot, and — mirroring the original
// engine's tick() dispatch, where a freshly-booted cpu falls straight
// through to the same iteration's tick call — whichever bot is Active by
// the end of that attempt (already was, or just booted) gets its guest
// tick() called this same pass. A bot that stays Dormant because its
// program has no compiled template, or because its bled-down boot fuel
// has hit 0 without ever reaching MinBootFuel, is collected into the
// returned dead set: spec.md §4.5 kills a bot on fuel = 0 regardless of
// Active/Dormant, and a Dormant bot has no Phase C pass of its own to
// notice that for it.
func (e *Engine) phaseB(ctx context.Context) map[bot.ID]bool {
	dead := map[bot.ID]bool{}
	for _, id := range e.bots.Ids() {
		b, err := e.bots.GetPtr(id)
		if err != nil {
			continue
		}
		if !b.Active {
			at := b.At()
			owner := ownerOf(b)
			tpl := e.template(ProgramID(b.Program))
			if tpl == nil {
				dead[id] = true
				continue
			}
			res := bot.Boot(ctx, id, b, tpl)
			src := bot.Src{ID: id, At: at, Owner: owner}
			if res.Log != "" {
				e.bus.botLog(src, res.Log)
			}
			if res.Err != nil {
				e.bus.botError(src, res.Err)
			}
			if !b.Active {
				if b.Off.Fuel == 0 {
					dead[id] = true
				}
				continue
			}
		}

		tr := bot.Tick(ctx, b, e.grid)
		src := bot.Src{ID: id, At: b.Cpu.Live.At, Owner: b.Cpu.Live.Owner}
		if tr.Log != "" {
			e.bus.botLog(src, tr.Log)
		}
		if tr.Err != nil {
			e.bus.botError(src, tr.Err)
		}
	}
	return dead
}

// phaseC resolves this tick's intents into a MovePlan, marking turns and
// rejections immediately and deferring forward moves to Phase E's chain
// resolution (§4.6 Phase C). Bots that cannot pay for their action, and
// bots whose fuel is zero once this tick's action is paid for, are
// collected for Phase D.
func (e *Engine) phaseC(ctx context.Context) (movePlan, map[bot.ID]bool) {
	plan := movePlan{}
	dead := map[bot.ID]bool{}

	for _, id := range e.bots.Ids() {
		live, rest, err := e.bots.SplitAtMut(id)
		if err != nil || !live.Active {
			continue
		}
		ls := live.Cpu.Live
		src := bot.Src{ID: id, At: ls.At, Owner: ls.Owner}

		switch ls.Action {
		case bot.Wait:
			// no-op

		case bot.MotorLeft, bot.MotorRight:
			if ls.ConsumeFuel(bot.TurnFuel) {
				angle := hex.Left
				if ls.Action == bot.MotorRight {
					angle = hex.Right
				}
				e.bus.botRotate(src, ls.Turn(angle))
			} else {
				dead[id] = true
			}

		case bot.MotorForward:
			if ls.ConsumeFuel(bot.MoveFuel) {
				to := ls.AtFront()
				state, after := e.classifyForward(ls, to, rest)
				e.resolveMove(plan, id, src, to, state, after)
			} else {
				dead[id] = true
			}
		}

		if live.Cpu.Instance.Fuel() == 0 {
			dead[id] = true
		}
	}
	return plan, dead
}

// classifyForward decides what a forward move into to resolves to, given
// the bots store's "rest" view for peeking at another bot's same-tick
// intent (the split_at_mut pattern, §4.2, §9).
func (e *Engine) classifyForward(ls *bot.LiveState, to hex.Hex, rest interface {
	Get(bot.ID) (*bot.Bot, error)
}) (moveState, hex.Hex) {
	cell := e.grid.Get(to)
	switch cell.Kind {
	case grid.Wall:
		return planCancelled, hex.Hex{}
	case grid.Ground:
		return planValid, hex.Hex{}
	default: // grid.Occupied
		otherID, _ := cell.OccupiedID()
		other, err := rest.Get(otherID)
		if err == nil && other.Active &&
			other.Cpu.Live.Action == bot.MotorForward &&
			other.Cpu.Live.Facing != ls.Facing.Neg() {
			return planAfter, other.Cpu.Live.AtFront()
		}
		return planCancelled, hex.Hex{}
	}
}

// resolveMove applies the "on Cancelled, emit immediately; on Valid/After,
// record silently" rule, plus the first-writer-wins contention rule for a
// destination two bots both target. Cancelled proposals are still recorded
// (not just emitted) so that another bot's chain walk referencing this
// hex via After(...) finds a definite Cancelled link rather than an
// ambiguous missing key.
func (e *Engine) resolveMove(plan movePlan, id bot.ID, src bot.Src, to hex.Hex, state moveState, after hex.Hex) {
	if existing, ok := plan[to]; ok {
		if existing.state != planCancelled {
			e.bus.botCollide(existing.src, to)
			existing.state = planCancelled
		}
		e.bus.botCollide(src, to)
		return
	}
	if state == planCancelled {
		e.bus.botCollide(src, to)
		plan[to] = &planEntry{id: id, src: src, state: planCancelled}
		return
	}
	plan[to] = &planEntry{id: id, src: src, state: state, after: after}
}

// phaseD removes dead bots from the store, reverts their cell to Ground
// and emits BotDie, before Phase E applies any still-pending moves (§4.6
// Phase D). A bot that both emptied its fuel tank and had a pending move
// this tick dies here in place: Phase D strictly precedes Phase E, so its
// move can no longer be applied.
func (e *Engine) phaseD(ctx context.Context, dead map[bot.ID]bool) {
	for id := range dead {
		b, err := e.bots.GetPtr(id)
		if err != nil {
			continue
		}
		at := b.At()
		src := bot.Src{ID: id, At: at, Owner: ownerOf(b)}
		b.Kill(ctx)
		e.bots.Remove(id)
		e.grid.Set(at, grid.Cell{Kind: grid.Ground})
		e.bus.botDie(src)
	}
}

// phaseE repeatedly picks the still-pending MovePlan entry with the
// smallest Z-ordered destination (a deterministic, reproducible tie-break;
// the spec notes chains are vertex-disjoint at destinations so pick order
// does not affect the outcome) and resolves its whole chain, until every
// entry has settled to Cancelled or Applied (§4.6 Phase E).
func (e *Engine) phaseE(ctx context.Context, plan movePlan) {
	for {
		start, ok := pickPending(plan)
		if !ok {
			return
		}
		e.resolveChain(ctx, plan, start)
	}
}

// pickPending returns the smallest Z-ordered destination with a
// still-unresolved (Valid/After) entry, skipping entries already settled
// as Cancelled or Applied by an earlier iteration.
func pickPending(plan movePlan) (hex.Hex, bool) {
	found := false
	var best hex.Hex
	for to, entry := range plan {
		if entry.state == planCancelled || entry.state == planApplied {
			continue
		}
		if !found || hex.Less(to, best) {
			best, found = to, true
		}
	}
	return best, found
}

// resolveChain walks the After(...) dependency chain starting at start,
// validates it, and either applies every move in the chain or cancels
// every still-pending entry in it. A walk that reaches a hex with no plan
// entry stops there and the chain counts as valid: the bot the last After
// link waits on recorded no move this tick, which in Phase C happens only
// when it could not pay for its move and was removed in Phase D, leaving
// its cell Ground.
func (e *Engine) resolveChain(ctx context.Context, plan movePlan, start hex.Hex) {
	startEntry := plan[start]
	tailBot, err := e.bots.GetPtr(startEntry.id)
	if err != nil {
		// The proposing bot died in Phase D before its move could be
		// applied: the link can no longer move, so it collapses to
		// Cancelled rather than vanishing from the plan.
		startEntry.state = planCancelled
		e.bus.botCollide(startEntry.src, start)
		return
	}
	tail := tailBot.At()

	var path []hex.Hex
	visited := map[hex.Hex]bool{}
	cur := start
	valid := true
	landedOnEntry := false
	for {
		entry, ok := plan[cur]
		if !ok {
			break
		}
		landedOnEntry = true
		if entry.state == planApplied {
			// Already resolved and committed by an earlier link walked
			// this same Phase E pass: terminal and valid, but it must not
			// be re-added to path or applyChain would re-apply it.
			break
		}
		path = append(path, cur)
		if entry.state != planAfter {
			// Terminal link: Cancelled (invalid), or Valid (genuinely
			// Ground-bound, newly discovered by this walk).
			valid = entry.state != planCancelled
			break
		}
		if cur == tail || visited[cur] {
			valid = false
			break
		}
		visited[cur] = true
		cur = entry.after
	}

	if valid && !landedOnEntry {
		valid = e.grid.Get(cur).IsGround()
	}

	if valid {
		e.applyChain(plan, path, tail)
	} else {
		e.invalidateChain(plan, path)
	}
}

// applyChain commits a validated chain head-first: the foremost bot moves
// into its already-empty target, vacating the cell the next bot back then
// occupies, and so on down to the chain's origin, whose starting cell
// finally reverts to Ground. Applied entries are marked rather than
// deleted so a later chain walk that lands on one recognizes it as already
// settled instead of an untargeted cell.
func (e *Engine) applyChain(plan movePlan, path []hex.Hex, tail hex.Hex) {
	for i := len(path) - 1; i >= 0; i-- {
		to := path[i]
		entry := plan[to]
		b, err := e.bots.GetPtr(entry.id)
		if err != nil {
			entry.state = planCancelled
			continue
		}
		from := tail
		if i > 0 {
			from = path[i-1]
		}
		live := b.Cpu.Live
		src := bot.Src{ID: entry.id, At: from, Owner: live.Owner}
		live.At = to
		e.grid.Set(to, grid.OccupiedBy(entry.id))
		e.bus.botMove(src, to)
		entry.state = planApplied
	}
	e.grid.Set(tail, grid.Cell{Kind: grid.Ground})
}

// invalidateChain cancels every entry in path that wasn't already
// Cancelled (those already emitted their collision in Phase C) and emits
// BotCollide for each newly-cancelled one.
func (e *Engine) invalidateChain(plan movePlan, path []hex.Hex) {
	for _, to := range path {
		entry := plan[to]
		if entry.state == planCancelled {
			continue
		}
		entry.state = planCancelled
		e.bus.botCollide(entry.src, to)
	}
}
