// Package grid implements the authoritative world overlay (C4): a sparse
// map of cell overrides atop a deterministic terrain generator.
package grid

import (
	"fmt"

	"github.com/scalliony/hexsim/internal/genstore"
)

// CellKind tags the content of one hex.
type CellKind uint8

const (
	// Ground is the only "empty" cell value.
	Ground CellKind = iota
	// Wall is impassable terrain.
	Wall
	// Occupied means a bot occupies the cell; see Cell.Bot.
	Occupied
)

// Cell is the tagged-union content of one hex: Ground, Wall, or a single
// occupying bot. Every occupied cell holds exactly one occupant.
type Cell struct {
	Kind CellKind
	Bot  genstore.ID // valid only when Kind == Occupied
}

// OccupiedBy returns the Cell occupied by bot id.
func OccupiedBy(id genstore.ID) Cell {
	return Cell{Kind: Occupied, Bot: id}
}

// IsGround reports whether the cell is empty ground.
func (c Cell) IsGround() bool { return c.Kind == Ground }

// IsWall reports whether the cell is a wall.
func (c Cell) IsWall() bool { return c.Kind == Wall }

// OccupiedID returns the occupying bot's id and true if the cell is
// occupied.
func (c Cell) OccupiedID() (genstore.ID, bool) {
	if c.Kind != Occupied {
		return genstore.ID{}, false
	}
	return c.Bot, true
}

func (c Cell) String() string {
	switch c.Kind {
	case Ground:
		return "Ground"
	case Wall:
		return "Wall"
	case Occupied:
		return fmt.Sprintf("Bot(%v)", c.Bot)
	default:
		return "Cell(?)"
	}
}
