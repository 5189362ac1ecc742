package grid

import "github.com/scalliony/hexsim/internal/hex"

// Generator is a pure source of terrain cells, used as the read-through
// fallback for hexes that have no authoritative override.
type Generator interface {
	At(h hex.Hex) Cell
}

// Grid overlays authoritative cell overrides atop a deterministic terrain
// Generator: unset keys resolve to terrain, and insertion order of
// overrides is irrelevant. A Grid is read-through and total: Get never
// fails.
type Grid struct {
	overrides map[hex.Hex]Cell
	gen       Generator
}

// New returns a Grid backed by gen.
func New(gen Generator) *Grid {
	return &Grid{overrides: make(map[hex.Hex]Cell), gen: gen}
}

// Get returns the override at h if one is recorded, else the terrain cell.
func (g *Grid) Get(h hex.Hex) Cell {
	if c, ok := g.overrides[h]; ok {
		return c
	}
	return g.gen.At(h)
}

// Set records an authoritative override at h.
func (g *Grid) Set(h hex.Hex, c Cell) {
	g.overrides[h] = c
}

// Clear removes any override at h, letting it read through to terrain
// again. It is equivalent to Set(h, terrain(h)) but avoids retaining a
// redundant override entry.
func (g *Grid) Clear(h hex.Hex) {
	delete(g.overrides, h)
}

// DrainUnchanged removes overrides that are equal to what the terrain
// generator would already produce, compacting the override map.
func (g *Grid) DrainUnchanged() {
	for h, c := range g.overrides {
		if c == g.gen.At(h) {
			delete(g.overrides, h)
		}
	}
}

// Overrides returns the number of recorded overrides, for diagnostics and
// tests.
func (g *Grid) Overrides() int {
	return len(g.overrides)
}
