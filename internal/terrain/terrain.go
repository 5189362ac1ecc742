// Package terrain implements the deterministic, seeded, pure terrain
// generator (C3): a fractal-noise function from Hex to {Ground, Wall}.
package terrain

import (
	"math"

	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/hex"
)

// DefaultFrequency is the default number of noise cycles per unit length,
// matching the original generator's Grid::new (1/256).
const DefaultFrequency = 1.0 / 256

// Generator is a pure, referentially transparent function from Hex to Cell,
// seeded at construction. Equal seed and frequency always produce equal
// output for the same Hex (P6).
type Generator struct {
	noise *fbm
}

// New builds a terrain generator for the given seed, using DefaultFrequency.
func New(seed uint32) *Generator {
	return NewWithFrequency(seed, DefaultFrequency)
}

// NewWithFrequency builds a terrain generator with an explicit frequency.
func NewWithFrequency(seed uint32, frequency float64) *Generator {
	return &Generator{noise: newFbm(seed, frequency)}
}

// Point maps an axial Hex to Cartesian coordinates for the noise field:
// x = 3/2*q, y = -(sqrt(3)/2*q + sqrt(3)*r).
func Point(h hex.Hex) (x, y float64) {
	q, r := float64(h.Q), float64(h.R)
	x = 1.5 * q
	y = -(math.Sqrt(3)/2*q + math.Sqrt(3)*r)
	return x, y
}

// At returns the terrain cell at h: Ground if the noise field value is
// negative, Wall otherwise.
func (g *Generator) At(h hex.Hex) grid.Cell {
	x, y := Point(h)
	if g.noise.get(x, y) < 0 {
		return grid.Cell{Kind: grid.Ground}
	}
	return grid.Cell{Kind: grid.Wall}
}
