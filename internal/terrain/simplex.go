package terrain

import "math"

// simplex2D implements 2-D OpenSimplex-style gradient noise: a skewed
// simplex-grid gradient noise in the range roughly [-1, 1], pure and
// deterministic for a given permutation table.
type simplex2D struct {
	perm *permutationTable
}

func newSimplex2D(seed uint32) *simplex2D {
	return &simplex2D{perm: newPermutationTable(seed)}
}

var gradients2D = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{0.7071067811865476, 0.7071067811865476},
	{-0.7071067811865476, 0.7071067811865476},
	{0.7071067811865476, -0.7071067811865476},
	{-0.7071067811865476, -0.7071067811865476},
}

const (
	skew2D   = 0.3660254037844387  // (sqrt(3)-1)/2
	unskew2D = 0.21132486540518713 // (3-sqrt(3))/6
)

func (s *simplex2D) get(x, y float64) float64 {
	skewOffset := (x + y) * skew2D
	i, j := math.Floor(x+skewOffset), math.Floor(y+skewOffset)

	unskewOffset := (i + j) * unskew2D
	x0, y0 := x-(i-unskewOffset), y-(j-unskewOffset)

	var i1, j1 float64
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - i1 + unskew2D
	y1 := y0 - j1 + unskew2D
	x2 := x0 - 1 + 2*unskew2D
	y2 := y0 - 1 + 2*unskew2D

	ii, jj := int64(i), int64(j)
	g0 := gradients2D[s.perm.get2(ii, jj)%8]
	g1 := gradients2D[s.perm.get2(ii+int64(i1), jj+int64(j1))%8]
	g2 := gradients2D[s.perm.get2(ii+1, jj+1)%8]

	return corner(x0, y0, g0) + corner(x1, y1, g1) + corner(x2, y2, g2)
}

func corner(x, y float64, g [2]float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * (g[0]*x + g[1]*y)
}
