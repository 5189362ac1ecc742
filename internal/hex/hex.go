// Package hex implements axial-coordinate hexagon algebra: positions,
// directions, angles and the Z-order total order used to key overlay maps
// and to walk contiguous disks in a stable, reproducible order.
package hex

import "cmp"

// Hex is an axial coordinate (q, r) with a derived s = -q-r. All arithmetic
// is 32-bit signed; overflow at the edges of the addressable world is
// undefined and outside the supported domain.
type Hex struct {
	Q, R int32
}

// New returns the Hex at axial coordinates (q, r).
func New(q, r int32) Hex { return Hex{Q: q, R: r} }

// S returns the third cube coordinate, -q-r.
func (h Hex) S() int32 { return -h.Q - h.R }

// Add returns h+v.
func (h Hex) Add(v Hex) Hex { return Hex{Q: h.Q + v.Q, R: h.R + v.R} }

// Sub returns h-v.
func (h Hex) Sub(v Hex) Hex { return Hex{Q: h.Q - v.Q, R: h.R - v.R} }

// Scale returns h scaled by k.
func (h Hex) Scale(k int32) Hex { return Hex{Q: h.Q * k, R: h.R * k} }

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Length returns the hex distance from the origin.
func (h Hex) Length() int32 {
	return (abs32(h.Q) + abs32(h.R) + abs32(h.S())) / 2
}

// Dist returns the hex distance between h and other.
func (h Hex) Dist(other Hex) int32 {
	return h.Sub(other).Length()
}

// Neighbor returns the hex adjacent to h in direction d.
func (h Hex) Neighbor(d Direction) Hex {
	return h.Add(d.Hex())
}

// Compare orders two hexes by their Z-order (Morton order) over an
// excess-2^31 encoding of (q, r). It implements a total order usable as the
// Cmp function for sorted containers.
func Compare(a, b Hex) int {
	return cmp.Compare(zOrder(a), zOrder(b))
}

// Less reports whether a sorts before b in Z-order.
func Less(a, b Hex) bool {
	return zOrder(a) < zOrder(b)
}

// excess maps a signed 32-bit integer to its excess-2^31 unsigned
// representation, preserving order: i32::MIN -> 0, -1 -> 0x7FFFFFFF,
// 0 -> 0x80000000, i32::MAX -> 0xFFFFFFFF.
func excess(v int32) uint32 {
	return uint32(v) ^ (1 << 31)
}

// z2 interleaves the bits of x and y (x in even bit positions, y in odd
// bit positions) to produce a 2-D Z-order / Morton code.
func z2(x, y uint32) uint64 {
	var z uint64
	for i := uint32(0); i < 32; i++ {
		z |= (uint64(x) & (1 << i)) << i
		z |= (uint64(y) & (1 << i)) << (i + 1)
	}
	return z
}

func zOrder(h Hex) uint64 {
	return z2(excess(h.Q), excess(h.R))
}
