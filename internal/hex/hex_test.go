package hex

import (
	"sort"
	"testing"
)

func TestLengthAndDist(t *testing.T) {
	cases := []struct {
		a, b Hex
		want int32
	}{
		{New(0, 0), New(0, 0), 0},
		{New(0, 0), New(3, 0), 3},
		{New(0, 0), New(-2, -2), 4},
		{New(1, -1), New(-1, 1), 2},
	}
	for _, c := range cases {
		if got := c.a.Dist(c.b); got != c.want {
			t.Errorf("Dist(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNeighbor(t *testing.T) {
	h := New(0, 0)
	for _, d := range Directions() {
		n := h.Neighbor(d)
		if n.Dist(h) != 1 {
			t.Errorf("neighbor(%v) = %v, dist %d, want 1", d, n, n.Dist(h))
		}
	}
}

func TestDirectionAngleRoundTrip(t *testing.T) {
	// R2: (d + a) - d = a for all directions d and angles a.
	for _, d := range Directions() {
		for a := Front; a <= Left; a++ {
			if got := d.Add(a).Sub(d); got != a {
				t.Errorf("(%v + %v) - %v = %v, want %v", d, a, d, got, a)
			}
		}
	}
}

func TestNeg(t *testing.T) {
	for _, d := range Directions() {
		if got := d.Neg().Neg(); got != d {
			t.Errorf("Neg(Neg(%v)) = %v, want %v", d, got, d)
		}
		if d.Hex().Add(d.Neg().Hex()) != (Hex{}) {
			t.Errorf("%v and its negation are not opposite unit vectors", d)
		}
	}
}

func TestRangeCount(t *testing.T) {
	// P7: range(rad).count() = 3*rad*(rad+1)+1.
	for rad := int32(0); rad <= 8; rad++ {
		got := Range(New(0, 0), rad)
		want := RangeLen(rad)
		if len(got) != want {
			t.Errorf("Range(rad=%d) len = %d, want %d", rad, len(got), want)
		}
		for _, h := range got {
			if h.Dist(New(0, 0)) > rad {
				t.Errorf("Range(rad=%d) produced %v outside radius", rad, h)
			}
		}
	}
}

func TestRangeDedup(t *testing.T) {
	got := Range(New(2, -3), 3)
	seen := make(map[Hex]bool, len(got))
	for _, h := range got {
		if seen[h] {
			t.Fatalf("Range produced duplicate hex %v", h)
		}
		seen[h] = true
	}
}

func TestZOrderMatchesSortedOrder(t *testing.T) {
	// Sorting the hexes of center.Range(rad) with Less gives the same order
	// as sorting them by their raw Z-order key.
	const rad = 4
	ranged := Range(New(0, 0), rad)

	sorted := append([]Hex(nil), ranged...)
	sort.Slice(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })

	byZ := append([]Hex(nil), ranged...)
	sort.Slice(byZ, func(i, j int) bool { return zOrder(byZ[i]) < zOrder(byZ[j]) })

	for i := range sorted {
		if sorted[i] != byZ[i] {
			t.Fatalf("sort mismatch at %d: %v != %v", i, sorted[i], byZ[i])
		}
	}
}

func TestCompareTotalOrder(t *testing.T) {
	a, b, c := New(-5, 2), New(0, 0), New(5, -5)
	if Compare(a, a) != 0 {
		t.Errorf("Compare(a, a) != 0")
	}
	if Compare(a, b) == 0 && a != b {
		t.Errorf("Compare treated distinct hexes as equal")
	}
	_ = c
}
