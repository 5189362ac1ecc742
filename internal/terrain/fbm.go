package terrain

import "math"

const octaves = 6

// fbm is fractal Brownian motion noise built from a small stack of
// re-seeded simplex2D sources, matching the original generator's Fbm:
// each octave multiplies the frequency by lacunarity (2π/3, about 2.09) and
// the amplitude by persistence (0.5), and the accumulated result is rescaled so the
// output stays within roughly [-1, 1].
type fbm struct {
	frequency   float64
	lacunarity  float64
	persistence float64
	sources     [octaves]*simplex2D
}

func newFbm(seed uint32, frequency float64) *fbm {
	f := &fbm{
		frequency:   frequency,
		lacunarity:  2 * math.Pi / 3,
		persistence: 0.5,
	}
	for i := range f.sources {
		f.sources[i] = newSimplex2D(seed + uint32(i))
	}
	return f
}

func (f *fbm) get(x, y float64) float64 {
	var result float64
	x, y = x*f.frequency, y*f.frequency

	for i, src := range f.sources {
		signal := src.get(x, y) * math.Pow(f.persistence, float64(i))
		result += signal
		x, y = x*f.lacunarity, y*f.lacunarity
	}

	scale := 2 - math.Pow(f.persistence, float64(octaves-1))
	return result / scale
}
