package engine

import (
	"strings"

	"github.com/scalliony/hexsim/internal/genstore"
	"github.com/scalliony/hexsim/internal/grid"
	"github.com/scalliony/hexsim/internal/hex"
)

// puaBase is the start of the Private-Use-Area code point range used to
// encode a BotId's four big-endian 16-bit chunks (spec.md §6).
const puaBase = 0xE000

// CellRange is the compact wire encoding of a contiguous hex disk: a
// {center, rad} pair plus one glyph per hex in center.Range(rad) order.
type CellRange struct {
	Center hex.Hex
	Rad    int32
	Glyphs string
}

// EncodeCellRange serializes every cell in center.Range(rad), in range
// iteration order, into the glyph encoding described in spec.md §6:
// ' ' for Ground, 'x' for Wall, and 'b' followed by four PUA code points
// for an occupying BotId.
func EncodeCellRange(g *grid.Grid, center hex.Hex, rad int32) CellRange {
	hexes := hex.Range(center, rad)
	var sb strings.Builder
	for _, h := range hexes {
		c := g.Get(h)
		switch c.Kind {
		case grid.Ground:
			sb.WriteByte(' ')
		case grid.Wall:
			sb.WriteByte('x')
		case grid.Occupied:
			sb.WriteByte('b')
			writePackedID(&sb, c.Bot.Pack())
		}
	}
	return CellRange{Center: center, Rad: rad, Glyphs: sb.String()}
}

func writePackedID(sb *strings.Builder, v uint64) {
	for shift := 48; shift >= 0; shift -= 16 {
		chunk := uint16(v >> uint(shift))
		sb.WriteRune(rune(puaBase + chunk))
	}
}

// Decode reconstructs the per-hex Cell mapping described by a CellRange,
// in the same center.Range(rad) order it was produced in (round-trips
// with EncodeCellRange, per spec.md's R1 property).
func (r CellRange) Decode() map[hex.Hex]grid.Cell {
	out := make(map[hex.Hex]grid.Cell, len(r.Glyphs))
	hexes := hex.Range(r.Center, r.Rad)
	runes := []rune(r.Glyphs)
	ri := 0
	for _, h := range hexes {
		if ri >= len(runes) {
			break
		}
		switch runes[ri] {
		case ' ':
			out[h] = grid.Cell{Kind: grid.Ground}
			ri++
		case 'x':
			out[h] = grid.Cell{Kind: grid.Wall}
			ri++
		case 'b':
			ri++
			var v uint64
			for i := 0; i < 4 && ri < len(runes); i++ {
				v = v<<16 | uint64(uint16(runes[ri]-puaBase))
				ri++
			}
			out[h] = grid.OccupiedBy(genstore.Unpack(v))
		default:
			ri++
		}
	}
	return out
}
