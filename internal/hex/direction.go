package hex

// Direction is one of the six unit neighbors of a Hex, cyclically ordered.
type Direction uint8

const (
	Up Direction = iota
	UpRight
	DownRight
	Down
	DownLeft
	UpLeft
)

// directionUnit holds the Hex unit vector for each Direction:
//   - r increases towards Up (like y)
//   - q increases towards UpRight (like x + y/2)
var directionUnit = [6]Hex{
	{Q: 0, R: 1},
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
}

// Directions returns all six directions in their canonical order.
func Directions() [6]Direction {
	return [6]Direction{Up, UpRight, DownRight, Down, DownLeft, UpLeft}
}

// Hex returns the unit vector for d.
func (d Direction) Hex() Hex {
	return directionUnit[d%6]
}

// Add rotates d by a, wrapping modulo 6.
func (d Direction) Add(a Angle) Direction {
	return Direction((uint8(d) + uint8(a)) % 6)
}

// Sub returns the angle that rotates v into d, so that v.Add(d.Sub(v)) == d.
func (d Direction) Sub(v Direction) Angle {
	return Angle((uint8(d) + 6 - uint8(v)) % 6)
}

// Neg returns the opposite direction.
func (d Direction) Neg() Direction {
	return d.Add(Back)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case UpRight:
		return "UpRight"
	case DownRight:
		return "DownRight"
	case Down:
		return "Down"
	case DownLeft:
		return "DownLeft"
	case UpLeft:
		return "UpLeft"
	default:
		return "Direction(?)"
	}
}

// Angle is a signed rotation between Directions, in units of 60 degrees.
type Angle uint8

const (
	Front Angle = iota
	Right
	RightBack
	Back
	LeftBack
	Left
)

// Degrees returns the angle in degrees, in [0, 360).
func (a Angle) Degrees() uint16 {
	return uint16(a) * 60
}

// Add returns a+v, wrapping modulo 6.
func (a Angle) Add(v Angle) Angle {
	return Angle((uint8(a) + uint8(v)) % 6)
}

// Sub returns a-v, wrapping modulo 6.
func (a Angle) Sub(v Angle) Angle {
	return Angle((uint8(a) + 6 - uint8(v)) % 6)
}

// Scale returns a multiplied by k, wrapping modulo 6. k may be negative.
func (a Angle) Scale(k int32) Angle {
	m := (int32(a)*k)%6 + 6
	return Angle(m % 6)
}

func (a Angle) String() string {
	switch a {
	case Front:
		return "Front"
	case Right:
		return "Right"
	case RightBack:
		return "RightBack"
	case Back:
		return "Back"
	case LeftBack:
		return "LeftBack"
	case Left:
		return "Left"
	default:
		return "Angle(?)"
	}
}
