package motor

import (
	"fmt"
	"math"
)

// Direction is the rotation a motor is driven in.
type Direction int

// Directions. A motor commanded to exactly zero is Stopped: neither of its
// direction pins is driven, so the bridge coasts.
const (
	Stopped Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Stopped:
		return "stopped"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DirectionOf returns the direction selected by the sign of speed.
func DirectionOf(speed float64) Direction {
	switch {
	case speed > 0:
		return Forward
	case speed < 0:
		return Backward
	default:
		return Stopped
	}
}

// Decompose splits a signed speed into its direction and magnitude.
func Decompose(speed float64) (Direction, float64) {
	dir := DirectionOf(speed)
	if dir == Stopped {
		return Stopped, 0
	}
	return dir, math.Abs(speed)
}
