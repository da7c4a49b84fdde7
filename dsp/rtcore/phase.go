package rtcore

import "math"

// WrapPhase wraps x to the principal value range (-pi, pi].
func WrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	if x == 0 {
		return math.Pi
	}

	return x - math.Pi
}
