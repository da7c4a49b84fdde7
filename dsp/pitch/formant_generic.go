//go:build !fastmath

package pitch

import "math"

// formantLog computes the natural logarithm using standard library math.
func formantLog(x float64) float64 {
	return math.Log(x)
}

// formantExp computes e^x using standard library math.
func formantExp(x float64) float64 {
	return math.Exp(x)
}
