//go:build fastmath

package pitch

import "github.com/meko-christian/algo-approx"

// formantLog computes the natural logarithm using a fast approximation.
func formantLog(x float64) float64 {
	return approx.FastLog(x)
}

// formantExp computes e^x using a fast approximation.
func formantExp(x float64) float64 {
	return approx.FastExp(x)
}
