package audio

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// ----- Window ----- //

// hanCoefficients returns a periodic Hann window of length n.
func hanCoefficients(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
	}
	return w
}

// applyWindow multiplies data by coeffs in place. Both have the same length.
func applyWindow(data []float64, coeffs []float64) {
	vecmath.MulBlockInPlace(data, coeffs)
}
