// Package windowing provides the tapering functions used by the analysis chain
// and cached tables of them.
package windowing

import (
	"math"
)

// WindowType selects a window shape
type WindowType int

const (
	WindowBlackman WindowType = iota
	WindowHamming
)

func (w WindowType) String() string {
	switch w {
	case WindowBlackman:
		return "blackman"
	case WindowHamming:
		return "hamming"
	default:
		return "unknown"
	}
}

// Coefficient returns the n-th of size coefficients of a symmetric window.
// Unknown types fall back to Hamming.
func Coefficient(kind WindowType, n, size int) float64 {
	if size <= 1 {
		return 1.0
	}

	denominator := float64(size - 1)
	arg := 2 * math.Pi * float64(n) / denominator

	switch kind {
	case WindowBlackman:
		return 0.42 - 0.5*math.Cos(arg) + 0.08*math.Cos(2*arg)
	default:
		return 0.54 - 0.46*math.Cos(arg)
	}
}

// Gaussian returns exp(-(n - size/2)^2 / (2 sigma^2)). size/2 is an integer division.
func Gaussian(n, size int, sigma float64) float64 {
	d := float64(n - size/2)
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// Convolve returns the centred convolution of input with kernel, treating
// samples beyond either end of input as zero. Each product is divided by the
// kernel length, so a kernel of ones yields a moving average.
func Convolve(input, kernel []float64) []float64 {
	convolved := make([]float64, len(input))
	if len(kernel) == 0 {
		return convolved
	}

	padding := len(kernel) / 2
	scale := float64(len(kernel))

	for sample := range input {
		sum := 0.0
		for k, w := range kernel {
			frm := sample - padding + k
			if frm >= 0 && frm < len(input) {
				sum += input[frm] * w / scale
			}
		}
		convolved[sample] = sum
	}

	return convolved
}
