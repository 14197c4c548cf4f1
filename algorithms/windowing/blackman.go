package windowing

import (
	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// Blackman represents a symmetric Blackman window function table.
// Used as the temporal window of every analysis frame.
type Blackman struct {
	size         int
	coefficients []float64
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int) *Blackman {
	return &Blackman{
		size:         size,
		coefficients: window.Blackman(size),
	}
}

// ApplyInPlace applies the window to a signal in-place
func (b *Blackman) ApplyInPlace(signal []float64) error {
	if len(signal) != b.size {
		return errors.Wrapf(common.ErrInvalidConfig, "signal length (%d) doesn't match window size (%d)", len(signal), b.size)
	}

	for i := range b.size {
		signal[i] *= b.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (b *Blackman) GetCoefficients() []float64 {
	coeffs := make([]float64, len(b.coefficients))
	copy(coeffs, b.coefficients)
	return coeffs
}

// GetSize returns the window size
func (b *Blackman) GetSize() int {
	return b.size
}

// GetType returns the window type
func (b *Blackman) GetType() string {
	return WindowBlackman.String()
}
