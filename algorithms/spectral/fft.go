// Package spectral binds the discrete Fourier transform used by the analysis
// chain to third-party FFT implementations.
package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// ForwardTransform is a reusable real-to-complex transform of a fixed size.
// Input is staged with Load or SetInput, transformed by Execute, and read back
// by bin. Each session owns its own instance.
type ForwardTransform struct {
	size   int
	plan   *fourier.FFT
	input  []float64
	output []complex128 // non-redundant half, size/2+1 bins
}

// NewForwardTransform creates a forward transform plan for frames of size samples
func NewForwardTransform(size int) (*ForwardTransform, error) {
	if size < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "transform size must be > 0, got %d", size)
	}
	return &ForwardTransform{
		size:   size,
		plan:   fourier.NewFFT(size),
		input:  make([]float64, size),
		output: make([]complex128, size/2+1),
	}, nil
}

// Size returns the frame size
func (t *ForwardTransform) Size() int {
	return t.size
}

// SetInput stages one input sample
func (t *ForwardTransform) SetInput(i int, value float64) error {
	if i < 0 || i >= t.size {
		return errors.Wrapf(common.ErrOutOfBounds, "cannot set transform input %d of %d", i, t.size)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Wrapf(common.ErrNonFinite, "cannot set transform input %d to %v", i, value)
	}
	t.input[i] = value
	return nil
}

// Load stages a whole frame; len(frame) must equal Size
func (t *ForwardTransform) Load(frame []float64) error {
	if len(frame) != t.size {
		return errors.Wrapf(common.ErrInvalidConfig, "frame length (%d) doesn't match transform size (%d)", len(frame), t.size)
	}
	copy(t.input, frame)
	return nil
}

// Execute transforms the staged input. Staged input is left untouched, so
// Execute may be called again.
func (t *ForwardTransform) Execute() {
	t.plan.Coefficients(t.output, t.input)
}

// bin returns output bin i for 0 <= i < size, deriving the upper half from
// conjugate symmetry
func (t *ForwardTransform) bin(i int) (complex128, error) {
	if i < 0 || i >= t.size {
		return 0, errors.Wrapf(common.ErrOutOfBounds, "cannot get transform output %d of %d", i, t.size)
	}
	if i < len(t.output) {
		return t.output[i], nil
	}
	return cmplx.Conj(t.output[t.size-i]), nil
}

// Real returns the real part of output bin i
func (t *ForwardTransform) Real(i int) (float64, error) {
	c, err := t.bin(i)
	return real(c), err
}

// Imag returns the imaginary part of output bin i
func (t *ForwardTransform) Imag(i int) (float64, error) {
	c, err := t.bin(i)
	return imag(c), err
}

// Magnitude returns the modulus of output bin i
func (t *ForwardTransform) Magnitude(i int) (float64, error) {
	c, err := t.bin(i)
	return cmplx.Abs(c), err
}

// Magnitudes writes the moduli of the size/2+1 non-redundant bins into dst,
// allocating it when nil or too short
func (t *ForwardTransform) Magnitudes(dst []float64) []float64 {
	if len(dst) < len(t.output) {
		dst = make([]float64, len(t.output))
	}
	dst = dst[:len(t.output)]
	for i, c := range t.output {
		dst[i] = cmplx.Abs(c)
	}
	return dst
}

// InverseTransform is a complex-to-real transform of a fixed size whose output
// is normalised by the size, so that a forward and inverse pass round-trip.
type InverseTransform struct {
	size   int
	input  []complex128
	output []float64
}

// NewInverseTransform creates an inverse transform for size bins
func NewInverseTransform(size int) (*InverseTransform, error) {
	if size < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "transform size must be > 0, got %d", size)
	}
	return &InverseTransform{
		size:   size,
		input:  make([]complex128, size),
		output: make([]float64, size),
	}, nil
}

// Size returns the number of bins
func (t *InverseTransform) Size() int {
	return t.size
}

// SetInput stages bin i
func (t *InverseTransform) SetInput(i int, re, im float64) error {
	if i < 0 || i >= t.size {
		return errors.Wrapf(common.ErrOutOfBounds, "cannot set inverse transform input %d of %d", i, t.size)
	}
	t.input[i] = complex(re, im)
	return nil
}

// Execute runs the inverse transform and keeps the real part of the result
func (t *InverseTransform) Execute() {
	result := fft.IFFT(t.input)
	for i, val := range result {
		t.output[i] = real(val)
	}
}

// Output returns output sample i
func (t *InverseTransform) Output(i int) (float64, error) {
	if i < 0 || i >= t.size {
		return 0, errors.Wrapf(common.ErrOutOfBounds, "cannot get inverse transform output %d of %d", i, t.size)
	}
	return t.output[i], nil
}
