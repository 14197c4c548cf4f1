package filters

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/spectral"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/windowing"
)

// LowPassFilter is a linear-phase FIR low-pass filter designed by the window
// method.
//
// The ideal brick-wall response is specified in the frequency domain, turned
// into an impulse response with an inverse transform, truncated to order+1
// taps centred on time zero and tapered with a Hamming window.
//
// Reference: Tony Fisher, mkfilter, http://www-users.cs.york.ac.uk/~fisher/mkfilter/
//
// A LowPassFilter is immutable once built and may be shared between
// goroutines; per-run state lives in the caller's DelayLine.
type LowPassFilter struct {
	order           int
	delay           int // always order/2
	frameRate       int
	cornerFrequency float64
	frameSize       int
	gain            float64
	coefficients    []float64
}

// NewLowPassFilter designs a low-pass filter.
//
// Parameters:
//   - order: number of taps minus one; must be even and <= frameSize/4
//   - frameRate: sample rate of the audio it will filter, in Hz
//   - cornerFrequency: -6dB point in Hz
//   - frameSize: transform size used to synthesise the impulse response
func NewLowPassFilter(order, frameRate int, cornerFrequency float64, frameSize int) (*LowPassFilter, error) {
	if order < 2 || order%2 != 0 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "filter order must be a positive even number, got %d", order)
	}
	if frameSize < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "filter frame size must be > 0, got %d", frameSize)
	}
	if order > frameSize/4 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "filter order (%d) must be <= frame size / 4 (%d)", order, frameSize/4)
	}
	if frameRate < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "frame rate must be > 0, got %d", frameRate)
	}
	if !(cornerFrequency > 0) {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "corner frequency must be > 0, got %v", cornerFrequency)
	}

	lpf := &LowPassFilter{
		order:           order,
		delay:           order / 2,
		frameRate:       frameRate,
		cornerFrequency: cornerFrequency,
		frameSize:       frameSize,
	}

	if err := lpf.computeCoefficients(); err != nil {
		return nil, err
	}
	return lpf, nil
}

// computeCoefficients synthesises the impulse response
func (lpf *LowPassFilter) computeCoefficients() error {
	ifft, err := spectral.NewInverseTransform(lpf.frameSize)
	if err != nil {
		return err
	}

	cutoffPoint := lpf.cornerFrequency / float64(lpf.frameRate)

	// passband amplitude is irrelevant, the gain normalises it away
	tau := 0.5 / cutoffPoint
	for i := 0; i <= lpf.frameSize/2; i++ {
		input := 0.0
		if float64(i)/float64(lpf.frameSize) <= cutoffPoint {
			input = tau
		}
		if err := ifft.SetInput(i, input, 0.0); err != nil {
			return err
		}
		if i > 0 {
			if err := ifft.SetInput(lpf.frameSize-i, input, 0.0); err != nil {
				return err
			}
		}
	}

	ifft.Execute()

	impulseLength := lpf.order + 1
	taper := windowing.NewHamming(impulseLength).GetCoefficients()

	lpf.coefficients = make([]float64, impulseLength)
	lpf.gain = 0.0
	for i := range impulseLength {
		// the response is centred on index 0, so the taps wrap around the end
		index := (lpf.frameSize - lpf.delay + i) % lpf.frameSize
		coeff, err := ifft.Output(index)
		if err != nil {
			return err
		}
		coeff *= taper[i]
		lpf.coefficients[i] = coeff
		lpf.gain += coeff
	}

	if lpf.gain == 0 || !common.AllFinite(lpf.coefficients) {
		return errors.Wrapf(common.ErrInvalidConfig,
			"degenerate filter for corner %v Hz at %d Hz", lpf.cornerFrequency, lpf.frameRate)
	}
	return nil
}

// Filter filters mono audio in place.
//
// line holds the filter state and must be exactly ImpulseLength samples long;
// it is cleared before use. With shortcutFactor > 1 only every
// shortcutFactor-th output sample is computed and written, packed so that a
// later shortcut Downsample by the same factor picks exactly those samples.
func (lpf *LowPassFilter) Filter(buf *common.SampleBuffer, line *common.DelayLine, shortcutFactor int) error {
	if buf.Channels() > 1 {
		return errors.Wrapf(common.ErrPrecondition, "low-pass filter takes mono audio only, got %d channels", buf.Channels())
	}
	if shortcutFactor < 1 {
		return errors.Wrapf(common.ErrInvalidConfig, "shortcut factor must be > 0, got %d", shortcutFactor)
	}
	if line == nil || line.Size() != len(lpf.coefficients) {
		return errors.Wrapf(common.ErrPrecondition, "delay line must hold %d samples", len(lpf.coefficients))
	}

	line.Clear()
	buf.ResetCursors()

	sampleCount := buf.SampleCount()
	for inSample := 0; inSample < sampleCount+lpf.delay; inSample++ {
		// zero pad once we're past the end of the stream
		value, ok := buf.ReadNext()
		if ok {
			line.Push(value / lpf.gain)
		} else {
			line.Push(0.0)
		}

		outSample := inSample - lpf.delay
		if outSample < 0 || outSample%shortcutFactor != 0 {
			continue
		}
		if err := buf.WriteNext(line.Dot(lpf.coefficients), shortcutFactor); err != nil {
			return err
		}
	}

	return nil
}

// Order returns the filter order
func (lpf *LowPassFilter) Order() int {
	return lpf.order
}

// Delay returns the group delay in samples
func (lpf *LowPassFilter) Delay() int {
	return lpf.delay
}

// Gain returns the sum of the coefficients
func (lpf *LowPassFilter) Gain() float64 {
	return lpf.gain
}

// ImpulseLength returns the number of taps, order+1
func (lpf *LowPassFilter) ImpulseLength() int {
	return len(lpf.coefficients)
}

// GetCoefficients returns a copy of the filter taps
func (lpf *LowPassFilter) GetCoefficients() []float64 {
	coeffs := make([]float64, len(lpf.coefficients))
	copy(coeffs, lpf.coefficients)
	return coeffs
}
