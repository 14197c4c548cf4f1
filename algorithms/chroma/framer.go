package chroma

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/spectral"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/windowing"
)

// SpectrumFramer slices mono audio into overlapping windowed frames and turns
// each frame into one chromagram hop. Frames advance by a quarter of the
// frame size.
type SpectrumFramer struct {
	frameSize int
	hopSize   int
	bank      *KernelBank
	window    *windowing.Blackman
}

// NewSpectrumFramer resolves the shared kernel bank and window for audio at
// frameRate analysed in frames of frameSize samples
func NewSpectrumFramer(frameRate, frameSize int, banks *KernelBankFactory, windows *windowing.TemporalWindowFactory) (*SpectrumFramer, error) {
	if frameSize < 4 || frameSize%4 != 0 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "frame size must be a positive multiple of 4, got %d", frameSize)
	}
	bank, err := banks.Get(frameRate, frameSize)
	if err != nil {
		return nil, err
	}
	window, err := windows.Get(frameSize)
	if err != nil {
		return nil, err
	}
	return &SpectrumFramer{
		frameSize: frameSize,
		hopSize:   frameSize / 4,
		bank:      bank,
		window:    window,
	}, nil
}

// HopSize returns the distance in samples between successive frames
func (sf *SpectrumFramer) HopSize() int {
	return sf.hopSize
}

// FrameSize returns the samples per frame
func (sf *SpectrumFramer) FrameSize() int {
	return sf.frameSize
}

// HopCount returns the number of whole frames in sampleCount samples
func (sf *SpectrumFramer) HopCount(sampleCount int) int {
	if sampleCount < sf.frameSize {
		return 0
	}
	return (sampleCount-sf.frameSize)/sf.hopSize + 1
}

// ChromagramOfWholeFrames computes one hop per whole frame in buf. Samples are
// only read; callers discard the consumed HopCount*HopSize samples themselves.
func (sf *SpectrumFramer) ChromagramOfWholeFrames(buf *common.SampleBuffer, transform *spectral.ForwardTransform) (*Chromagram, error) {
	if buf.Channels() > 1 {
		return nil, errors.Wrapf(common.ErrPrecondition, "framing takes mono audio only, got %d channels", buf.Channels())
	}
	if transform.Size() != sf.frameSize {
		return nil, errors.Wrapf(common.ErrInvalidConfig,
			"transform size (%d) doesn't match frame size (%d)", transform.Size(), sf.frameSize)
	}

	hops := sf.HopCount(buf.SampleCount())
	chromagram, err := NewChromagram(hops)
	if err != nil {
		return nil, err
	}

	frame := make([]float64, sf.frameSize)
	var magnitudes []float64
	for hop := range hops {
		if err := buf.ReadSamples(hop*sf.hopSize, frame); err != nil {
			return nil, err
		}
		if err := sf.window.ApplyInPlace(frame); err != nil {
			return nil, err
		}
		if err := transform.Load(frame); err != nil {
			return nil, err
		}
		transform.Execute()

		magnitudes, err = sf.spectrum(transform, magnitudes)
		if err != nil {
			return nil, err
		}
		vector, err := sf.bank.Apply(magnitudes)
		if err != nil {
			return nil, err
		}
		if err := chromagram.SetHop(hop, vector); err != nil {
			return nil, err
		}
	}

	return chromagram, nil
}

// spectrum returns the magnitudes the kernel bank reads, extending past the
// non-redundant half when a kernel reaches beyond it
func (sf *SpectrumFramer) spectrum(transform *spectral.ForwardTransform, dst []float64) ([]float64, error) {
	magnitudes := transform.Magnitudes(dst)
	for bin := len(magnitudes); bin < sf.bank.Span(); bin++ {
		m, err := transform.Magnitude(bin)
		if err != nil {
			return nil, err
		}
		magnitudes = append(magnitudes, m)
	}
	return magnitudes, nil
}
