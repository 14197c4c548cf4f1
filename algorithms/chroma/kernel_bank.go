package chroma

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// KernelBank folds a magnitude spectrum into BandCount chroma bands.
//
// Each band owns a raised-cosine kernel over a contiguous run of spectral
// bins centred on the band frequency, a direct spectral kernel that closely
// models a constant-Q transform. Kernel width is proportional to the band
// frequency. A KernelBank is immutable and may be shared.
type KernelBank struct {
	frameRate int
	frameSize int
	offsets   [BandCount]int       // first spectral bin of each kernel
	kernels   [BandCount][]float64 // weights starting at offsets[i]
	span      int                  // one past the highest bin any kernel reads
}

// QFactor returns the kernel width as a fraction of the band frequency
func QFactor() float64 {
	return KernelStretch * (math.Pow(2, 1.0/Semitones) - 1)
}

// NewKernelBank builds the kernels for spectra of frameSize bins taken from
// audio at frameRate
func NewKernelBank(frameRate, frameSize int) (*KernelBank, error) {
	if frameRate < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "frame rate must be > 0, got %d", frameRate)
	}
	if frameSize < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "frame size must be > 0, got %d", frameSize)
	}
	if LastFrequency() > float64(frameRate)/2.0 {
		return nil, errors.Wrapf(common.ErrInvalidConfig,
			"analysis frequencies over Nyquist: %v Hz at %d Hz", LastFrequency(), frameRate)
	}
	resolution := float64(frameRate) / float64(frameSize)
	if resolution > bandFrequencies[1]-bandFrequencies[0] {
		return nil, errors.Wrapf(common.ErrInvalidConfig,
			"insufficient low-end resolution: %v Hz per bin", resolution)
	}

	kb := &KernelBank{
		frameRate: frameRate,
		frameSize: frameSize,
	}

	q := QFactor()
	for i, frequency := range bandFrequencies {
		centre := frequency * float64(frameSize) / float64(frameRate)
		width := centre * q
		begin := centre - width/2
		end := begin + width

		first := int(math.Ceil(begin))
		last := int(math.Floor(end))

		kernel := make([]float64, 0, last-first+1)
		for bin := first; bin <= last; bin++ {
			kernel = append(kernel, kernelWindow(float64(bin)-begin, width))
		}

		// normalise by sum and scale by band frequency
		sum := floats.Sum(kernel)
		if sum <= 0 {
			return nil, errors.Wrapf(common.ErrInvalidConfig, "empty kernel for band %d", i)
		}
		floats.Scale(frequency/sum, kernel)

		kb.offsets[i] = first
		kb.kernels[i] = kernel
		kb.span = max(kb.span, last+1)
	}

	return kb, nil
}

// kernelWindow is a raised cosine over [0, width]
func kernelWindow(n, width float64) float64 {
	return 1.0 - math.Cos(2*math.Pi*n/width)
}

// Apply returns the chroma vector of a magnitude spectrum indexed by bin.
// magnitudes must hold at least Span values.
func (kb *KernelBank) Apply(magnitudes []float64) ([]float64, error) {
	if len(magnitudes) < kb.span {
		return nil, errors.Wrapf(common.ErrOutOfBounds,
			"kernel bank reads %d bins, spectrum has %d", kb.span, len(magnitudes))
	}

	vector := make([]float64, BandCount)
	for i, kernel := range kb.kernels {
		offset := kb.offsets[i]
		vector[i] = floats.Dot(kernel, magnitudes[offset:offset+len(kernel)])
	}
	return vector, nil
}

// Span returns one past the highest spectral bin read by any kernel
func (kb *KernelBank) Span() int {
	return kb.span
}

// Offset returns the first spectral bin of band's kernel
func (kb *KernelBank) Offset(band int) (int, error) {
	if band < 0 || band >= BandCount {
		return 0, errors.Wrapf(common.ErrOutOfBounds, "cannot get kernel of band %d of %d", band, BandCount)
	}
	return kb.offsets[band], nil
}

// Kernel returns a copy of band's kernel weights
func (kb *KernelBank) Kernel(band int) ([]float64, error) {
	if band < 0 || band >= BandCount {
		return nil, errors.Wrapf(common.ErrOutOfBounds, "cannot get kernel of band %d of %d", band, BandCount)
	}
	kernel := make([]float64, len(kb.kernels[band]))
	copy(kernel, kb.kernels[band])
	return kernel, nil
}

// FrameRate returns the frame rate the bank was built for
func (kb *KernelBank) FrameRate() int {
	return kb.frameRate
}

// FrameSize returns the transform size the bank was built for
func (kb *KernelBank) FrameSize() int {
	return kb.frameSize
}

type bankKey struct {
	frameRate int
	frameSize int
}

// KernelBankFactory caches kernel banks by frame rate and transform size.
// It is safe for concurrent use.
type KernelBankFactory struct {
	banks  common.Cache[bankKey, *KernelBank]
	logger logging.Logger
}

// NewKernelBankFactory creates an empty factory. A nil logger selects the
// global logger.
func NewKernelBankFactory(logger logging.Logger) *KernelBankFactory {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &KernelBankFactory{logger: logger}
}

// Get returns the kernel bank for frameRate and frameSize, building it on
// first use
func (f *KernelBankFactory) Get(frameRate, frameSize int) (*KernelBank, error) {
	return f.banks.GetOrBuild(bankKey{frameRate, frameSize}, func() (*KernelBank, error) {
		f.logger.Debug("building chroma kernel bank", logging.Fields{
			"frame_rate": frameRate,
			"frame_size": frameSize,
		})
		return NewKernelBank(frameRate, frameSize)
	})
}

// Len returns the number of cached banks
func (f *KernelBankFactory) Len() int {
	return f.banks.Len()
}
