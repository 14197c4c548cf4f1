package filters

import (
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// filterKey identifies a filter design
type filterKey struct {
	order           int
	frameRate       int
	cornerFrequency float64
	frameSize       int
}

// LowPassFilterFactory caches filter designs so that every analysis at the
// same rate shares one set of coefficients. It is safe for concurrent use.
type LowPassFilterFactory struct {
	filters common.Cache[filterKey, *LowPassFilter]
	logger  logging.Logger
}

// NewLowPassFilterFactory creates an empty factory. A nil logger selects the
// global logger.
func NewLowPassFilterFactory(logger logging.Logger) *LowPassFilterFactory {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &LowPassFilterFactory{logger: logger}
}

// Get returns the filter for the given design parameters, building it on
// first use. Identical parameters always yield the same instance.
func (f *LowPassFilterFactory) Get(order, frameRate int, cornerFrequency float64, frameSize int) (*LowPassFilter, error) {
	key := filterKey{
		order:           order,
		frameRate:       frameRate,
		cornerFrequency: cornerFrequency,
		frameSize:       frameSize,
	}
	return f.filters.GetOrBuild(key, func() (*LowPassFilter, error) {
		f.logger.Debug("designing low-pass filter", logging.Fields{
			"order":            order,
			"frame_rate":       frameRate,
			"corner_frequency": cornerFrequency,
			"frame_size":       frameSize,
		})
		return NewLowPassFilter(order, frameRate, cornerFrequency, frameSize)
	})
}

// Len returns the number of cached filters
func (f *LowPassFilterFactory) Len() int {
	return f.filters.Len()
}

// Builds returns how many filter designs have been attempted
func (f *LowPassFilterFactory) Builds() int {
	return f.filters.Builds()
}
