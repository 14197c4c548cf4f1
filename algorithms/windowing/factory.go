package windowing

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// TemporalWindowFactory hands out shared Blackman tables, one per frame size.
// It is safe for concurrent use.
type TemporalWindowFactory struct {
	windows common.Cache[int, *Blackman]
	logger  logging.Logger
}

// NewTemporalWindowFactory creates an empty factory. A nil logger selects the
// global logger.
func NewTemporalWindowFactory(logger logging.Logger) *TemporalWindowFactory {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &TemporalWindowFactory{logger: logger}
}

// Get returns the Blackman window for frameSize, building it on first use
func (f *TemporalWindowFactory) Get(frameSize int) (*Blackman, error) {
	return f.windows.GetOrBuild(frameSize, func() (*Blackman, error) {
		if frameSize < 1 {
			return nil, errors.Wrapf(common.ErrInvalidConfig, "window size must be > 0, got %d", frameSize)
		}
		f.logger.Debug("building temporal window", logging.Fields{
			"frame_size": frameSize,
		})
		return NewBlackman(frameSize), nil
	})
}

// Len returns the number of cached windows
func (f *TemporalWindowFactory) Len() int {
	return f.windows.Len()
}
