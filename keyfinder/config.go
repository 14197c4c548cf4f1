package keyfinder

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// Config holds the analysis parameters of a KeyFinder
type Config struct {
	// Spectral analysis
	FrameSize int `json:"frame_size"` // samples per transform frame; hops are a quarter of this

	// Preprocessing
	FilterOrder           int     `json:"filter_order"`            // FIR taps minus one, even
	FilterFrameSize       int     `json:"filter_frame_size"`       // transform size used to design the filter
	LowpassCutoffRatio    float64 `json:"lowpass_cutoff_ratio"`    // filter corner relative to the highest band
	DownsampleCutoffRatio float64 `json:"downsample_cutoff_ratio"` // post-downsample Nyquist floor relative to the highest band
	ShortcutDownsample    bool    `json:"shortcut_downsample"`     // only compute the filter outputs that survive downsampling

	// Logger overrides the global logger when set
	Logger logging.Logger `json:"-"`
}

// DefaultConfig returns the standard analysis configuration
func DefaultConfig() *Config {
	return &Config{
		FrameSize:             16384,
		FilterOrder:           160,
		FilterFrameSize:       2048,
		LowpassCutoffRatio:    1.012,
		DownsampleCutoffRatio: 1.10,
		ShortcutDownsample:    true,
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.FrameSize < 4 || c.FrameSize%4 != 0 {
		return errors.Wrapf(common.ErrInvalidConfig, "frame size must be a positive multiple of 4, got %d", c.FrameSize)
	}
	if c.FilterFrameSize < 1 {
		return errors.Wrapf(common.ErrInvalidConfig, "filter frame size must be > 0, got %d", c.FilterFrameSize)
	}
	if c.FilterOrder < 2 || c.FilterOrder%2 != 0 {
		return errors.Wrapf(common.ErrInvalidConfig, "filter order must be a positive even number, got %d", c.FilterOrder)
	}
	if c.FilterOrder > c.FilterFrameSize/4 {
		return errors.Wrapf(common.ErrInvalidConfig,
			"filter order (%d) must be <= filter frame size / 4 (%d)", c.FilterOrder, c.FilterFrameSize/4)
	}
	if !(c.LowpassCutoffRatio > 0) {
		return errors.Wrapf(common.ErrInvalidConfig, "lowpass cutoff ratio must be > 0, got %v", c.LowpassCutoffRatio)
	}
	if !(c.DownsampleCutoffRatio > 0) {
		return errors.Wrapf(common.ErrInvalidConfig, "downsample cutoff ratio must be > 0, got %v", c.DownsampleCutoffRatio)
	}
	return nil
}
