package common

import (
	"github.com/pkg/errors"
)

// DelayLine is a fixed-length circular buffer of the most recent samples,
// used as the state of an FIR filter.
type DelayLine struct {
	buffer   []float64
	size     int
	writePos int // always the position of the oldest sample
}

// NewDelayLine creates a zeroed delay line holding size samples
func NewDelayLine(size int) (*DelayLine, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "delay line size must be > 0, got %d", size)
	}
	return &DelayLine{
		buffer: make([]float64, size),
		size:   size,
	}, nil
}

// Push overwrites the oldest sample with input
func (dl *DelayLine) Push(input float64) {
	dl.buffer[dl.writePos] = input
	dl.writePos++
	if dl.writePos == dl.size {
		dl.writePos = 0
	}
}

// Dot returns the sum of coefficients[k] times the k-th oldest sample.
// len(coefficients) must equal Size.
func (dl *DelayLine) Dot(coefficients []float64) float64 {
	sum := 0.0
	pos := dl.writePos
	for _, c := range coefficients {
		sum += c * dl.buffer[pos]
		pos++
		if pos == dl.size {
			pos = 0
		}
	}
	return sum
}

// Size returns the number of samples held
func (dl *DelayLine) Size() int {
	return dl.size
}

// Clear zeroes the delay line
func (dl *DelayLine) Clear() {
	for i := range dl.buffer {
		dl.buffer[i] = 0.0
	}
	dl.writePos = 0
}
