package common

import (
	"math"

	"github.com/pkg/errors"
)

// SampleBuffer is a growable store of interleaved multi-channel samples.
//
// The zero value is an empty buffer with no channel count and no frame rate;
// both are adopted from the first buffer appended or prepended to it. Once set,
// the channel count only changes through ReduceToMono and the frame rate only
// through Downsample.
//
// A SampleBuffer is owned by a single goroutine at a time.
type SampleBuffer struct {
	samples   []float64
	channels  int
	frameRate int

	// cursor indices used by in-place filters; the write index never
	// overtakes the read index
	readPos  int
	writePos int
}

// NewSampleBuffer creates an empty buffer with the given metadata
func NewSampleBuffer(channels, frameRate int) (*SampleBuffer, error) {
	b := &SampleBuffer{}
	if err := b.SetChannels(channels); err != nil {
		return nil, err
	}
	if err := b.SetFrameRate(frameRate); err != nil {
		return nil, err
	}
	return b, nil
}

// NewSampleBufferFromSamples creates a buffer holding a copy of samples
func NewSampleBufferFromSamples(samples []float64, channels, frameRate int) (*SampleBuffer, error) {
	b, err := NewSampleBuffer(channels, frameRate)
	if err != nil {
		return nil, err
	}
	if len(samples)%channels != 0 {
		return nil, errors.Wrapf(ErrInvalidConfig,
			"%d samples is not a whole number of %d-channel frames", len(samples), channels)
	}
	for i, v := range samples {
		if !isFinite(v) {
			return nil, errors.Wrapf(ErrNonFinite, "sample %d is %v", i, v)
		}
	}
	b.samples = make([]float64, len(samples))
	copy(b.samples, samples)
	return b, nil
}

// Channels returns the channel count (0 until set)
func (b *SampleBuffer) Channels() int {
	return b.channels
}

// SetChannels sets the channel count
func (b *SampleBuffer) SetChannels(channels int) error {
	if channels < 1 {
		return errors.Wrapf(ErrInvalidConfig, "channel count must be > 0, got %d", channels)
	}
	b.channels = channels
	return nil
}

// FrameRate returns the frame rate in Hz (0 until set)
func (b *SampleBuffer) FrameRate() int {
	return b.frameRate
}

// SetFrameRate sets the frame rate in Hz
func (b *SampleBuffer) SetFrameRate(frameRate int) error {
	if frameRate < 1 {
		return errors.Wrapf(ErrInvalidConfig, "frame rate must be > 0, got %d", frameRate)
	}
	b.frameRate = frameRate
	return nil
}

// SampleCount returns the number of samples across all channels
func (b *SampleBuffer) SampleCount() int {
	return len(b.samples)
}

// FrameCount returns the number of frames
func (b *SampleBuffer) FrameCount() (int, error) {
	if b.channels < 1 {
		return 0, errors.Wrap(ErrPrecondition, "frame count requires channels > 0")
	}
	return len(b.samples) / b.channels, nil
}

// Sample returns the sample at an absolute index
func (b *SampleBuffer) Sample(index int) (float64, error) {
	if index < 0 || index >= len(b.samples) {
		return 0, errors.Wrapf(ErrOutOfBounds, "cannot get sample %d of %d", index, len(b.samples))
	}
	return b.samples[index], nil
}

// SetSample sets the sample at an absolute index
func (b *SampleBuffer) SetSample(index int, value float64) error {
	if index < 0 || index >= len(b.samples) {
		return errors.Wrapf(ErrOutOfBounds, "cannot set sample %d of %d", index, len(b.samples))
	}
	if !isFinite(value) {
		return errors.Wrapf(ErrNonFinite, "cannot set sample %d to %v", index, value)
	}
	b.samples[index] = value
	return nil
}

// SampleByFrame returns the sample for a frame and channel
func (b *SampleBuffer) SampleByFrame(frame, channel int) (float64, error) {
	index, err := b.frameIndex(frame, channel)
	if err != nil {
		return 0, err
	}
	return b.samples[index], nil
}

// SetSampleByFrame sets the sample for a frame and channel
func (b *SampleBuffer) SetSampleByFrame(frame, channel int, value float64) error {
	index, err := b.frameIndex(frame, channel)
	if err != nil {
		return err
	}
	return b.SetSample(index, value)
}

func (b *SampleBuffer) frameIndex(frame, channel int) (int, error) {
	frames, err := b.FrameCount()
	if err != nil {
		return 0, err
	}
	if frame < 0 || frame >= frames {
		return 0, errors.Wrapf(ErrOutOfBounds, "cannot access frame %d of %d", frame, frames)
	}
	if channel < 0 || channel >= b.channels {
		return 0, errors.Wrapf(ErrOutOfBounds, "cannot access channel %d of %d", channel, b.channels)
	}
	return frame*b.channels + channel, nil
}

// AddToSampleCount extends the buffer with n zero samples
func (b *SampleBuffer) AddToSampleCount(n int) {
	if n <= 0 {
		return
	}
	b.samples = append(b.samples, make([]float64, n)...)
}

// AddToFrameCount extends the buffer with n zero frames
func (b *SampleBuffer) AddToFrameCount(n int) error {
	if b.channels < 1 {
		return errors.Wrap(ErrPrecondition, "adding frames requires channels > 0")
	}
	b.AddToSampleCount(n * b.channels)
	return nil
}

// Append adds that's samples after this buffer's samples
func (b *SampleBuffer) Append(that *SampleBuffer) error {
	if err := b.adoptOrMatch(that, "append"); err != nil {
		return err
	}
	if that == nil {
		return nil
	}
	b.samples = append(b.samples, that.samples...)
	return nil
}

// Prepend inserts that's samples before this buffer's samples
func (b *SampleBuffer) Prepend(that *SampleBuffer) error {
	if err := b.adoptOrMatch(that, "prepend"); err != nil {
		return err
	}
	if that == nil || len(that.samples) == 0 {
		return nil
	}
	joined := make([]float64, 0, len(that.samples)+len(b.samples))
	joined = append(joined, that.samples...)
	b.samples = append(joined, b.samples...)
	return nil
}

func (b *SampleBuffer) adoptOrMatch(that *SampleBuffer, op string) error {
	if that == nil || (that.channels == 0 && that.frameRate == 0) {
		if that != nil && len(that.samples) > 0 {
			return errors.Wrapf(ErrPrecondition, "cannot %s samples without channel metadata", op)
		}
		return nil
	}
	if that.channels > 0 && len(that.samples)%that.channels != 0 {
		return errors.Wrapf(ErrPrecondition,
			"cannot %s %d samples, not a whole number of %d-channel frames", op, len(that.samples), that.channels)
	}
	if b.channels == 0 && b.frameRate == 0 {
		b.channels = that.channels
		b.frameRate = that.frameRate
	}
	if that.channels != b.channels {
		return errors.Wrapf(ErrPrecondition, "cannot %s audio with %d channels to audio with %d", op, that.channels, b.channels)
	}
	if that.frameRate != b.frameRate {
		return errors.Wrapf(ErrPrecondition, "cannot %s audio at %d Hz to audio at %d Hz", op, that.frameRate, b.frameRate)
	}
	return nil
}

// ReduceToMono replaces each frame with the mean of its channels
func (b *SampleBuffer) ReduceToMono() {
	if b.channels < 2 {
		return
	}
	frames := len(b.samples) / b.channels
	for f := range frames {
		sum := 0.0
		for c := range b.channels {
			sum += b.samples[f*b.channels+c]
		}
		b.samples[f] = sum / float64(b.channels)
	}
	b.samples = b.samples[:frames]
	b.channels = 1
}

// Downsample reduces the frame rate of mono audio by an integer factor.
//
// With shortcut set, every factor-th sample is kept; this is only accurate when
// the signal has already been low-pass filtered. Otherwise each block of factor
// samples is replaced with its mean.
func (b *SampleBuffer) Downsample(factor int, shortcut bool) error {
	if factor < 1 {
		return errors.Wrapf(ErrInvalidConfig, "downsample factor must be > 0, got %d", factor)
	}
	if factor == 1 {
		return nil
	}
	if b.channels > 1 {
		return errors.Wrap(ErrPrecondition, "downsampling applies to mono audio only")
	}

	n := len(b.samples)
	out := 0
	for start := 0; start < n; start += factor {
		if shortcut {
			b.samples[out] = b.samples[start]
		} else {
			b.samples[out] = Mean(b.samples[start:min(start+factor, n)])
		}
		out++
	}
	b.samples = b.samples[:out]

	if b.frameRate > 0 {
		return b.SetFrameRate(b.frameRate / factor)
	}
	return nil
}

// DiscardFramesFromFront removes the first n frames
func (b *SampleBuffer) DiscardFramesFromFront(n int) error {
	frames, err := b.FrameCount()
	if err != nil {
		if n == 0 {
			return nil
		}
		return err
	}
	if n < 0 || n > frames {
		return errors.Wrapf(ErrOutOfBounds, "cannot discard %d frames of %d", n, frames)
	}
	remaining := copy(b.samples, b.samples[n*b.channels:])
	b.samples = b.samples[:remaining]
	return nil
}

// SliceSamplesFromBack removes the last n samples and returns them as a new
// buffer carrying the same metadata
func (b *SampleBuffer) SliceSamplesFromBack(n int) (*SampleBuffer, error) {
	if n < 0 || n > len(b.samples) {
		return nil, errors.Wrapf(ErrOutOfBounds, "cannot slice %d samples of %d", n, len(b.samples))
	}
	keep := len(b.samples) - n

	that := &SampleBuffer{
		channels:  b.channels,
		frameRate: b.frameRate,
		samples:   make([]float64, n),
	}
	copy(that.samples, b.samples[keep:])
	b.samples = b.samples[:keep]
	return that, nil
}

// ReadSamples copies len(dst) samples starting at start into dst
func (b *SampleBuffer) ReadSamples(start int, dst []float64) error {
	if start < 0 || start+len(dst) > len(b.samples) {
		return errors.Wrapf(ErrOutOfBounds, "cannot read samples [%d, %d) of %d", start, start+len(dst), len(b.samples))
	}
	copy(dst, b.samples[start:])
	return nil
}

// Samples returns a copy of the raw interleaved samples
func (b *SampleBuffer) Samples() []float64 {
	out := make([]float64, len(b.samples))
	copy(out, b.samples)
	return out
}

// Clone returns an independent copy of the buffer
func (b *SampleBuffer) Clone() *SampleBuffer {
	if b == nil {
		return &SampleBuffer{}
	}
	return &SampleBuffer{
		samples:   b.Samples(),
		channels:  b.channels,
		frameRate: b.frameRate,
	}
}

// ResetCursors moves the read and write cursors to the first sample
func (b *SampleBuffer) ResetCursors() {
	b.readPos = 0
	b.writePos = 0
}

// ReadNext returns the sample under the read cursor and advances it.
// ok is false once the cursor has passed the last sample.
func (b *SampleBuffer) ReadNext() (value float64, ok bool) {
	if b.readPos >= len(b.samples) {
		return 0, false
	}
	value = b.samples[b.readPos]
	b.readPos++
	return value, true
}

// WriteNext stores value under the write cursor and advances it by advance
func (b *SampleBuffer) WriteNext(value float64, advance int) error {
	if b.writePos < 0 || b.writePos >= len(b.samples) {
		return errors.Wrapf(ErrOutOfBounds, "cannot write sample %d of %d", b.writePos, len(b.samples))
	}
	if !isFinite(value) {
		return errors.Wrapf(ErrNonFinite, "cannot write %v at sample %d", value, b.writePos)
	}
	b.samples[b.writePos] = value
	b.writePos += advance
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
