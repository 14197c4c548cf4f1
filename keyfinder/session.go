package keyfinder

import (
	"math"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/spectral"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/tonal"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// Session is the state of one progressive analysis.
//
// Audio that does not yet fill a whole downsampling block is held in the
// remainder; downsampled audio that does not yet fill a whole frame is held in
// the preprocessed buffer. Both carry over to the next Ingest. A Session must
// not be used from more than one goroutine at a time.
type Session struct {
	remainder    *common.SampleBuffer
	preprocessed *common.SampleBuffer
	chromagram   *chroma.Chromagram

	// created on first use
	transform *spectral.ForwardTransform
	delayLine *common.DelayLine

	finished bool
}

// NewSession creates an empty session
func NewSession() *Session {
	c, _ := chroma.NewChromagram(0)
	return &Session{
		remainder:    &common.SampleBuffer{},
		preprocessed: &common.SampleBuffer{},
		chromagram:   c,
	}
}

// Chromagram returns the chromagram accumulated so far. It is owned by the
// session and must not be modified.
func (s *Session) Chromagram() *chroma.Chromagram {
	return s.chromagram
}

// Finished reports whether Finish has been called
func (s *Session) Finished() bool {
	return s.finished
}

// PendingSamples returns how many samples are buffered but not yet part of a
// chromagram hop: the raw remainder plus the preprocessed tail
func (s *Session) PendingSamples() int {
	return s.remainder.SampleCount() + s.preprocessed.SampleCount()
}

// Ingest feeds a chunk of audio into s. The chunk is copied and not modified.
// Chunks must share a frame rate and channel count.
func (kf *KeyFinder) Ingest(s *Session, chunk *common.SampleBuffer) error {
	if s.finished {
		return errors.Wrap(common.ErrPrecondition, "cannot ingest audio into a finished session")
	}
	if chunk != nil && chunk.Channels() > 0 && chunk.SampleCount()%chunk.Channels() != 0 {
		return errors.Wrapf(common.ErrPrecondition,
			"chunk of %d samples is not a whole number of %d-channel frames", chunk.SampleCount(), chunk.Channels())
	}
	return kf.ingest(s, chunk, false)
}

func (kf *KeyFinder) ingest(s *Session, chunk *common.SampleBuffer, flush bool) error {
	buf := chunk.Clone()
	buf.ReduceToMono()

	// pick up where the last chunk left off
	if s.remainder.Channels() > 0 {
		if err := buf.Prepend(s.remainder); err != nil {
			return errors.Wrap(err, "failed to join remainder")
		}
		s.remainder = &common.SampleBuffer{}
	}

	if buf.SampleCount() == 0 {
		return nil
	}
	if buf.FrameRate() < 1 {
		return errors.Wrap(common.ErrPrecondition, "audio has no frame rate")
	}

	lastFrequency := chroma.LastFrequency()
	frameRate := buf.FrameRate()

	downsampleCutoff := kf.config.DownsampleCutoffRatio * lastFrequency
	downsampleFactor := int(math.Floor(float64(frameRate) / 2.0 / downsampleCutoff))
	if downsampleFactor < 1 {
		return errors.Wrapf(common.ErrInvalidConfig,
			"frame rate %d Hz is too low to analyse up to %v Hz", frameRate, downsampleCutoff)
	}

	// hold back a partial downsampling block for next time
	if !flush {
		remainder, err := buf.SliceSamplesFromBack(buf.SampleCount() % downsampleFactor)
		if err != nil {
			return err
		}
		s.remainder = remainder
	}

	lpf, err := kf.filters.Get(kf.config.FilterOrder, frameRate,
		kf.config.LowpassCutoffRatio*lastFrequency, kf.config.FilterFrameSize)
	if err != nil {
		return err
	}
	if s.delayLine == nil || s.delayLine.Size() != lpf.ImpulseLength() {
		s.delayLine, err = common.NewDelayLine(lpf.ImpulseLength())
		if err != nil {
			return err
		}
	}

	shortcutFactor := 1
	if kf.config.ShortcutDownsample {
		shortcutFactor = downsampleFactor
	}
	if err := lpf.Filter(buf, s.delayLine, shortcutFactor); err != nil {
		return errors.Wrap(err, "failed to filter audio")
	}
	if err := buf.Downsample(downsampleFactor, kf.config.ShortcutDownsample); err != nil {
		return errors.Wrap(err, "failed to downsample audio")
	}

	if err := s.preprocessed.Append(buf); err != nil {
		return errors.Wrap(err, "failed to buffer preprocessed audio")
	}

	kf.logger.Debug("ingested audio", logging.Fields{
		"frame_rate":        frameRate,
		"downsample_factor": downsampleFactor,
		"remainder":         s.remainder.SampleCount(),
		"flush":             flush,
	})

	return kf.chromagramOfBufferedAudio(s)
}

// chromagramOfBufferedAudio turns every whole frame of preprocessed audio into
// chromagram hops and drops the samples no later frame will need
func (kf *KeyFinder) chromagramOfBufferedAudio(s *Session) error {
	if s.preprocessed.FrameRate() == 0 {
		return nil
	}

	if s.transform == nil {
		transform, err := spectral.NewForwardTransform(kf.config.FrameSize)
		if err != nil {
			return err
		}
		s.transform = transform
	}

	framer, err := chroma.NewSpectrumFramer(s.preprocessed.FrameRate(), kf.config.FrameSize, kf.banks, kf.windows)
	if err != nil {
		return err
	}

	c, err := framer.ChromagramOfWholeFrames(s.preprocessed, s.transform)
	if err != nil {
		return err
	}
	if err := s.preprocessed.DiscardFramesFromFront(c.Hops() * framer.HopSize()); err != nil {
		return err
	}
	s.chromagram.Append(c)

	if c.Hops() > 0 {
		kf.logger.Debug("accumulated chromagram hops", logging.Fields{
			"hops":  c.Hops(),
			"total": s.chromagram.Hops(),
		})
	}
	return nil
}

// Finish flushes all buffered audio through the pipeline, zero-padding the
// final partial frame, and returns the key of the whole session. Calling
// Finish again reclassifies without further processing.
func (kf *KeyFinder) Finish(s *Session) (tonal.Key, error) {
	if !s.finished {
		if s.remainder.SampleCount() > 0 {
			if err := kf.ingest(s, &common.SampleBuffer{}, true); err != nil {
				return tonal.Silence, err
			}
		}

		// pad to the end of the last hop that touches real audio
		if n := s.preprocessed.SampleCount(); n > 0 {
			hopSize := kf.config.FrameSize / 4
			hops := (n + hopSize - 1) / hopSize
			padded := kf.config.FrameSize + (hops-1)*hopSize
			s.preprocessed.AddToSampleCount(padded - n)

			if err := kf.chromagramOfBufferedAudio(s); err != nil {
				return tonal.Silence, err
			}
		}
		s.finished = true
	}

	key, err := kf.KeyOfChromagram(s)
	if err != nil {
		return tonal.Silence, err
	}

	kf.logger.Debug("classified session", logging.Fields{
		"key":  key.String(),
		"hops": s.chromagram.Hops(),
	})
	return key, nil
}
