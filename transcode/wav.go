// Package transcode turns audio files into sample buffers for analysis
package transcode

import (
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// wavFormatPCM is the WAVE format tag for integer PCM
const wavFormatPCM = 1

// ErrUnsupportedFormat reports audio the decoder cannot read
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// WAVReader streams integer PCM from a WAV file as normalised samples
type WAVReader struct {
	file      *os.File
	decoder   *wav.Decoder
	channels  int
	frameRate int
	bitDepth  int
	scratch   *audio.IntBuffer
}

// OpenWAV opens a WAV file and reads its header
func OpenWAV(path string) (*WAVReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open file")
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s is not a valid WAV file", path)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		file.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: WAVE format %d is not integer PCM", path, decoder.WavAudioFormat)
	}

	format := decoder.Format()
	r := &WAVReader{
		file:      file,
		decoder:   decoder,
		channels:  format.NumChannels,
		frameRate: format.SampleRate,
		bitDepth:  int(decoder.BitDepth),
	}
	if r.channels < 1 || r.frameRate < 1 || r.bitDepth < 8 {
		file.Close()
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: %d channels at %d Hz, %d bit",
			path, r.channels, r.frameRate, r.bitDepth)
	}
	return r, nil
}

// Channels returns the channel count
func (r *WAVReader) Channels() int {
	return r.channels
}

// FrameRate returns the sample rate in Hz
func (r *WAVReader) FrameRate() int {
	return r.frameRate
}

// BitDepth returns the bits per sample
func (r *WAVReader) BitDepth() int {
	return r.bitDepth
}

// ReadChunk reads up to frames frames. It returns io.EOF once the data chunk
// is exhausted.
func (r *WAVReader) ReadChunk(frames int) (*common.SampleBuffer, error) {
	if frames < 1 {
		return nil, errors.Wrapf(common.ErrInvalidConfig, "chunk size must be > 0, got %d", frames)
	}

	size := frames * r.channels
	if r.scratch == nil || len(r.scratch.Data) != size {
		r.scratch = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: r.channels,
				SampleRate:  r.frameRate,
			},
			Data:           make([]int, size),
			SourceBitDepth: r.bitDepth,
		}
	}

	n, err := r.decoder.PCMBuffer(r.scratch)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "could not read PCM data")
	}
	if n == 0 {
		return nil, io.EOF
	}

	// drop a trailing partial frame
	n -= n % r.channels
	samples := make([]float64, n)
	for i, v := range r.scratch.Data[:n] {
		samples[i] = r.normalise(v)
	}
	return common.NewSampleBufferFromSamples(samples, r.channels, r.frameRate)
}

// normalise maps an integer sample onto [-1, 1)
func (r *WAVReader) normalise(v int) float64 {
	if r.bitDepth == 8 {
		// 8-bit WAV is unsigned
		v -= 128
	}
	return float64(v) / math.Exp2(float64(r.bitDepth-1))
}

// Close closes the underlying file
func (r *WAVReader) Close() error {
	return r.file.Close()
}

// DecodeWAV reads a whole WAV file into one buffer
func DecodeWAV(path string) (*common.SampleBuffer, error) {
	r, err := OpenWAV(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	all, err := common.NewSampleBuffer(r.Channels(), r.FrameRate())
	if err != nil {
		return nil, err
	}
	for {
		chunk, err := r.ReadChunk(1 << 16)
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		if err := all.Append(chunk); err != nil {
			return nil, err
		}
	}
}

// EncodeWAV writes buf to path as integer PCM of the given bit depth. Samples
// are clipped to [-1, 1).
func EncodeWAV(path string, buf *common.SampleBuffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return errors.Wrapf(ErrUnsupportedFormat, "bit depth %d", bitDepth)
	}
	if buf.Channels() < 1 || buf.FrameRate() < 1 {
		return errors.Wrap(common.ErrPrecondition, "buffer has no channel or rate metadata")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create file")
	}
	defer file.Close()

	scale := math.Exp2(float64(bitDepth - 1))
	samples := buf.Samples()
	data := make([]int, len(samples))
	for i, v := range samples {
		q := math.Round(v * scale)
		data[i] = int(math.Max(-scale, math.Min(scale-1, q)))
	}

	encoder := wav.NewEncoder(file, buf.FrameRate(), bitDepth, buf.Channels(), wavFormatPCM)
	if err := encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels(),
			SampleRate:  buf.FrameRate(),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}); err != nil {
		return errors.Wrap(err, "could not write PCM data")
	}
	if err := encoder.Close(); err != nil {
		return errors.Wrap(err, "could not finalise WAV file")
	}
	return file.Close()
}
