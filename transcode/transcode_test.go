package transcode

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

func writeTestWAV(t *testing.T, frames, channels, frameRate, bitDepth int) (string, []float64) {
	t.Helper()
	samples := make([]float64, frames*channels)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(float64(i)*0.01)
	}
	buf, err := common.NewSampleBufferFromSamples(samples, channels, frameRate)
	if err != nil {
		t.Fatalf("NewSampleBufferFromSamples failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := EncodeWAV(path, buf, bitDepth); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	return path, samples
}

func TestWAV_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		rate     int
		bitDepth int
	}{
		{"16-bit mono", 1, 44100, 16},
		{"16-bit stereo", 2, 48000, 16},
		{"24-bit mono", 1, 44100, 24},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path, want := writeTestWAV(t, 2000, tc.channels, tc.rate, tc.bitDepth)

			got, err := DecodeWAV(path)
			if err != nil {
				t.Fatalf("DecodeWAV failed: %v", err)
			}
			if got.Channels() != tc.channels || got.FrameRate() != tc.rate {
				t.Fatalf("decoded %d channels at %d Hz", got.Channels(), got.FrameRate())
			}
			if got.SampleCount() != len(want) {
				t.Fatalf("decoded %d samples, want %d", got.SampleCount(), len(want))
			}

			tolerance := 1 / math.Exp2(float64(tc.bitDepth-1))
			for i, v := range got.Samples() {
				if math.Abs(v-want[i]) > tolerance {
					t.Fatalf("sample %d = %v, want %v", i, v, want[i])
				}
			}
		})
	}
}

func TestWAVReader_ReadChunk(t *testing.T) {
	const frames = 1000
	path, _ := writeTestWAV(t, frames, 2, 44100, 16)

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV failed: %v", err)
	}
	defer r.Close()

	if r.Channels() != 2 || r.FrameRate() != 44100 || r.BitDepth() != 16 {
		t.Fatalf("header = %d channels, %d Hz, %d bit", r.Channels(), r.FrameRate(), r.BitDepth())
	}

	total := 0
	for {
		chunk, err := r.ReadChunk(300)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadChunk failed: %v", err)
		}
		n, _ := chunk.FrameCount()
		if n < 1 || n > 300 {
			t.Fatalf("chunk of %d frames", n)
		}
		if chunk.Channels() != 2 {
			t.Fatalf("chunk has %d channels", chunk.Channels())
		}
		total += n
	}
	if total != frames {
		t.Errorf("read %d frames, want %d", total, frames)
	}

	if _, err := r.ReadChunk(0); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("zero chunk: error = %v, want ErrInvalidConfig", err)
	}
}

func TestOpenWAV_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenWAV(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("missing file opened")
	}

	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("this is not a wave file at all"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := OpenWAV(bad); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bad file: error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEncodeWAV_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	buf, _ := common.NewSampleBufferFromSamples([]float64{0, 0.5}, 1, 44100)

	if err := EncodeWAV(path, buf, 12); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("12-bit: error = %v, want ErrUnsupportedFormat", err)
	}
	if err := EncodeWAV(path, &common.SampleBuffer{}, 16); !errors.Is(err, common.ErrPrecondition) {
		t.Errorf("no metadata: error = %v, want ErrPrecondition", err)
	}
}

func TestEncodeWAV_Clips(t *testing.T) {
	buf, _ := common.NewSampleBufferFromSamples([]float64{2, -2, 1}, 1, 8000)
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := EncodeWAV(path, buf, 16); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	got, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	want := []float64{32767.0 / 32768, -1, 32767.0 / 32768}
	if !slices.Equal(got.Samples(), want) {
		t.Errorf("samples = %v, want %v", got.Samples(), want)
	}
}

func TestIsWAV(t *testing.T) {
	tests := map[string]bool{
		"song.wav":     true,
		"SONG.WAV":     true,
		"take.wave":    true,
		"song.mp3":     false,
		"wav":          false,
		"dir.wav/file": false,
	}
	for name, want := range tests {
		if got := IsWAV(name); got != want {
			t.Errorf("IsWAV(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	valid := []byte(`{"streams": [{
		"codec_type": "audio",
		"codec_name": "mp3",
		"codec_long_name": "MP3 (MPEG audio layer 3)",
		"sample_rate": "44100",
		"channels": 2,
		"duration": "183.25",
		"bit_rate": "320000"
	}]}`)

	md, err := parseFFprobeOutput(valid)
	if err != nil {
		t.Fatalf("parseFFprobeOutput failed: %v", err)
	}
	if md.SampleRate != 44100 || md.Channels != 2 || md.Codec != "mp3" ||
		md.Duration != 183.25 || md.Bitrate != 320000 {
		t.Errorf("metadata = %+v", md)
	}

	invalid := []struct {
		name string
		json string
	}{
		{"no streams", `{"streams": []}`},
		{"video stream", `{"streams": [{"codec_type": "video", "sample_rate": "44100", "channels": 2}]}`},
		{"bad sample rate", `{"streams": [{"codec_type": "audio", "sample_rate": "n/a", "channels": 2}]}`},
		{"no channels", `{"streams": [{"codec_type": "audio", "sample_rate": "44100", "channels": 0}]}`},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseFFprobeOutput([]byte(tc.json)); !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}

	if _, err := parseFFprobeOutput([]byte("{not json")); err == nil {
		t.Error("malformed JSON parsed")
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	md := &AudioMetadata{SampleRate: 48000, Channels: 2}

	d := NewDecoder(nil)
	want := []string{"-f", "f64le", "-ac", "2", "-ar", "48000", "-v", "error"}
	if got := d.buildFFmpegArgs(md); !slices.Equal(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}

	d = NewDecoder(&DecoderConfig{TargetSampleRate: 44100, MaxDuration: 90 * time.Second})
	want = []string{"-f", "f64le", "-ac", "2", "-ar", "44100", "-t", "90.00", "-v", "error"}
	if got := d.buildFFmpegArgs(md); !slices.Equal(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestBytesToFloat64(t *testing.T) {
	values := []float64{0, 1, -0.5, math.SmallestNonzeroFloat64}
	data := make([]byte, 0, len(values)*8+3)
	for _, v := range values {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	data = append(data, 1, 2, 3)

	if got := bytesToFloat64(data); !slices.Equal(got, values) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, values)
	}
	if got := bytesToFloat64([]byte{1, 2}); got != nil {
		t.Errorf("short input = %v, want nil", got)
	}
}

func TestDecoder_DecodeFile(t *testing.T) {
	path, want := writeTestWAV(t, 500, 1, 22050, 16)

	d := NewDecoder(nil)
	got, err := d.DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if got.SampleCount() != len(want) || got.FrameRate() != 22050 {
		t.Errorf("decoded %d samples at %d Hz", got.SampleCount(), got.FrameRate())
	}

	// anything else goes through ffprobe
	d = NewDecoder(&DecoderConfig{
		FFmpegPath:  filepath.Join(t.TempDir(), "no-ffmpeg"),
		FFprobePath: filepath.Join(t.TempDir(), "no-ffprobe"),
		Timeout:     time.Second,
	})
	if _, err := d.DecodeFile(context.Background(), "song.mp3"); err == nil {
		t.Error("decoding without ffprobe succeeded")
	}
}
