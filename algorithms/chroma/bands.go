// Package chroma maps magnitude spectra onto a six-octave semitone scale and
// accumulates the result over time.
package chroma

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

const (
	// Semitones per octave
	Semitones = 12
	// Octaves covered by the analysis, C1 to B6
	Octaves = 6
	// BandCount is the length of every chroma vector
	BandCount = Semitones * Octaves

	// KernelStretch widens each band's spectral kernel relative to a semitone
	KernelStretch = 0.8
)

// bandFrequencies holds the equal-tempered centre frequency of each band in
// Hz, tuned to A4 = 440 Hz and starting at C1
var bandFrequencies = [BandCount]float64{
	32.7031956625748, 34.647828872109, 36.708095989676, 38.8908729652601,
	41.2034446141088, 43.6535289291255, 46.2493028389543, 48.9994294977187,
	51.9130871974932, 55, 58.2704701897613, 61.7354126570155,
	65.4063913251497, 69.2956577442181, 73.4161919793519, 77.7817459305203,
	82.4068892282175, 87.307057858251, 92.4986056779087, 97.9988589954374,
	103.826174394986, 110, 116.540940379523, 123.470825314031,
	130.812782650299, 138.591315488436, 146.832383958704, 155.563491861041,
	164.813778456435, 174.614115716502, 184.997211355817, 195.997717990875,
	207.652348789973, 220, 233.081880759045, 246.941650628062,
	261.625565300599, 277.182630976872, 293.664767917408, 311.126983722081,
	329.62755691287, 349.228231433004, 369.994422711635, 391.99543598175,
	415.304697579946, 440.000000000001, 466.163761518091, 493.883301256125,
	523.251130601198, 554.365261953745, 587.329535834816, 622.253967444163,
	659.255113825741, 698.456462866009, 739.98884542327, 783.9908719635,
	830.609395159892, 880.000000000002, 932.327523036182, 987.76660251225,
	1046.5022612024, 1108.73052390749, 1174.65907166963, 1244.50793488833,
	1318.51022765148, 1396.91292573202, 1479.97769084654, 1567.981743927,
	1661.21879031978, 1760, 1864.65504607236, 1975.5332050245,
}

// BandFrequency returns the centre frequency of band in Hz
func BandFrequency(band int) (float64, error) {
	if band < 0 || band >= BandCount {
		return 0, errors.Wrapf(common.ErrOutOfBounds, "cannot get frequency of band %d of %d", band, BandCount)
	}
	return bandFrequencies[band], nil
}

// LastFrequency returns the centre frequency of the highest band
func LastFrequency() float64 {
	return bandFrequencies[BandCount-1]
}
