package tonal

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// ToneProfile is a six-octave template that can be compared against a chroma
// vector in any of the 12 transpositions.
//
// Rotating by k semitones moves the value of semitone s in each octave to
// semitone s+k of the same octave, wrapping within the octave. All 12
// rotations and their norms are computed once, so a ToneProfile is immutable
// and safe for concurrent use.
type ToneProfile struct {
	rotations [chroma.Semitones][]float64
	norms     [chroma.Semitones]float64
}

// NewToneProfile creates a tone profile from BandCount finite values
func NewToneProfile(values []float64) (*ToneProfile, error) {
	if len(values) != chroma.BandCount {
		return nil, errors.Wrapf(common.ErrInvalidConfig,
			"tone profile must have %d elements, got %d", chroma.BandCount, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(common.ErrNonFinite, "tone profile element %d is %v", i, v)
		}
	}

	tp := &ToneProfile{}
	for k := range chroma.Semitones {
		rotated := make([]float64, chroma.BandCount)
		for o := range chroma.Octaves {
			base := o * chroma.Semitones
			for s := range chroma.Semitones {
				rotated[base+s] = values[base+(s-k+chroma.Semitones)%chroma.Semitones]
			}
		}
		tp.rotations[k] = rotated
		tp.norms[k] = floats.Norm(rotated, 2)
	}
	return tp, nil
}

func normaliseOffset(offset int) int {
	return (offset%chroma.Semitones + chroma.Semitones) % chroma.Semitones
}

// Value returns band of the profile rotated by offset semitones
func (tp *ToneProfile) Value(band, offset int) (float64, error) {
	if band < 0 || band >= chroma.BandCount {
		return 0, errors.Wrapf(common.ErrOutOfBounds, "cannot get band %d of %d", band, chroma.BandCount)
	}
	return tp.rotations[normaliseOffset(offset)][band], nil
}

// Rotated returns a copy of the profile rotated by offset semitones
func (tp *ToneProfile) Rotated(offset int) []float64 {
	rotated := make([]float64, chroma.BandCount)
	copy(rotated, tp.rotations[normaliseOffset(offset)])
	return rotated
}

// CosineSimilarity returns the cosine of the angle between input and the
// profile rotated by offset semitones; 0 when either vector is all zero
func (tp *ToneProfile) CosineSimilarity(input []float64, offset int) (float64, error) {
	if len(input) != chroma.BandCount {
		return 0, errors.Wrapf(common.ErrInvalidConfig,
			"chroma vector must have %d elements, got %d", chroma.BandCount, len(input))
	}
	k := normaliseOffset(offset)

	profileNorm := tp.norms[k]
	inputNorm := floats.Norm(input, 2)
	if profileNorm <= 0 || inputNorm <= 0 {
		return 0, nil
	}
	return floats.Dot(tp.rotations[k], input) / (profileNorm * inputNorm), nil
}
