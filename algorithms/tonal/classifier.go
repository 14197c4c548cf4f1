package tonal

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// KeyClassifier picks the key whose rotated template best matches a chroma
// vector by cosine similarity.
//
// An all-zero silence template is scored first; a key must beat it strictly
// to be chosen, so a vector that correlates with nothing yields Silence. Ties
// between keys go to the earlier key in enumeration order.
type KeyClassifier struct {
	major   *ToneProfile
	minor   *ToneProfile
	silence *ToneProfile
}

// NewKeyClassifier creates a classifier from six-octave major and minor
// templates
func NewKeyClassifier(majorTemplate, minorTemplate []float64) (*KeyClassifier, error) {
	major, err := NewToneProfile(majorTemplate)
	if err != nil {
		return nil, err
	}
	minor, err := NewToneProfile(minorTemplate)
	if err != nil {
		return nil, err
	}
	silence, err := NewToneProfile(make([]float64, chroma.BandCount))
	if err != nil {
		return nil, err
	}
	return &KeyClassifier{major: major, minor: minor, silence: silence}, nil
}

// NewDefaultKeyClassifier creates a classifier from the built-in templates
func NewDefaultKeyClassifier() (*KeyClassifier, error) {
	return NewKeyClassifier(DefaultMajorTemplate(), DefaultMinorTemplate())
}

// Scores returns the similarity of vector to each of the KeyCount keys,
// indexed by Key
func (kc *KeyClassifier) Scores(vector []float64) ([]float64, error) {
	if !common.AllFinite(vector) {
		return nil, errors.Wrap(common.ErrNonFinite, "chroma vector holds non-finite values")
	}
	scores := make([]float64, KeyCount)
	for tonic := range chroma.Semitones {
		// bands start at C, keys at A
		offset := (tonic + 9) % chroma.Semitones

		score, err := kc.major.CosineSimilarity(vector, offset)
		if err != nil {
			return nil, err
		}
		scores[NewKey(tonic, KeyModeMajor)] = score

		score, err = kc.minor.CosineSimilarity(vector, offset)
		if err != nil {
			return nil, err
		}
		scores[NewKey(tonic, KeyModeMinor)] = score
	}
	return scores, nil
}

// Classify returns the best matching key for a BandCount chroma vector
func (kc *KeyClassifier) Classify(vector []float64) (Key, error) {
	scores, err := kc.Scores(vector)
	if err != nil {
		return Silence, err
	}

	bestScore, err := kc.silence.CosineSimilarity(vector, 0)
	if err != nil {
		return Silence, err
	}

	// find best match, defaulting to silence
	bestMatch := Silence
	for k, score := range scores {
		if score > bestScore {
			bestScore = score
			bestMatch = Key(k)
		}
	}
	return bestMatch, nil
}
