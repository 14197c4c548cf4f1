package tonal

import (
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

// KeyMode represents major or minor mode
type KeyMode int

const (
	KeyModeMajor KeyMode = iota
	KeyModeMinor
)

func (m KeyMode) String() string {
	if m == KeyModeMinor {
		return "minor"
	}
	return "major"
}

// Key is one of the 24 major and minor keys, or Silence.
//
// Keys are enumerated from A, alternating major and minor, so a key's tonic is
// Key/2 semitones above A and its mode is Key%2.
type Key int

const (
	AMajor Key = iota
	AMinor
	BFlatMajor
	BFlatMinor
	BMajor
	BMinor
	CMajor
	CMinor
	DFlatMajor
	DFlatMinor
	DMajor
	DMinor
	EFlatMajor
	EFlatMinor
	EMajor
	EMinor
	FMajor
	FMinor
	GFlatMajor
	GFlatMinor
	GMajor
	GMinor
	AFlatMajor
	AFlatMinor
	Silence
)

// KeyCount is the number of tonal keys, excluding Silence
const KeyCount = int(Silence)

var tonicNames = [12]string{"A", "Bb", "B", "C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab"}

// NewKey returns the key with the given tonic, in semitones above A, and mode
func NewKey(tonic int, mode KeyMode) Key {
	return Key(((tonic%12+12)%12)*2 + int(mode))
}

// ParseKey returns the key whose String matches name
func ParseKey(name string) (Key, error) {
	for k := AMajor; k <= Silence; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return Silence, errors.Wrapf(common.ErrInvalidConfig, "unknown key %q", name)
}

// IsValid reports whether k is a tonal key or Silence
func (k Key) IsValid() bool {
	return k >= AMajor && k <= Silence
}

// IsSilence reports whether k is Silence
func (k Key) IsSilence() bool {
	return k == Silence
}

// Tonic returns the tonic in semitones above A (0-11); -1 for Silence
func (k Key) Tonic() int {
	if k.IsSilence() || !k.IsValid() {
		return -1
	}
	return int(k) / 2
}

// PitchClass returns the tonic as a pitch class with C = 0; -1 for Silence
func (k Key) PitchClass() int {
	t := k.Tonic()
	if t < 0 {
		return -1
	}
	return (t + 9) % 12
}

// Mode returns the mode of the key. Silence reports major.
func (k Key) Mode() KeyMode {
	if k.IsSilence() || !k.IsValid() {
		return KeyModeMajor
	}
	return KeyMode(int(k) % 2)
}

// String returns a human-readable key name such as "Eb minor"
func (k Key) String() string {
	switch {
	case k == Silence:
		return "silence"
	case !k.IsValid():
		return "unknown"
	}
	return tonicNames[k.Tonic()] + " " + k.Mode().String()
}

// MarshalText encodes the key by name
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a key name produced by MarshalText
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Relative returns the relative major/minor key
func (k Key) Relative() Key {
	if k.IsSilence() || !k.IsValid() {
		return k
	}
	if k.Mode() == KeyModeMajor {
		// Relative minor is 3 semitones down
		return NewKey(k.Tonic()-3, KeyModeMinor)
	}
	// Relative major is 3 semitones up
	return NewKey(k.Tonic()+3, KeyModeMajor)
}

// Parallel returns the parallel major/minor key
func (k Key) Parallel() Key {
	if k.IsSilence() || !k.IsValid() {
		return k
	}
	if k.Mode() == KeyModeMajor {
		return NewKey(k.Tonic(), KeyModeMinor)
	}
	return NewKey(k.Tonic(), KeyModeMajor)
}

// Dominant returns the key a fifth above
func (k Key) Dominant() Key {
	if k.IsSilence() || !k.IsValid() {
		return k
	}
	return NewKey(k.Tonic()+7, k.Mode())
}

// Subdominant returns the key a fifth below
func (k Key) Subdominant() Key {
	if k.IsSilence() || !k.IsValid() {
		return k
	}
	return NewKey(k.Tonic()-7, k.Mode())
}

// IsCompatible checks if two keys are equal or closely related
func (k Key) IsCompatible(other Key) bool {
	if k.IsSilence() || other.IsSilence() {
		return false
	}
	switch other {
	case k, k.Relative(), k.Parallel(), k.Dominant(), k.Subdominant():
		return true
	default:
		return false
	}
}
