package tonal

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
)

func newTestClassifier(t *testing.T) *KeyClassifier {
	t.Helper()
	kc, err := NewDefaultKeyClassifier()
	if err != nil {
		t.Fatalf("NewDefaultKeyClassifier failed: %v", err)
	}
	return kc
}

func TestKey_Names(t *testing.T) {
	tests := []struct {
		key        Key
		name       string
		tonic      int
		pitchClass int
		mode       KeyMode
	}{
		{AMajor, "A major", 0, 9, KeyModeMajor},
		{BFlatMinor, "Bb minor", 1, 10, KeyModeMinor},
		{CMajor, "C major", 3, 0, KeyModeMajor},
		{EFlatMinor, "Eb minor", 6, 3, KeyModeMinor},
		{GFlatMajor, "Gb major", 9, 6, KeyModeMajor},
		{AFlatMinor, "Ab minor", 11, 8, KeyModeMinor},
		{Silence, "silence", -1, -1, KeyModeMajor},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.String(); got != tc.name {
				t.Errorf("String = %q, want %q", got, tc.name)
			}
			if got := tc.key.Tonic(); got != tc.tonic {
				t.Errorf("Tonic = %d, want %d", got, tc.tonic)
			}
			if got := tc.key.PitchClass(); got != tc.pitchClass {
				t.Errorf("PitchClass = %d, want %d", got, tc.pitchClass)
			}
			if got := tc.key.Mode(); got != tc.mode {
				t.Errorf("Mode = %v, want %v", got, tc.mode)
			}
			parsed, err := ParseKey(tc.name)
			if err != nil || parsed != tc.key {
				t.Errorf("ParseKey(%q) = %v, %v", tc.name, parsed, err)
			}
		})
	}

	if int(Silence) != 24 || KeyCount != 24 {
		t.Errorf("Silence = %d, KeyCount = %d; want 24", Silence, KeyCount)
	}
	if _, err := ParseKey("H major"); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("unknown name: error = %v, want ErrInvalidConfig", err)
	}
}

func TestKey_Relations(t *testing.T) {
	tests := []struct {
		name string
		got  Key
		want Key
	}{
		{"relative of C major", CMajor.Relative(), AMinor},
		{"relative of A minor", AMinor.Relative(), CMajor},
		{"relative of Eb major", EFlatMajor.Relative(), CMinor},
		{"parallel of C major", CMajor.Parallel(), CMinor},
		{"dominant of C major", CMajor.Dominant(), GMajor},
		{"subdominant of C major", CMajor.Subdominant(), FMajor},
		{"dominant of A minor", AMinor.Dominant(), EMinor},
		{"relative of silence", Silence.Relative(), Silence},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if !CMajor.IsCompatible(AMinor) || !CMajor.IsCompatible(GMajor) {
		t.Error("C major should be compatible with A minor and G major")
	}
	if CMajor.IsCompatible(DFlatMajor) || Silence.IsCompatible(Silence) {
		t.Error("unexpected compatibility")
	}
}

func TestKey_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Key Key `json:"key"`
	}{DFlatMinor})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"key":"Db minor"}` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded struct {
		Key Key `json:"key"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Key != DFlatMinor {
		t.Errorf("Unmarshal = %v, %v", decoded.Key, err)
	}
}

func TestTemplates(t *testing.T) {
	major := DefaultMajorTemplate()
	if len(major) != chroma.BandCount {
		t.Fatalf("template length = %d", len(major))
	}
	// octave 3, semitone 4
	want := majorProfile[4] * octaveWeights[3]
	if major[3*chroma.Semitones+4] != want {
		t.Errorf("template[40] = %v, want %v", major[40], want)
	}

	// fresh copies
	major[0] = -1
	if DefaultMajorTemplate()[0] == -1 {
		t.Error("DefaultMajorTemplate returned shared storage")
	}
}

func TestToneProfile_Rotation(t *testing.T) {
	values := make([]float64, chroma.BandCount)
	for i := range values {
		values[i] = float64(i)
	}
	tp, err := NewToneProfile(values)
	if err != nil {
		t.Fatalf("NewToneProfile failed: %v", err)
	}

	for band := range chroma.BandCount {
		if v, _ := tp.Value(band, 0); v != values[band] {
			t.Fatalf("offset 0 is not the identity at band %d", band)
		}
	}

	// rotating by 2 moves semitone 0 of octave 1 to semitone 2
	if v, _ := tp.Value(14, 2); v != 12 {
		t.Errorf("Value(14, 2) = %v, want 12", v)
	}
	// and wraps within the octave
	if v, _ := tp.Value(12, 2); v != 22 {
		t.Errorf("Value(12, 2) = %v, want 22", v)
	}
	if v, _ := tp.Value(12, 14); v != 22 {
		t.Errorf("offset 14 should equal offset 2, got %v", v)
	}
	rotated := tp.Rotated(-1)
	if rotated[11] != 0 {
		t.Errorf("Rotated(-1)[11] = %v, want 0", rotated[11])
	}

	if _, err := tp.Value(chroma.BandCount, 0); !errors.Is(err, common.ErrOutOfBounds) {
		t.Errorf("band out of range: error = %v, want ErrOutOfBounds", err)
	}
}

func TestToneProfile_CosineSimilarity(t *testing.T) {
	template := DefaultMinorTemplate()
	tp, _ := NewToneProfile(template)

	for k := range chroma.Semitones {
		self, err := tp.CosineSimilarity(tp.Rotated(k), k)
		if err != nil {
			t.Fatalf("CosineSimilarity failed: %v", err)
		}
		if math.Abs(self-1) > 1e-12 {
			t.Errorf("self similarity at offset %d = %v, want 1", k, self)
		}

		scaled := tp.Rotated(k)
		for i := range scaled {
			scaled[i] *= 3.5
		}
		if s, _ := tp.CosineSimilarity(scaled, k); math.Abs(s-1) > 1e-12 {
			t.Errorf("scaled similarity at offset %d = %v, want 1", k, s)
		}

		negated := tp.Rotated(k)
		for i := range negated {
			negated[i] = -negated[i]
		}
		if s, _ := tp.CosineSimilarity(negated, k); math.Abs(s+1) > 1e-12 {
			t.Errorf("negated similarity at offset %d = %v, want -1", k, s)
		}
	}

	zero := make([]float64, chroma.BandCount)
	if s, _ := tp.CosineSimilarity(zero, 0); s != 0 {
		t.Errorf("similarity to zero vector = %v, want 0", s)
	}
	if _, err := tp.CosineSimilarity(make([]float64, 12), 0); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("short input: error = %v, want ErrInvalidConfig", err)
	}

	if _, err := NewToneProfile(make([]float64, 71)); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("short profile: error = %v, want ErrInvalidConfig", err)
	}
	bad := DefaultMajorTemplate()
	bad[5] = math.NaN()
	if _, err := NewToneProfile(bad); !errors.Is(err, common.ErrNonFinite) {
		t.Errorf("NaN profile: error = %v, want ErrNonFinite", err)
	}
}

func TestKeyClassifier_SilenceForZeroVector(t *testing.T) {
	kc := newTestClassifier(t)

	key, err := kc.Classify(make([]float64, chroma.BandCount))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if key != Silence {
		t.Errorf("zero vector classified as %v, want silence", key)
	}
}

func TestKeyClassifier_RecognisesEveryTemplate(t *testing.T) {
	kc := newTestClassifier(t)
	major, _ := NewToneProfile(DefaultMajorTemplate())
	minor, _ := NewToneProfile(DefaultMinorTemplate())

	for k := AMajor; k < Silence; k++ {
		offset := k.PitchClass()
		vector := major.Rotated(offset)
		if k.Mode() == KeyModeMinor {
			vector = minor.Rotated(offset)
		}

		got, err := kc.Classify(vector)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got != k {
			t.Errorf("template of %v classified as %v", k, got)
		}
	}
}

func TestKeyClassifier_CMajorProfileIsCMajor(t *testing.T) {
	kc := newTestClassifier(t)

	// C, E and G, equally loud in every octave
	vector := make([]float64, chroma.BandCount)
	for o := range chroma.Octaves {
		for _, s := range []int{0, 4, 7} {
			vector[o*chroma.Semitones+s] = 1
		}
	}

	key, err := kc.Classify(vector)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if key != CMajor {
		t.Errorf("C major triad classified as %v", key)
	}
}

func TestKeyClassifier_TiesGoToFirstKey(t *testing.T) {
	// identical major and minor templates score every pair equally
	template := DefaultMajorTemplate()
	kc, err := NewKeyClassifier(template, template)
	if err != nil {
		t.Fatalf("NewKeyClassifier failed: %v", err)
	}
	tp, _ := NewToneProfile(template)

	key, _ := kc.Classify(tp.Rotated(CMinor.PitchClass()))
	if key != CMajor {
		t.Errorf("tie classified as %v, want C major", key)
	}
}

func TestKeyClassifier_Errors(t *testing.T) {
	kc := newTestClassifier(t)

	if _, err := kc.Classify(make([]float64, 12)); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("short vector: error = %v, want ErrInvalidConfig", err)
	}
	vector := make([]float64, chroma.BandCount)
	vector[3] = math.Inf(1)
	if _, err := kc.Classify(vector); !errors.Is(err, common.ErrNonFinite) {
		t.Errorf("Inf vector: error = %v, want ErrNonFinite", err)
	}
	if _, err := NewKeyClassifier(make([]float64, 10), DefaultMinorTemplate()); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("short template: error = %v, want ErrInvalidConfig", err)
	}
}
