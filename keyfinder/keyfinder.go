// Package keyfinder estimates the musical key of audio.
//
// A KeyFinder holds the shared, cached precomputation (filters, kernel banks,
// windows and tone profiles) and is safe for concurrent use. Each analysis
// runs in its own Session, which accepts audio in chunks:
//
//	kf, _ := keyfinder.NewKeyFinder(nil)
//	s := keyfinder.NewSession()
//	for chunk := range chunks {
//		if err := kf.Ingest(s, chunk); err != nil { ... }
//	}
//	key, err := kf.Finish(s)
package keyfinder

import (
	"sync"

	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/common"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/filters"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/tonal"
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/windowing"
	"github.com/RyanBlaney/sonido-keyfinder/logging"
)

// KeyFinder runs key analyses
type KeyFinder struct {
	config     *Config
	filters    *filters.LowPassFilterFactory
	banks      *chroma.KernelBankFactory
	windows    *windowing.TemporalWindowFactory
	classifier *tonal.KeyClassifier
	logger     logging.Logger
}

// NewKeyFinder creates a KeyFinder. A nil config selects DefaultConfig.
func NewKeyFinder(config *Config) (*KeyFinder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := *config

	base := config.Logger
	if base == nil {
		base = logging.GetGlobalLogger()
	}
	logger := base.WithFields(logging.Fields{
		"component": "keyfinder",
	})

	classifier, err := tonal.NewDefaultKeyClassifier()
	if err != nil {
		return nil, err
	}

	return &KeyFinder{
		config:     &cfg,
		filters:    filters.NewLowPassFilterFactory(logger),
		banks:      chroma.NewKernelBankFactory(logger),
		windows:    windowing.NewTemporalWindowFactory(logger),
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Config returns the configuration the KeyFinder was built with
func (kf *KeyFinder) Config() Config {
	return *kf.config
}

// KeyOfAudio analyses a whole buffer in one pass
func (kf *KeyFinder) KeyOfAudio(audio *common.SampleBuffer) (tonal.Key, error) {
	s := NewSession()
	if err := kf.Ingest(s, audio); err != nil {
		return tonal.Silence, err
	}
	return kf.Finish(s)
}

// KeyOfChromagram classifies the chromagram accumulated so far by s without
// finishing the session
func (kf *KeyFinder) KeyOfChromagram(s *Session) (tonal.Key, error) {
	return kf.KeyOfChromaVector(s.chromagram.CollapseToOneHop())
}

// KeyOfChromaVector classifies a single chroma vector of chroma.BandCount
// values with the built-in templates
func (kf *KeyFinder) KeyOfChromaVector(vector []float64) (tonal.Key, error) {
	return kf.classifier.Classify(vector)
}

// KeyOfChromaVectorWithTemplates classifies a chroma vector against custom
// six-octave major and minor templates
func (kf *KeyFinder) KeyOfChromaVectorWithTemplates(vector, majorTemplate, minorTemplate []float64) (tonal.Key, error) {
	classifier, err := tonal.NewKeyClassifier(majorTemplate, minorTemplate)
	if err != nil {
		return tonal.Silence, err
	}
	return classifier.Classify(vector)
}

var defaultKeyFinder = sync.OnceValues(func() (*KeyFinder, error) {
	return NewKeyFinder(nil)
})

// Default returns the shared KeyFinder built from DefaultConfig
func Default() (*KeyFinder, error) {
	return defaultKeyFinder()
}

// KeyOfAudio analyses a whole buffer with the shared default KeyFinder
func KeyOfAudio(audio *common.SampleBuffer) (tonal.Key, error) {
	kf, err := defaultKeyFinder()
	if err != nil {
		return tonal.Silence, err
	}
	return kf.KeyOfAudio(audio)
}
