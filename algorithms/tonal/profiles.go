package tonal

import (
	"github.com/RyanBlaney/sonido-keyfinder/algorithms/chroma"
)

// Tone profiles give the expected relative weight of each semitone above the
// tonic in major and minor music. Index 0 is the tonic.
var (
	majorProfile = [chroma.Semitones]float64{
		7.23900502618145225142,
		3.50351166725158691406,
		3.58445177536649417505,
		2.84511816478676315967,
		5.81898892118549859731,
		4.55865057415321039969,
		2.44778850545506543313,
		6.99473192146829525484,
		3.39106613673504853068,
		4.55614256655143456953,
		4.07392666663523606019,
		4.45932757378886890365,
	}

	minorProfile = [chroma.Semitones]float64{
		7.00255045060284420089,
		3.14360279015996679775,
		4.35904319714962529275,
		5.40418120718934069657,
		3.67234420879306133756,
		4.08971184917797891956,
		3.90791435991553992579,
		6.19960288562316463867,
		3.63424625625277419871,
		2.87241191079875557435,
		5.35467999794542670600,
		3.83242038595048351013,
	}

	// octaveWeights scale the profile in each of the six analysed octaves
	octaveWeights = [chroma.Octaves]float64{
		0.39997267549999998559,
		0.55634425248300645173,
		0.52496636345143543600,
		0.60847548384277727607,
		0.59898115679999996974,
		0.49072435317960994006,
	}
)

// DefaultMajorTemplate returns a fresh copy of the six-octave major template
func DefaultMajorTemplate() []float64 {
	return buildTemplate(majorProfile)
}

// DefaultMinorTemplate returns a fresh copy of the six-octave minor template
func DefaultMinorTemplate() []float64 {
	return buildTemplate(minorProfile)
}

func buildTemplate(profile [chroma.Semitones]float64) []float64 {
	template := make([]float64, chroma.BandCount)
	for o, weight := range octaveWeights {
		for s, value := range profile {
			template[o*chroma.Semitones+s] = value * weight
		}
	}
	return template
}
